package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) uint {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// currentSchoolID returns the caller's school id from the authenticated
// session. Tenant scoping must always use this value; a school id found in a
// request body is untrusted and ignored.
func currentSchoolID(c *gin.Context) uint {
	if v, exists := c.Get("school_id"); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// parseUintParam reads a numeric path parameter, answering 400 itself when
// the value is malformed.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return uint(id), true
}
