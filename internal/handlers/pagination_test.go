package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestCreatePaginatedResponse(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		totalRows int64
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{name: "defaults", query: "", totalRows: 45, wantPage: 1, wantSize: 20, wantPages: 3},
		{name: "explicit page and size", query: "page=2&pageSize=10", totalRows: 45, wantPage: 2, wantSize: 10, wantPages: 5},
		{name: "size capped at max", query: "pageSize=500", totalRows: 45, wantPage: 1, wantSize: 100, wantPages: 1},
		{name: "negative page falls back", query: "page=-3", totalRows: 45, wantPage: 1, wantSize: 20, wantPages: 3},
		{name: "no rows means no pages", query: "", totalRows: 0, wantPage: 1, wantSize: 20, wantPages: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := CreatePaginatedResponse(testContext(tt.query), nil, tt.totalRows)
			assert.Equal(t, tt.wantPage, resp.CurrentPage)
			assert.Equal(t, tt.wantSize, resp.PageSize)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			assert.Equal(t, tt.totalRows, resp.TotalRows)
		})
	}
}
