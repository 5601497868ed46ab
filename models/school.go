package models

import "gorm.io/gorm"

// School is the tenant boundary. Every child, enrollment, group, attendance
// entry and progress card belongs to exactly one school, and every query must
// filter by the school id taken from the authenticated session.
type School struct {
	gorm.Model
	Name     string `json:"name" gorm:"not null"`
	Slug     string `json:"slug" gorm:"unique;not null"`
	City     string `json:"city"`
	IsActive bool   `json:"isActive" gorm:"default:true"`

	// DiscountFormula is an optional govaluate expression applied per child
	// when the monthly billing report is generated, e.g.
	// "siblings > 1 ? amount * 0.9 : amount". It never changes the effective
	// fee stored on records, only the billed amount on the report.
	DiscountFormula string `json:"discountFormula"`
}
