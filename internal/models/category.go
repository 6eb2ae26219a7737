package models

import (
	"strings"

	"gorm.io/gorm"
)

// Category represents a named classification for expenses.
// Names are stored lowercased and are unique per user.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`

	// Relationships
	Budgets []Budget `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}

// NormalizeCategoryName trims and lowercases a category name.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeSave keeps the stored name normalized regardless of the write path.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = NormalizeCategoryName(c.Name)
	return nil
}
