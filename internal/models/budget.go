package models

import "time"

// Budget is a spending allocation for one category over an inclusive date window.
// LeftAmount is a running counter: it starts at Amount and is adjusted by the
// budget ledger as matching expenses are recorded or removed.
type Budget struct {
	Base
	UserID     string    `gorm:"type:uuid;not null;index:idx_budget_lookup" json:"user_id"`
	CategoryID string    `gorm:"type:uuid;not null;index:idx_budget_lookup" json:"category_id"`
	Amount     int64     `gorm:"type:bigint;not null" json:"amount"`
	LeftAmount int64     `gorm:"type:bigint;not null" json:"left_amount"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null" json:"end_date"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// Covers reports whether the given calendar date falls inside the budget window.
func (b *Budget) Covers(date time.Time) bool {
	return !date.Before(b.StartDate) && !date.After(b.EndDate)
}
