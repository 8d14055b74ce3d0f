package event

import "time"

// Event is a calendar entry. Date is stored as YYYY-MM-DD so month range
// queries are simple string comparisons.
type Event struct {
	ID          string    `gorm:"primaryKey"`
	Date        string    `gorm:"column:date;index;not null"`
	Title       string    `gorm:"column:title;not null"`
	Color       string    `gorm:"column:color"`
	CreatedByID string    `gorm:"column:created_by_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
