package activity

import "time"

// Record is one audit trail entry. Meta is stored as a JSON document.
type Record struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Action      string    `db:"action"`
	SubjectType string    `db:"subject_type"`
	Message     string    `db:"message"`
	Meta        string    `db:"meta"`
	CreatedAt   time.Time `db:"created_at"`
}
