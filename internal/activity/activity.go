package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	activitymodel "github.com/campushub/campus-forum/internal/core/datamodel/activity"
)

// Recorder is the audit-trail sink. Recording is best-effort by contract:
// implementations never return an error, and a failed write must not affect
// the calling transition's outcome.
type Recorder interface {
	Record(ctx context.Context, actorID, action, subjectType, message string, meta map[string]any)
}

// Store persists and reads activity records.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Record(ctx context.Context, actorID, action, subjectType, message string, meta map[string]any) {
	metaJSON := "{}"
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = string(b)
		}
	}

	const q = `INSERT INTO activity (id, user_id, action, subject_type, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.db.ExecContext(ctx, q, uuid.NewString(), actorID, action, subjectType, message, metaJSON, time.Now()); err != nil {
		// never escalate: activity logging must not affect the caller
		s.logger.Error("failed to record activity", "action", action, "actor_id", actorID, "error", err)
	}
}

// HistoryForUser returns the actor's own records, newest first.
func (s *Store) HistoryForUser(ctx context.Context, userID string, limit int) ([]*activitymodel.Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []*activitymodel.Record
	const q = `SELECT id, user_id, action, subject_type, message, meta, created_at
		FROM activity WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := s.db.SelectContext(ctx, &records, q, userID, limit); err != nil {
		return nil, err
	}
	return records, nil
}
