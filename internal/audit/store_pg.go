package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

// Record inserts an audit entry.
func (s *PGStore) Record(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO audit_log (
    id,
    entity,
    entity_id,
    action,
    actor_id,
    from_status,
    to_status,
    details,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	entry = prepare(entry, func() time.Time { return time.Now().UTC() })

	var details []byte
	if len(entry.Details) > 0 {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = payload
	}

	_, err := s.DB.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Entity,
		entry.EntityID,
		entry.Action,
		nullString(entry.ActorID),
		nullString(entry.FromStatus),
		nullString(entry.ToStatus),
		details,
		entry.CreatedAt,
	)
	return err
}

// ListByEntity lists entries for one entity, newest first.
func (s *PGStore) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	const query = `
SELECT id, entity, entity_id, action, actor_id, from_status, to_status, details, created_at
FROM audit_log
WHERE entity = $1 AND entity_id = $2
ORDER BY created_at DESC
LIMIT $3`

	rows, err := s.DB.QueryContext(ctx, query, entity, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var actorID sql.NullString
		var fromStatus sql.NullString
		var toStatus sql.NullString
		var details []byte
		if err := rows.Scan(
			&e.ID,
			&e.Entity,
			&e.EntityID,
			&e.Action,
			&actorID,
			&fromStatus,
			&toStatus,
			&details,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if actorID.Valid {
			e.ActorID = actorID.String
		}
		if fromStatus.Valid {
			e.FromStatus = fromStatus.String
		}
		if toStatus.Valid {
			e.ToStatus = toStatus.String
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Store = (*PGStore)(nil)
