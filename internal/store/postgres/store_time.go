package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const timeEntryColumns = `id, organization_id, user_id, project, task, started_at, ended_at, duration_seconds`

func scanTimeEntry(row pgx.Row) (*db_models.TimeEntry, error) {
	var e db_models.TimeEntry
	if err := row.Scan(
		&e.ID,
		&e.OrganizationID,
		&e.UserID,
		&e.Project,
		&e.Task,
		&e.StartedAt,
		&e.EndedAt,
		&e.DurationSeconds,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

const startTimeEntry = `-- name: StartTimeEntry :exec
INSERT INTO time_entries (id, organization_id, user_id, project, task, started_at)
VALUES ($1, $2, $3, $4, $5, $6);
`

// StartTimeEntry returns store.ErrConflict when the user already has a
// running entry.
func (s *PostgresStore) StartTimeEntry(ctx context.Context, entry *db_models.TimeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, startTimeEntry,
		entry.ID, entry.OrganizationID, entry.UserID, entry.Project, entry.Task, entry.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("timer already running: %w", store.ErrConflict)
		}
		return fmt.Errorf("database error starting time entry: %w", err)
	}
	return nil
}

const getRunningTimeEntry = `-- name: GetRunningTimeEntry :one
SELECT ` + timeEntryColumns + `
FROM time_entries
WHERE organization_id = $1 AND user_id = $2 AND ended_at IS NULL;
`

func (s *PostgresStore) GetRunningTimeEntry(ctx context.Context, orgID, userID uuid.UUID) (*db_models.TimeEntry, error) {
	e, err := scanTimeEntry(s.db.QueryRow(ctx, getRunningTimeEntry, orgID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning time entry: %w", err)
	}
	return e, nil
}

const stopTimeEntry = `-- name: StopTimeEntry :one
UPDATE time_entries
SET ended_at = $3::timestamptz,
    duration_seconds = GREATEST(0, EXTRACT(EPOCH FROM ($3::timestamptz - started_at))::BIGINT)
WHERE organization_id = $1 AND user_id = $2 AND ended_at IS NULL
RETURNING ` + timeEntryColumns + `;
`

func (s *PostgresStore) StopTimeEntry(ctx context.Context, orgID, userID uuid.UUID, endedAt time.Time) (*db_models.TimeEntry, error) {
	e, err := scanTimeEntry(s.db.QueryRow(ctx, stopTimeEntry, orgID, userID, endedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error stopping time entry: %w", err)
	}
	return e, nil
}

// ListTimeEntries returns entries that started in [from, to), oldest first.
const listTimeEntries = `-- name: ListTimeEntries :many
SELECT ` + timeEntryColumns + `
FROM time_entries
WHERE organization_id = $1 AND user_id = $2 AND started_at >= $3 AND started_at < $4
ORDER BY started_at ASC;
`

func (s *PostgresStore) ListTimeEntries(ctx context.Context, orgID, userID uuid.UUID, from, to time.Time) ([]db_models.TimeEntry, error) {
	rows, err := s.db.Query(ctx, listTimeEntries, orgID, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying time entries: %w", err)
	}
	defer rows.Close()

	entries := []db_models.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning time entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entry rows: %w", err)
	}
	return entries, nil
}
