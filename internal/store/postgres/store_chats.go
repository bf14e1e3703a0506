package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const chatColumns = `id, organization_id, user_id, title, chat_data, feedback, status, created_at, updated_at`

func scanChat(row pgx.Row) (*db_models.Chat, error) {
	var chat db_models.Chat
	var data []byte
	if err := row.Scan(
		&chat.ID,
		&chat.OrganizationID,
		&chat.UserID,
		&chat.Title,
		&data,
		&chat.Feedback,
		&chat.Status,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &chat.Messages); err != nil {
		return nil, fmt.Errorf("failed to parse chat data for %s: %w", chat.ID, err)
	}
	return &chat, nil
}

const createChat = `-- name: CreateChat :one
INSERT INTO chats (
    id, organization_id, user_id, title, chat_data, status
) VALUES (
    $1, $2, $3, $4, $5, 'ACTIVE'
)
RETURNING ` + chatColumns + `;
`

func (s *PostgresStore) CreateChat(ctx context.Context, arg store.CreateChatParams) (*db_models.Chat, error) {
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	msgs := arg.Messages
	if msgs == nil {
		msgs = []db_models.ChatMessage{}
	}
	chatData, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat data: %w", err)
	}

	chat, err := scanChat(s.db.QueryRow(ctx, createChat, id, arg.OrganizationID, arg.UserID, arg.Title, chatData))
	if err != nil {
		s.logger.Error("CreateChat failed", zap.Stringer("org_id", arg.OrganizationID), zap.Error(err))
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}
	return chat, nil
}

const getChatByID = `-- name: GetChatByID :one
SELECT ` + chatColumns + `
FROM chats
WHERE id = $1 AND organization_id = $2;
`

func (s *PostgresStore) GetChatByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*db_models.Chat, error) {
	chat, err := scanChat(s.db.QueryRow(ctx, getChatByID, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}
	return chat, nil
}

const listChatsByUser = `-- name: ListChatsByUser :many
SELECT ` + chatColumns + `
FROM chats
WHERE organization_id = $1 AND user_id = $2
ORDER BY updated_at DESC
LIMIT $3 OFFSET $4;
`

func (s *PostgresStore) ListChatsByUser(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]db_models.Chat, error) {
	rows, err := s.db.Query(ctx, listChatsByUser, orgID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	chats := []db_models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chats = append(chats, *chat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}
	return chats, nil
}

const appendChatData = `-- name: AppendChatData :exec
UPDATE chats
SET chat_data = chat_data || $1::jsonb, updated_at = NOW()
WHERE id = $2 AND organization_id = $3;
`

// AddMessagesToChat appends messages to the chat_data JSONB array in one statement.
func (s *PostgresStore) AddMessagesToChat(ctx context.Context, chatID uuid.UUID, orgID uuid.UUID, messages ...db_models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat messages: %w", err)
	}

	tag, err := s.db.Exec(ctx, appendChatData, data, chatID, orgID)
	if err != nil {
		return fmt.Errorf("failed to update chat data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateChatFeedback updates the feedback value of a chat.
func (s *PostgresStore) UpdateChatFeedback(ctx context.Context, chatID uuid.UUID, feedback int8, orgID uuid.UUID) error {
	if feedback < -1 || feedback > 1 {
		return fmt.Errorf("invalid feedback value: %d, must be -1, 0, or 1", feedback)
	}

	const updateFeedback = `
		UPDATE chats
		SET feedback = $1, updated_at = NOW()
		WHERE id = $2 AND organization_id = $3;
	`

	tag, err := s.db.Exec(ctx, updateFeedback, feedback, chatID, orgID)
	if err != nil {
		return fmt.Errorf("failed to update chat feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
