package postgres

import (
	"context"
	"fmt"
	"strings"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultItemLimit = 20
	maxItemLimit     = 100
)

const createItem = `-- name: CreateItem :one
INSERT INTO items (
    id, organization_id, description, city, category, brand, model, color, type, condition
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING postdate;
`

func (s *PostgresStore) CreateItem(ctx context.Context, item *db_models.LostItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx, createItem,
		item.ID,
		item.OrganizationID,
		item.Description,
		item.City,
		item.Category,
		item.Brand,
		item.Model,
		item.Color,
		string(item.Type),
		item.Condition,
	).Scan(&item.PostDate)
	if err != nil {
		s.logger.Error("CreateItem failed", zap.Stringer("org_id", item.OrganizationID), zap.Error(err))
		return fmt.Errorf("database error creating item: %w", err)
	}
	s.logger.Debug("Inserted item", zap.Stringer("item_id", item.ID), zap.String("type", string(item.Type)))
	return nil
}

// buildItemQuery assembles the filtered item lookup. City, category and
// colour compare case-insensitively; newest reports come first.
func buildItemQuery(orgID uuid.UUID, f store.ItemFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT id, organization_id, description, city, category, brand, model, color, type, condition, postdate
FROM items
WHERE organization_id = $1`)
	args := []interface{}{orgID}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		fmt.Fprintf(&b, " AND "+clause, len(args))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.City != "" {
		add("lower(city) = lower($%d)", f.City)
	}
	if f.Category != "" {
		add("lower(category) = lower($%d)", f.Category)
	}
	if f.Color != "" {
		add("lower(color) = lower($%d)", f.Color)
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := len(args)
		fmt.Fprintf(&b, " AND (description ILIKE $%d OR brand ILIKE $%d OR model ILIKE $%d)", n, n, n)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultItemLimit
	}
	if limit > maxItemLimit {
		limit = maxItemLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, "\nORDER BY postdate DESC\nLIMIT $%d", len(args))
	return b.String(), args
}

func (s *PostgresStore) ListItems(ctx context.Context, orgID uuid.UUID, filter store.ItemFilter) ([]db_models.LostItem, error) {
	query, args := buildItemQuery(orgID, filter)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying items: %w", err)
	}
	defer rows.Close()

	items := []db_models.LostItem{}
	for rows.Next() {
		var it db_models.LostItem
		var typ string
		if err := rows.Scan(
			&it.ID,
			&it.OrganizationID,
			&it.Description,
			&it.City,
			&it.Category,
			&it.Brand,
			&it.Model,
			&it.Color,
			&typ,
			&it.Condition,
			&it.PostDate,
		); err != nil {
			return nil, fmt.Errorf("error scanning item row: %w", err)
		}
		it.Type = db_models.ItemType(typ)
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}
