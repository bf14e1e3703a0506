package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger.Named("store")}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Info("Schema applied")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	query := `
		SELECT id, organization_id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1`

	user := &db_models.User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.OrganizationID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("GetUserByEmail failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	query := `
		INSERT INTO users (id, organization_id, email, hashed_password)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.OrganizationID,
		user.Email,
		user.HashedPassword,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrConflict)
		}
		s.logger.Error("CreateUser failed", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("database error creating user: %w", err)
	}

	s.logger.Debug("Inserted user", zap.Stringer("user_id", user.ID), zap.Stringer("org_id", user.OrganizationID))
	return nil
}

// CreateOrganization inserts a new organization record into the database.
func (s *PostgresStore) CreateOrganization(ctx context.Context, org *db_models.Organization) error {
	query := `
		INSERT INTO organizations (id, name)
		VALUES ($1, $2)`

	if _, err := s.db.Exec(ctx, query, org.ID, org.Name); err != nil {
		s.logger.Error("CreateOrganization failed", zap.String("name", org.Name), zap.Error(err))
		return fmt.Errorf("database error creating organization: %w", err)
	}

	s.logger.Debug("Inserted organization", zap.Stringer("org_id", org.ID))
	return nil
}
