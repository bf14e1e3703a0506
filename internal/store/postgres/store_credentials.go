package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Helper struct for JSONB storage of encrypted data
type encryptedDataJSON struct {
	Data string `json:"data"` // Base64 encoded encrypted bytes
}

const credentialColumns = `id, organization_id, service_type, credential_name, encrypted_credentials, status, priority, created_at, updated_at`

func encodeSealed(sealed []byte) ([]byte, error) {
	return json.Marshal(encryptedDataJSON{Data: base64.StdEncoding.EncodeToString(sealed)})
}

func decodeSealed(stored []byte) ([]byte, error) {
	var wrapped encryptedDataJSON
	if err := json.Unmarshal(stored, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to process stored encrypted credentials: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(wrapped.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored encrypted credentials: %w", err)
	}
	return raw, nil
}

func scanCredential(row pgx.Row) (*db_models.IntegrationCredential, error) {
	cred := &db_models.IntegrationCredential{}
	var stored []byte
	if err := row.Scan(
		&cred.ID,
		&cred.OrganizationID,
		&cred.ServiceType,
		&cred.CredentialName,
		&stored,
		&cred.Status,
		&cred.Priority,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, err
	}
	raw, err := decodeSealed(stored)
	if err != nil {
		return nil, fmt.Errorf("credential %s: %w", cred.ID, err)
	}
	cred.EncryptedCredentials = raw
	return cred, nil
}

func collectCredentials(rows pgx.Rows) ([]db_models.IntegrationCredential, error) {
	defer rows.Close()
	credentials := []db_models.IntegrationCredential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning integration credential: %w", err)
		}
		credentials = append(credentials, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error after listing integration credentials: %w", err)
	}
	return credentials, nil
}

// CreateIntegrationCredential inserts a new encrypted credential record.
func (s *PostgresStore) CreateIntegrationCredential(ctx context.Context, arg store.CreateIntegrationCredentialParams) (*db_models.IntegrationCredential, error) {
	query := `
        INSERT INTO integration_credentials (id, organization_id, service_type, credential_name, encrypted_credentials, status, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + credentialColumns

	jsonBytes, err := encodeSealed(arg.EncryptedCredentials)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare encrypted credentials for storage: %w", err)
	}

	cred, err := scanCredential(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.OrganizationID,
		arg.ServiceType,
		arg.CredentialName,
		jsonBytes,
		arg.Status,
		arg.Priority,
	))
	if err != nil {
		s.logger.Error("CreateIntegrationCredential failed", zap.Stringer("org_id", arg.OrganizationID), zap.Error(err))
		return nil, fmt.Errorf("database error creating integration credential: %w", err)
	}

	s.logger.Debug("Inserted credential", zap.Stringer("credential_id", cred.ID), zap.String("service_type", arg.ServiceType))
	return cred, nil
}

// GetIntegrationCredentialByID retrieves a credential ensuring it belongs to the org.
func (s *PostgresStore) GetIntegrationCredentialByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*db_models.IntegrationCredential, error) {
	query := `
        SELECT ` + credentialColumns + `
        FROM integration_credentials
        WHERE id = $1 AND organization_id = $2`

	cred, err := scanCredential(s.db.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("GetIntegrationCredentialByID failed", zap.Stringer("credential_id", id), zap.Error(err))
		return nil, fmt.Errorf("database error fetching integration credential: %w", err)
	}
	return cred, nil
}

// ListIntegrationCredentialsByOrg lists credentials for an organization, optionally filtering by type.
func (s *PostgresStore) ListIntegrationCredentialsByOrg(ctx context.Context, orgID uuid.UUID, serviceType *string) ([]db_models.IntegrationCredential, error) {
	query := `
        SELECT ` + credentialColumns + `
        FROM integration_credentials
        WHERE organization_id = $1`

	args := []interface{}{orgID}
	if serviceType != nil && *serviceType != "" {
		query += " AND service_type = $2"
		args = append(args, *serviceType)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("ListIntegrationCredentialsByOrg failed", zap.Stringer("org_id", orgID), zap.Error(err))
		return nil, fmt.Errorf("database error listing integration credentials: %w", err)
	}
	return collectCredentials(rows)
}

func (s *PostgresStore) ListActiveCredentials(ctx context.Context, orgID uuid.UUID, serviceTypes []string) ([]db_models.IntegrationCredential, error) {
	query := `
        SELECT ` + credentialColumns + `
        FROM integration_credentials
        WHERE organization_id = $1 AND status = 'ACTIVE' AND service_type = ANY($2)
        ORDER BY priority ASC, created_at ASC`

	rows, err := s.db.Query(ctx, query, orgID, serviceTypes)
	if err != nil {
		s.logger.Error("ListActiveCredentials failed", zap.Stringer("org_id", orgID), zap.Error(err))
		return nil, fmt.Errorf("database error listing active credentials: %w", err)
	}
	return collectCredentials(rows)
}

// UpdateIntegrationCredentialStatus updates the status of a specific credential.
func (s *PostgresStore) UpdateIntegrationCredentialStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, status string) error {
	query := `
        UPDATE integration_credentials
        SET status = $1, updated_at = now()
        WHERE id = $2 AND organization_id = $3`

	cmdTag, err := s.db.Exec(ctx, query, status, id, orgID)
	if err != nil {
		return fmt.Errorf("database error updating credential status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	s.logger.Debug("Updated credential status", zap.Stringer("credential_id", id), zap.String("status", status))
	return nil
}

// DeleteIntegrationCredential deletes a credential ensuring it belongs to the org.
func (s *PostgresStore) DeleteIntegrationCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	query := `DELETE FROM integration_credentials WHERE id = $1 AND organization_id = $2`

	cmdTag, err := s.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("database error deleting integration credential: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
