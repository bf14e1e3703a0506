package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	db_models "promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealedRoundTrip(t *testing.T) {
	sealed := []byte{0x00, 0xff, 0x10, 'a'}
	stored, err := encodeSealed(sealed)
	require.NoError(t, err)
	assert.True(t, json.Valid(stored))
	assert.Contains(t, string(stored), `"data":"AP8QYQ=="`)

	raw, err := decodeSealed(stored)
	require.NoError(t, err)
	assert.Equal(t, sealed, raw)

	_, err = decodeSealed([]byte(`{"data":"!!"}`))
	assert.Error(t, err)
}

func TestBuildItemQuery(t *testing.T) {
	org := uuid.New()

	query, args := buildItemQuery(org, store.ItemFilter{})
	assert.Equal(t, []interface{}{org, defaultItemLimit}, args)
	assert.True(t, strings.HasSuffix(query, "ORDER BY postdate DESC\nLIMIT $2"))

	query, args = buildItemQuery(org, store.ItemFilter{
		Type:     db_models.ItemTypeFound,
		City:     "Paris",
		Category: "phone",
		Color:    "black",
		Keyword:  "samsung",
		Limit:    500,
	})
	assert.Contains(t, query, "AND type = $2")
	assert.Contains(t, query, "AND lower(city) = lower($3)")
	assert.Contains(t, query, "AND lower(category) = lower($4)")
	assert.Contains(t, query, "AND lower(color) = lower($5)")
	assert.Contains(t, query, "description ILIKE $6 OR brand ILIKE $6 OR model ILIKE $6")
	assert.Contains(t, query, "LIMIT $7")
	assert.Equal(t, []interface{}{org, "found", "Paris", "phone", "black", "%samsung%", maxItemLimit}, args)
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"organizations", "users", "integration_credentials", "chats", "items", "time_entries"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
