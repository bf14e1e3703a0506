package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadGateway, "all LLM providers failed")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Error: "upstream_failed", Message: "all LLM providers failed"}, body)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "not_found", errorCode(http.StatusNotFound))
	assert.Equal(t, "internal_error", errorCode(http.StatusInternalServerError))
	assert.Equal(t, "error", errorCode(http.StatusTeapot))
}
