package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/handlers"
	"github.com/clawguard/clawguard/internal/audit"
)

type statsRepository struct {
	fakeRepository
	entries []audit.Entry
	stats   audit.Stats
}

func (s *statsRepository) QueryEvents(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	return s.entries, nil
}

func (s *statsRepository) GetStats(ctx context.Context) (audit.Stats, error) {
	return s.stats, nil
}

func TestAuditHandlerQueryReturnsEntries(t *testing.T) {
	repo := &statsRepository{entries: []audit.Entry{{ID: 1, Action: "BLOCK"}, {ID: 2, Action: "ALLOW"}}}
	h := handlers.NewAuditHandler(repo, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?limit=10", nil)
	rec := httptest.NewRecorder()
	h.QueryAudit(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []audit.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}

func TestDashboardHandlerStats(t *testing.T) {
	c, repo := newTestContainer(t)
	stats := &statsRepository{stats: audit.Stats{TotalScans: 5}}
	c.AuditRepo = stats
	_ = repo

	h := handlers.NewDashboardHandler(c, zaptest.NewLogger(t))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got audit.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.TotalScans)
}

func TestDashboardHandlerPolicyReturnsActivePolicy(t *testing.T) {
	c, _ := newTestContainer(t)
	h := handlers.NewDashboardHandler(c, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/policy", nil)
	rec := httptest.NewRecorder()
	h.Policy(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "default_action")
}

func TestDashboardHandlerPatternsIncludesBuiltins(t *testing.T) {
	c, _ := newTestContainer(t)
	h := handlers.NewDashboardHandler(c, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/patterns", nil)
	rec := httptest.NewRecorder()
	h.Patterns(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aws_access_key_id")
}
