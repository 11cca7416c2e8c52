package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	bantayhttp "github.com/kdelacruz/bantay/http"
	"github.com/kdelacruz/bantay/internal/middleware"
	"github.com/kdelacruz/bantay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prometheus collectors register globally; initialize them once for the
// whole test binary.
var metricsOnce sync.Once

type testServer struct {
	*bantayhttp.Server
	rules   *mock.RuleService
	records *mock.RecordService
}

func mustOpenServer(t *testing.T) *testServer {
	t.Helper()

	metricsOnce.Do(middleware.InitMetrics)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := &mock.RuleService{}
	records := &mock.RecordService{}

	s := bantayhttp.NewServer(bantayhttp.Config{
		Addr:          "127.0.0.1:0",
		Domain:        "localhost",
		Logger:        logger,
		RuleService:   rules,
		RecordService: records,
		Queue:         &mock.Queue{},
	})
	require.NoError(t, s.Open())
	t.Cleanup(func() {
		s.Close(context.Background())
	})

	return &testServer{Server: s, rules: rules, records: records}
}

func doRequest(t *testing.T, method, url string, body []byte, officer *bantay.Officer) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if officer != nil {
		req.Header.Set("X-Officer-Id", officer.ID.String())
		req.Header.Set("X-Officer-Role", string(officer.Role))
		req.Header.Set("X-Officer-Name", officer.Name)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_HealthCheck(t *testing.T) {
	s := mustOpenServer(t)

	resp := doRequest(t, http.MethodGet, s.URL()+"/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RequiresOfficerHeader(t *testing.T) {
	s := mustOpenServer(t)

	resp := doRequest(t, http.MethodGet, s.URL()+"/api/rules", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_CreateRule_RequiresAdmin(t *testing.T) {
	s := mustOpenServer(t)

	body, _ := json.Marshal(map[string]any{
		"name":          "Overloading passengers",
		"penalty_type":  "fine",
		"applicable_to": "driver",
	})

	enforcer := &bantay.Officer{ID: uuid.New(), Role: bantay.OfficerRoleEnforcer, Name: "R. Santos"}
	resp := doRequest(t, http.MethodPost, s.URL()+"/api/rules", body, enforcer)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_CreateRule(t *testing.T) {
	s := mustOpenServer(t)

	var created *bantay.ViolationRule
	s.rules.CreateRuleFn = func(ctx context.Context, rule *bantay.ViolationRule) error {
		rule.ID = uuid.New()
		created = rule
		return nil
	}

	body, _ := json.Marshal(map[string]any{
		"name":           "Overloading passengers",
		"penalty_type":   "fine",
		"penalty_amount": 750,
		"applicable_to":  "driver",
	})

	admin := &bantay.Officer{ID: uuid.New(), Role: bantay.OfficerRoleAdmin, Name: "M. Reyes"}
	resp := doRequest(t, http.MethodPost, s.URL()+"/api/rules", body, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NotNil(t, created)
	assert.Equal(t, "Overloading passengers", created.Name)
	assert.Equal(t, 750.0, created.PenaltyAmount)
	assert.Equal(t, admin.ID, created.CreatedBy)
	// Priority defaults when the request omits it.
	assert.Equal(t, bantay.PriorityMedium, created.EnforcementPriority)
	assert.Regexp(t, `^RL-\d{8}-[0-9A-F]{6}$`, created.Code)
}

func TestServer_CreateRule_ValidationError(t *testing.T) {
	s := mustOpenServer(t)

	body, _ := json.Marshal(map[string]any{
		"name":          "No",
		"penalty_type":  "community_service",
		"applicable_to": "driver",
	})

	admin := &bantay.Officer{ID: uuid.New(), Role: bantay.OfficerRoleAdmin, Name: "M. Reyes"}
	resp := doRequest(t, http.MethodPost, s.URL()+"/api/rules", body, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_GetRule_NotFound(t *testing.T) {
	s := mustOpenServer(t)

	s.rules.FindRuleByIDFn = func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
		return nil, bantay.NotFound("Rule not found")
	}

	officer := &bantay.Officer{ID: uuid.New(), Role: bantay.OfficerRoleEnforcer, Name: "R. Santos"}
	resp := doRequest(t, http.MethodGet, s.URL()+"/api/rules/"+uuid.NewString(), nil, officer)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "not_found", payload.Error)
}

func TestServer_ListRules(t *testing.T) {
	s := mustOpenServer(t)

	s.rules.FindRulesFn = func(ctx context.Context, filter bantay.RuleFilter) ([]*bantay.ViolationRule, int, error) {
		assert.Equal(t, 0, filter.Offset)
		assert.Equal(t, 20, filter.Limit)
		return []*bantay.ViolationRule{{ID: uuid.New(), Name: "Out-of-line operation"}}, 1, nil
	}

	officer := &bantay.Officer{ID: uuid.New(), Role: bantay.OfficerRoleEnforcer, Name: "R. Santos"}
	resp := doRequest(t, http.MethodGet, s.URL()+"/api/rules", nil, officer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data  []*bantay.ViolationRule `json:"data"`
		Total int                     `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 1, payload.Total)
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "Out-of-line operation", payload.Data[0].Name)
}
