package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triagedesk/internal/model"
	"triagedesk/internal/service"
)

const testSecret = "test-secret"

type testEnv struct {
	router *Router
	store  *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	messages := &fakeMessages{store: store}
	profiles := &fakeProfiles{store: store}

	logger := zap.NewNop()
	triageService := service.NewTriageService(store, messages, profiles, nil, logger)
	assignmentService := service.NewAssignmentService(messages, &fakeAssignments{store: store}, logger)
	authService := service.NewAuthService(&fakeAgents{store: store}, testSecret)
	cannedService := service.NewCannedService(&fakeCanned{store: store}, nil, logger)

	router := NewRouter(
		NewAuthHandler(authService),
		NewMessageHandler(triageService, messages),
		NewAssignmentHandler(assignmentService),
		NewCustomerHandler(triageService, store, profiles, messages),
		NewCannedHandler(cannedService),
		testSecret,
	)

	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.Engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/register", "", gin.H{
		"email": "agent@example.com", "name": "Agent One", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/login", "", gin.H{
		"email": "agent@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/messages", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitIsPublic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"customer_email": "jane@example.com",
		"content":        "When will my loan be disbursed?? URGENT",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	msg := decode[model.Message](t, w)
	assert.Equal(t, 100, msg.UrgencyScore)
	assert.Equal(t, model.MessageTypeCustomer, msg.MessageType)
}

func TestSubmitValidationError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"customer_email": "jane@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[map[string]string](t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
}

func TestImportReturnsAggregate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages/import", token, gin.H{
		"records": []gin.H{
			{"customer_email": "a@example.com", "content": "first"},
			{"customer_email": "", "content": "no email"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	result := decode[service.ImportResult](t, w)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Errors, 1)
}

func TestImportRejectsEmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages/import", token, gin.H{"records": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimAndUnclaim(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"customer_email": "jane@example.com", "content": "help please",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[model.Message](t, w)

	w = env.do(t, http.MethodPost, "/api/messages/"+msg.ID+"/assign", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	a := decode[model.Assignment](t, w)
	assert.Equal(t, msg.ID, a.MessageID)
	assert.Equal(t, "Agent One", a.AgentName, "name comes from the token")
	assert.Equal(t, "claimed", a.Status)

	w = env.do(t, http.MethodDelete, "/api/messages/"+msg.ID+"/assign", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Idempotent.
	w = env.do(t, http.MethodDelete, "/api/messages/"+msg.ID+"/assign", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClaimUnknownMessageIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages/nope/assign", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decode[map[string]string](t, w)
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestDashboardListsCustomerMessages(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	for _, content := range []string{"first", "second"} {
		w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
			"customer_email": "jane@example.com", "content": content,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []model.DashboardMessage `json:"messages"`
		Count    int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "jane@example.com", resp.Messages[0].CustomerEmail)
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodGet, "/api/messages/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownMessageIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodGet, "/api/messages/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReplyFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"customer_email": "jane@example.com", "content": "question",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[model.Message](t, w)

	w = env.do(t, http.MethodPost, "/api/customers/"+msg.CustomerID+"/reply", token, gin.H{
		"content": "Answer inbound.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	reply := decode[model.Message](t, w)
	assert.Equal(t, model.MessageTypeAgent, reply.MessageType)
	require.NotNil(t, reply.AgentID)

	// Conversation now holds both sides.
	w = env.do(t, http.MethodGet, "/api/customers/"+msg.CustomerID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conv struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.Equal(t, 2, conv.Count)
}

func TestReplyToUnknownCustomerIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/customers/nope/reply", token, gin.H{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"customer_email": "jane@example.com", "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[model.Message](t, w)

	loan := "approved"
	env.store.profiles[msg.CustomerID] = &model.CustomerProfile{
		ID: "prof-1", CustomerID: msg.CustomerID, AccountStatus: "active", LoanStatus: &loan,
	}

	w = env.do(t, http.MethodGet, "/api/customers/"+msg.CustomerID+"/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[model.CustomerProfile](t, w)
	assert.Equal(t, "active", profile.AccountStatus)

	w = env.do(t, http.MethodGet, "/api/customers/nobody/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCannedMessages(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.store.canned = []model.CannedMessage{
		{ID: "1", Title: "Greeting", Content: "Hello!", Category: "general"},
		{ID: "2", Title: "Loan status", Content: "In review.", Category: "loans"},
	}

	w := env.do(t, http.MethodGet, "/api/canned-messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	w = env.do(t, http.MethodGet, "/api/canned-messages?grouped=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	grouped := decode[map[string][]model.CannedMessage](t, w)
	assert.Len(t, grouped, 2)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
