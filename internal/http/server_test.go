package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Learn-Trical-23/EE-24/internal/auth"
	"github.com/Learn-Trical-23/EE-24/internal/config"
	"github.com/Learn-Trical-23/EE-24/internal/db/memstore"
	"github.com/Learn-Trical-23/EE-24/internal/events"
	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
	"github.com/Learn-Trical-23/EE-24/internal/jobs"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
	"github.com/Learn-Trical-23/EE-24/internal/model"
	"github.com/Learn-Trical-23/EE-24/internal/profiles"
	"github.com/Learn-Trical-23/EE-24/internal/requests"
)

const unknownID = "00000000-0000-0000-0000-000000000000"

type testEnv struct {
	store   *memstore.Store
	tokens  *auth.Issuer
	metrics *metrics.Metrics
	router  http.Handler
}

type envOptions struct {
	authOpts  []auth.Option
	eventOpts []events.Option
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	cfg := config.Config{
		HTTPAddr:           ":0",
		JWTSecret:          "test-secret",
		JWTIssuer:          "test-issuer",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: "*",
	}
	logger := zerolog.Nop()
	store := memstore.New()
	m := metrics.New()
	tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, opts.authOpts...)
	require.NoError(t, err)

	server := NewServer(cfg, logger, Deps{
		Tokens:    tokens,
		Directory: profiles.NewDirectory(store, logger),
		Requests:  requests.NewWorkflow(store, logger),
		Events:    events.NewService(store, eventsync.NopPublisher{}, m, logger, opts.eventOpts...),
		Cleanup:   jobs.NewCleanup(store, nil, m, logger, time.Minute, time.Second),
		Catalog:   store,
		Metrics:   m,
	})
	return &testEnv{store: store, tokens: tokens, metrics: m, router: server.Router()}
}

func (e *testEnv) profile(t *testing.T, email string, role model.Role) (model.Profile, string) {
	t.Helper()
	p, err := e.store.UpsertProfile(context.Background(), email, model.DisplayNameFromEmail(email), role)
	require.NoError(t, err)
	token, err := e.tokens.Issue(p.ID, p.Role)
	require.NoError(t, err)
	return p, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["date"])
	require.NoError(t, err)
}

func TestLoginProvisionsMemberAndIssuesToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": " Ana@School.test ", "password": "ignored"})
	require.Equal(t, http.StatusOK, rec.Code)
	var first loginResponse
	decodeBody(t, rec, &first)
	require.Equal(t, "Ana", first.User.Name)
	require.Equal(t, model.RoleMember, first.User.Role)

	claims, err := env.tokens.Verify(context.Background(), first.Token)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, claims.UserID())

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@school.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	var second loginResponse
	decodeBody(t, rec, &second)
	require.Equal(t, first.User.ID, second.User.ID)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_email", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.c", "extra": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", errorCode(t, rec))
}

func TestRoleGate(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, memberToken := env.profile(t, "member@school.test", model.RoleMember)
	admin, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)
	event := map[string]string{"title": "Midterm", "datetime": "2099-01-01T09:00:00Z", "kind": "quiz"}

	rec := env.do(t, http.MethodPost, "/api/events", "", event)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_token", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/events", "garbage", event)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/events", memberToken, event)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/events", adminToken, event)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Data model.Event `json:"data"`
	}
	decodeBody(t, rec, &created)
	require.Equal(t, "Midterm", created.Data.Title)
	require.NotNil(t, created.Data.CreatedBy)
	require.Equal(t, admin.ID, *created.Data.CreatedBy)

	rec = env.do(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/users", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/subjects", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/subjects", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	env := newTestEnv(t, envOptions{authOpts: []auth.Option{auth.WithNowFunc(func() time.Time { return issuedAt })}})
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)

	fresh := newTestEnv(t, envOptions{})
	rec := fresh.do(t, http.MethodGet, "/api/subjects", adminToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", errorCode(t, rec))
}

func TestEventsLifecycle(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)

	rec := env.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/events", adminToken, map[string]string{"title": "Final", "datetime": "2099-06-01T09:00"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events", adminToken, map[string]string{"title": "Midterm", "datetime": "2099-01-01T09:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Data model.Event `json:"data"`
	}
	decodeBody(t, rec, &created)
	require.Equal(t, model.KindOther, created.Data.Kind)
	require.Nil(t, created.Data.MentionDate)

	var listed struct {
		Data []model.Event `json:"data"`
	}
	rec = env.do(t, http.MethodGet, "/api/events", "", nil)
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Data, 2)
	require.Equal(t, "Midterm", listed.Data[0].Title)
	require.Equal(t, "Final", listed.Data[1].Title)

	rec = env.do(t, http.MethodPut, "/api/events/"+created.Data.ID, adminToken, map[string]string{"title": "Midterm", "datetime": "2099-01-02T09:00:00Z", "module": "Math"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &created)
	require.Equal(t, "Math", created.Data.Module)

	rec = env.do(t, http.MethodPut, "/api/events/"+unknownID, adminToken, map[string]string{"title": "x", "datetime": "2099-01-02T09:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":null}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/events/not-a-uuid", adminToken, map[string]string{"title": "x", "datetime": "2099-01-02T09:00:00Z"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_id", errorCode(t, rec))

	rec = env.do(t, http.MethodDelete, "/api/events/"+created.Data.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())
	rec = env.do(t, http.MethodDelete, "/api/events/"+unknownID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/events", "", nil)
	decodeBody(t, rec, &listed)
	require.Len(t, listed.Data, 1)
}

func TestEventValidationErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)

	cases := map[string]map[string]string{
		"title_required": {"title": "", "datetime": "2099-01-01T09:00:00Z"},
		"invalid_year":   {"title": "x", "datetime": "0999-01-01T09:00:00Z"},
		"invalid_kind":   {"title": "x", "datetime": "2099-01-01T09:00:00Z", "kind": "exam"},
	}
	for code, body := range cases {
		rec := env.do(t, http.MethodPost, "/api/events", adminToken, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, code)
		require.Equal(t, code, errorCode(t, rec))
	}
}

func TestEventsListDegradesOnStorageFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.store.Fail(memstore.OpListEvents, errors.New("db down"))

	rec := env.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get(eventsync.DegradedHeader))
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())

	strict := newTestEnv(t, envOptions{eventOpts: []events.Option{events.WithDegrade(false)}})
	strict.store.Fail(memstore.OpListEvents, errors.New("db down"))
	rec = strict.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "events_unavailable", errorCode(t, rec))
}

func TestAdminRequestFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	member, _ := env.profile(t, "member@school.test", model.RoleMember)
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/request-admin", "", map[string]string{"userId": member.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"pending"}`, rec.Body.String())
	}
	require.Equal(t, 1, env.store.PendingCount(member.ID))

	rec := env.do(t, http.MethodPost, "/api/auth/request-admin", "", map[string]string{"userId": unknownID})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "user_not_found", errorCode(t, rec))
	rec = env.do(t, http.MethodPost, "/api/auth/request-admin", "", map[string]string{"userId": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/requests", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []pendingRequestSummary
	decodeBody(t, rec, &pending)
	require.Len(t, pending, 1)
	require.Equal(t, member.Email, pending[0].Email)
	require.Equal(t, "member", pending[0].FullName)

	rec = env.do(t, http.MethodPost, "/api/requests/"+pending[0].ID+"/approve", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"approved"}`, rec.Body.String())

	promoted, err := env.store.GetProfile(context.Background(), member.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, promoted.Role)

	rec = env.do(t, http.MethodPost, "/api/requests/"+pending[0].ID+"/reject", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"approved"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/requests", superToken, nil)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestApproveRollsBackWhenPromotionFails(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	member, _ := env.profile(t, "member@school.test", model.RoleMember)
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/request-admin", "", map[string]string{"userId": member.ID}).Code)

	var pending []pendingRequestSummary
	decodeBody(t, env.do(t, http.MethodGet, "/api/requests", superToken, nil), &pending)
	require.Len(t, pending, 1)

	env.store.Fail(memstore.OpPromoteToAdmin, errors.New("constraint violated"))
	rec := env.do(t, http.MethodPost, "/api/requests/"+pending[0].ID+"/approve", superToken, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_error", errorCode(t, rec))

	status, ok := env.store.RequestStatus(pending[0].ID)
	require.True(t, ok)
	require.Equal(t, model.RequestPending, status)
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	member, _ := env.profile(t, "member@school.test", model.RoleMember)
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)

	rec := env.do(t, http.MethodPost, "/api/users/"+member.ID+"/role", superToken, map[string]string{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Invalid role"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/users/"+member.ID+"/role", superToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/admins", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var admins []profileSummary
	decodeBody(t, rec, &admins)
	require.Len(t, admins, 1)
	require.Equal(t, member.ID, admins[0].ID)

	rec = env.do(t, http.MethodDelete, "/api/admins/"+member.ID, superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	demoted, err := env.store.GetProfile(context.Background(), member.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleMember, demoted.Role)

	rec = env.do(t, http.MethodGet, "/api/users", superToken, nil)
	var users []profileSummary
	decodeBody(t, rec, &users)
	require.Len(t, users, 2)
	require.Equal(t, "root@school.test", users[0].Email)

	rec = env.do(t, http.MethodPost, "/api/users/"+member.ID+"/revoke-tokens", superToken, nil)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	require.Equal(t, "revocation_disabled", errorCode(t, rec))
}

func TestStorageFailureIsServerError(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)
	env.store.Fail(memstore.OpListProfiles, errors.New("connection reset"))

	rec := env.do(t, http.MethodGet, "/api/users", superToken, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, "server_error", body["error"])
	require.Equal(t, "list profiles", body["message"])
}

func TestRoleChangeRevokesOutstandingTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnv(t, envOptions{authOpts: []auth.Option{auth.WithRevocationList(auth.NewRedisRevocationList(client, time.Hour))}})
	admin, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)
	_, superToken := env.profile(t, "root@school.test", model.RoleSuperAdmin)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/activity/latest", adminToken, nil).Code)

	rec := env.do(t, http.MethodDelete, "/api/admins/"+admin.ID, superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/activity/latest", adminToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_revoked", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@school.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	var relogin loginResponse
	decodeBody(t, rec, &relogin)
	require.Equal(t, model.RoleMember, relogin.User.Role)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/subjects", relogin.Token, nil).Code)

	rec = env.do(t, http.MethodPost, "/api/users/"+admin.ID+"/revoke-tokens", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = env.do(t, http.MethodGet, "/api/subjects", superToken, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "auth_unavailable", errorCode(t, rec))
}

func TestSubjects(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, memberToken := env.profile(t, "member@school.test", model.RoleMember)
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/subjects", memberToken, map[string]string{"code": "MATH1", "name": "Algebra"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/subjects", adminToken, map[string]string{"code": "PHYS1", "name": "Mechanics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/subjects", adminToken, map[string]string{"code": "MATH1", "name": "Algebra"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Subject
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPost, "/api/subjects", adminToken, map[string]string{"code": "MATH1", "name": "Again"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "subject_exists", errorCode(t, rec))
	rec = env.do(t, http.MethodPost, "/api/subjects", adminToken, map[string]string{"code": "", "name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/subjects", memberToken, nil)
	var subjects []model.Subject
	decodeBody(t, rec, &subjects)
	require.Equal(t, []string{"MATH1", "PHYS1"}, []string{subjects[0].Code, subjects[1].Code})

	rec = env.do(t, http.MethodGet, "/api/subjects/"+created.ID, memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/subjects/"+unknownID, memberToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/subjects/abc", memberToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestActivityIsCapped(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		env.store.AddActivity(model.Activity{
			ID:         fmt.Sprintf("a-%02d", i),
			Type:       "upload",
			MaterialID: fmt.Sprintf("m-%02d", i),
			Title:      "Notes",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	rec := env.do(t, http.MethodGet, "/api/activity/latest", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activity []model.Activity
	decodeBody(t, rec, &activity)
	require.Len(t, activity, activityLimit)
	require.Equal(t, "a-19", activity[0].ID)
}

func TestCleanupEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, err := env.store.InsertEvent(context.Background(), model.EventFields{Title: "old", Datetime: time.Now().Add(-time.Hour), Kind: model.KindOther}, nil)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/internal/cleanup-status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"lastRun":null,"lastRemoved":null}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/internal/run-cleanup", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var run runCleanupResponse
	decodeBody(t, rec, &run)
	require.True(t, run.OK)
	require.NotNil(t, run.Status.LastRun)
	require.Equal(t, 1, *run.Status.LastRemoved)

	env.store.Fail(memstore.OpDeleteEventsBefore, errors.New("db down"))
	rec = env.do(t, http.MethodPost, "/api/internal/run-cleanup", "", nil)
	decodeBody(t, rec, &run)
	require.False(t, run.OK)
	require.Nil(t, run.Status.LastRemoved)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", "https://campus.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://campus.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, adminToken := env.profile(t, "admin@school.test", model.RoleAdmin)
	env.do(t, http.MethodDelete, "/api/events/"+unknownID, adminToken, nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `route="/api/events/{eventID}"`), "route label missing")
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
