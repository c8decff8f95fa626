package club

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/middleware"
	"github.com/platinummonkey/gatehouse/pkg/notification"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/rbac"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

const serviceKey = "club-service-key"

type clubEnv struct {
	router *mux.Router
	store  *session.MemoryStore
	sender *notification.MockSender
	disp   *notification.Dispatcher
}

func newClubEnv(t *testing.T) *clubEnv {
	t.Helper()

	sessionCfg := &session.Config{HeaderName: session.DefaultHeaderName, TTL: time.Hour}
	store, err := session.NewMemoryStore(128, sessionCfg, "")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	projectCfg, err := auth.NewProjectConfig(ProjectID, sessionCfg,
		&auth.SourceConfig{Source: SourceAppAndroid, Scheme: auth.SchemeSessionToken},
		&auth.SourceConfig{Source: SourceAppIOS, Scheme: auth.SchemeSessionToken},
		&auth.SourceConfig{Source: SourceBackendService, Scheme: auth.SchemeAPIKey, APIKey: serviceKey},
	)
	require.NoError(t, err)

	roles := rbac.NewRegistry()
	require.NoError(t, roles.Register(ProjectID, UserTypeUser, rbac.NewRoleSet(RoleAdmin, RoleMember)))

	sources := auth.NewSourceRegistry()
	sources.Register(SourceAppAndroid, auth.SchemeSessionToken)
	sources.Register(SourceAppIOS, auth.SchemeSessionToken)
	sources.Register(SourceBackendService, auth.SchemeAPIKey)

	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	engine, err := auth.NewEngine(
		[]auth.CredentialScheme{
			auth.NewAPIKeyScheme(),
			auth.NewSessionTokenScheme(store, sessionCfg.HeaderName),
		},
		sources, roles, []*auth.ProjectConfig{projectCfg}, logger)
	require.NoError(t, err)

	catalogDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(catalogDir, "en.yaml"), []byte(`
meeting:
  title: "Club meeting"
  body: "See you at {{.Place}}"
`), 0o644))
	catalog, err := notification.LoadCatalog(catalogDir)
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	sender := notification.NewMockSender()
	disp := notification.NewDispatcher(context.Background(), sender, nil, 2)

	router := mux.NewRouter()
	RegisterRoutes(router, &Handlers{
		Authn:      middleware.NewAuthenticator(engine, logger),
		Dispatcher: disp,
		Catalog:    catalog,
		Logger:     logger,
	})

	return &clubEnv{router: router, store: store, sender: sender, disp: disp}
}

// createSession mints a session for a club user with the given roles
func (e *clubEnv) createSession(t *testing.T, source auth.Source, roles ...string) string {
	t.Helper()
	record := &session.Record{
		ID:       uuid.New().String(),
		Project:  ProjectID,
		Source:   string(source),
		UserID:   uuid.New().String(),
		UserType: string(UserTypeUser),
		Roles:    roles,
	}
	require.NoError(t, e.store.Create(context.Background(), record))
	return record.ID
}

func (e *clubEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServicePing(t *testing.T) {
	env := newClubEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/club/ping", nil)
	req.Header.Set(auth.SourceHeaderName, string(SourceBackendService))
	req.Header.Set(auth.APIKeyHeaderName, serviceKey)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := envelope(t, rec)
	assert.Equal(t, "ok", body["code"])
}

func TestServicePingRejectsWrongKey(t *testing.T) {
	env := newClubEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/club/ping", nil)
	req.Header.Set(auth.SourceHeaderName, string(SourceBackendService))
	req.Header.Set(auth.APIKeyHeaderName, "not-the-key")

	rec := env.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(auth.ReasonInvalidCredential), envelope(t, rec)["code"])
}

func TestUserRoutesByRole(t *testing.T) {
	env := newClubEnv(t)

	adminSession := env.createSession(t, SourceAppAndroid, "admin")
	memberSession := env.createSession(t, SourceAppIOS, "member")

	get := func(path string, sessionID string, source auth.Source) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(auth.SourceHeaderName, string(source))
		req.Header.Set(session.DefaultHeaderName, sessionID)
		return env.do(req)
	}

	// /me passes for any role
	require.Equal(t, http.StatusOK, get("/club/me", adminSession, SourceAppAndroid).Code)
	require.Equal(t, http.StatusOK, get("/club/me", memberSession, SourceAppIOS).Code)

	// /members requires member
	require.Equal(t, http.StatusOK, get("/club/members", memberSession, SourceAppIOS).Code)
	rec := get("/club/members", adminSession, SourceAppAndroid)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(auth.ReasonInsufficientRole), envelope(t, rec)["code"])
}

func TestMeReportsResolvedIdentity(t *testing.T) {
	env := newClubEnv(t)
	sessionID := env.createSession(t, SourceAppAndroid, "admin", "member")

	req := httptest.NewRequest(http.MethodGet, "/club/me", nil)
	req.Header.Set(auth.SourceHeaderName, string(SourceAppAndroid))
	req.Header.Set(session.DefaultHeaderName, sessionID)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "user", data["user_type"])
	assert.Equal(t, string(SourceAppAndroid), data["source"])
	assert.ElementsMatch(t, []interface{}{"admin", "member"}, data["roles"])
}

func TestAnnounceRequiresAdmin(t *testing.T) {
	env := newClubEnv(t)
	memberSession := env.createSession(t, SourceAppIOS, "member")

	payload, _ := json.Marshal(announceRequest{
		Event:     "meeting",
		Receivers: []string{"u1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/club/announcements", bytes.NewReader(payload))
	req.Header.Set(auth.SourceHeaderName, string(SourceAppIOS))
	req.Header.Set(session.DefaultHeaderName, memberSession)

	rec := env.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnnounceDispatchesNotifications(t *testing.T) {
	env := newClubEnv(t)
	adminSession := env.createSession(t, SourceAppAndroid, "admin")

	payload, _ := json.Marshal(announceRequest{
		Event:     "meeting",
		Receivers: []string{"u1", "u2"},
		Data:      map[string]string{"Place": "clubhouse"},
	})
	req := httptest.NewRequest(http.MethodPost, "/club/announcements", bytes.NewReader(payload))
	req.Header.Set(auth.SourceHeaderName, string(SourceAppAndroid))
	req.Header.Set(session.DefaultHeaderName, adminSession)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.disp.Shutdown(2*time.Second))
	sent := env.sender.Sent()
	require.Len(t, sent, 2, "mock channel takes one receiver per request")
	assert.Equal(t, "Club meeting", sent[0].Title)
	assert.Equal(t, "See you at clubhouse", sent[0].Body)
}

func TestAnnounceRejectsUnknownEvent(t *testing.T) {
	env := newClubEnv(t)
	adminSession := env.createSession(t, SourceAppAndroid, "admin")

	payload, _ := json.Marshal(announceRequest{Event: "nope", Receivers: []string{"u1"}})
	req := httptest.NewRequest(http.MethodPost, "/club/announcements", bytes.NewReader(payload))
	req.Header.Set(auth.SourceHeaderName, string(SourceAppAndroid))
	req.Header.Set(session.DefaultHeaderName, adminSession)

	rec := env.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
