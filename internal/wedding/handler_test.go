// AngelaMos | 2026
// handler_test.go

package wedding_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/limits"
	"github.com/carterperez-dev/weddingplanner/internal/middleware"
	"github.com/carterperez-dev/weddingplanner/internal/wedding"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// fakeAuth trusts the X-Test-User header as the caller's id.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserIDKey, r.Header.Get("X-Test-User"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type testServer struct {
	router http.Handler
	repo   *memRepo
}

func newTestServer(tier limits.Tier) *testServer {
	repo := newMemRepo()
	resolver := fixedResolver{tier: tier}
	h := wedding.NewHandler(wedding.NewService(repo, resolver, trial))

	r := chi.NewRouter()
	h.RegisterRoutes(r, fakeAuth, entitlement.RequirePremium(resolver),
		entitlement.NewHandler(resolver).RegisterRoutes)

	return &testServer{router: r, repo: repo}
}

func (s *testServer) do(
	t *testing.T,
	method, target, user, body string,
) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Test-User", user)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) createWedding(t *testing.T, owner string) string {
	t.Helper()

	rec, env := s.do(t, http.MethodPost, "/weddings", owner, `{"name":"Ana & Ravi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp wedding.WeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.TrialEndsAt)
	return resp.ID
}

func TestHandler_CreateValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(limits.TierFree)

	rec, env := s.do(t, http.MethodPost, "/weddings", "owner-1", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/weddings", "owner-1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_MembershipGuard(t *testing.T) {
	t.Parallel()

	s := newTestServer(limits.TierFree)
	id := s.createWedding(t, "owner-1")

	rec, _ := s.do(t, http.MethodGet, "/weddings/"+id, "owner-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/weddings/"+id, "stranger", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = s.do(t, http.MethodGet, "/weddings/does-not-exist/entitlement", "owner-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CollaboratorQuota(t *testing.T) {
	t.Parallel()

	s := newTestServer(limits.TierFree)
	id := s.createWedding(t, "owner-1")
	path := "/weddings/" + id + "/collaborators"

	for _, user := range []string{"c1", "c2"} {
		rec, _ := s.do(t, http.MethodPost, path, "owner-1", `{"user_id":"`+user+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, path, "owner-1", `{"user_id":"c3"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PLAN_LIMIT_REACHED", env.Error.Code)
	assert.Contains(t, env.Error.Message, "2 collaborators")

	rec, env = s.do(t, http.MethodPost, path, "owner-1", `{"user_id":"c1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE", env.Error.Code)

	rec, env = s.do(t, http.MethodGet, path, "c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var members []wedding.MemberResponse
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 3)
}

func TestHandler_RemoveCollaborator(t *testing.T) {
	t.Parallel()

	s := newTestServer(limits.TierFree)
	id := s.createWedding(t, "owner-1")
	rec, _ := s.do(t, http.MethodPost, "/weddings/"+id+"/collaborators", "owner-1", `{"user_id":"c1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/weddings/"+id+"/collaborators/c1", "c1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/weddings/"+id+"/collaborators/c1", "owner-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/weddings/"+id+"/collaborators/c1", "owner-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ExportIsPremiumOnly(t *testing.T) {
	t.Parallel()

	free := newTestServer(limits.TierFree)
	id := free.createWedding(t, "owner-1")
	rec, env := free.do(t, http.MethodGet, "/weddings/"+id+"/members/export", "owner-1", "")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPGRADE_REQUIRED", env.Error.Code)

	premium := newTestServer(limits.TierPremium)
	id = premium.createWedding(t, "owner-1")
	rec, _ = premium.do(t, http.MethodGet, "/weddings/"+id+"/members/export", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "user_id,role,joined_at\nowner-1,owner,"))
}

func TestHandler_ListMine(t *testing.T) {
	t.Parallel()

	s := newTestServer(limits.TierFree)
	s.createWedding(t, "owner-1")
	s.createWedding(t, "owner-2")

	rec, env := s.do(t, http.MethodGet, "/weddings", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []wedding.WeddingResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "owner-1", list[0].OwnerID)
}
