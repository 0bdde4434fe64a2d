package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/plateful/plateful/backend/internal/config"
	"github.com/plateful/plateful/backend/internal/service"
	"github.com/plateful/plateful/backend/internal/store/memstore"
)

func newTestHandlers(t *testing.T) *APIHandlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := service.NewEngine(memstore.New(), config.Default().Engine, logger)
	return NewAPIHandlers(logger, engine)
}

func doRequest(h *APIHandlers, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.handleUsers(rec, req)
	return rec
}

func mustFollow(t *testing.T, h *APIHandlers, follower, followed string) {
	t.Helper()
	rec := doRequest(h, http.MethodPost, "/users/"+follower+"/follow", `{"targetId":"`+followed+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 following %s -> %s, got %d: %s", follower, followed, rec.Code, rec.Body.String())
	}
}

func TestHandleFollowCreated(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPost, "/users/USR-1/follow", `{"targetId":"USR-2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload relationshipResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.FollowerID != "USR-1" || payload.FollowedID != "USR-2" {
		t.Fatalf("unexpected edge endpoints: %+v", payload)
	}
	if payload.TrustWeight != 0.75 {
		t.Fatalf("expected trust weight 0.75, got %v", payload.TrustWeight)
	}
	if payload.ID == "" {
		t.Fatal("expected a relationship ID")
	}
}

func TestHandleFollowSelfRejected(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPost, "/users/USR-1/follow", `{"targetId":"USR-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleFollowDuplicateConflict(t *testing.T) {
	h := newTestHandlers(t)
	mustFollow(t, h, "USR-1", "USR-2")

	rec := doRequest(h, http.MethodPost, "/users/USR-1/follow", `{"targetId":"USR-2"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleFollowInvalidBody(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPost, "/users/USR-1/follow", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleUnfollow(t *testing.T) {
	h := newTestHandlers(t)
	mustFollow(t, h, "USR-1", "USR-2")

	rec := doRequest(h, http.MethodDelete, "/users/USR-1/follow/USR-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doRequest(h, http.MethodDelete, "/users/USR-1/follow/USR-2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for repeated unfollow, got %d", rec.Code)
	}
}

func TestHandleListFollowing(t *testing.T) {
	h := newTestHandlers(t)
	mustFollow(t, h, "USR-1", "USR-2")
	mustFollow(t, h, "USR-1", "USR-3")
	mustFollow(t, h, "USR-1", "USR-4")

	rec := doRequest(h, http.MethodGet, "/users/USR-1/following?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var page relationshipPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || !page.HasMore {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestHandleListFollowersEmpty(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodGet, "/users/USR-404/followers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for unknown user, got %d", rec.Code)
	}

	var page relationshipPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestHandleTrustScore(t *testing.T) {
	h := newTestHandlers(t)
	mustFollow(t, h, "USR-1", "USR-2")
	mustFollow(t, h, "USR-2", "USR-3")

	cases := []struct {
		path string
		want float64
	}{
		{"/users/USR-1/trust/USR-2", 0.75},
		{"/users/USR-1/trust/USR-3", 0.25},
		{"/users/USR-1/trust/USR-3?maxDepth=1", 0},
		{"/users/USR-1/trust/USR-2?upvotes=1&saves=1", 0.9},
		{"/users/USR-1/trust/USR-2?upvotes=50", 0.95},
		{"/users/USR-1/trust/USR-1", 1},
		{"/users/USR-1/trust/USR-99", 0},
	}
	for _, tc := range cases {
		rec := doRequest(h, http.MethodGet, tc.path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", tc.path, rec.Code)
		}
		var payload trustScoreResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s: failed to decode response: %v", tc.path, err)
		}
		if payload.TrustScore != tc.want {
			t.Fatalf("%s: expected score %v, got %v", tc.path, tc.want, payload.TrustScore)
		}
	}
}

func TestHandleGetReputationLazyCreate(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodGet, "/users/USR-1/reputation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload reputationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.UserID != "USR-1" || payload.VerificationLevel != "basic" {
		t.Fatalf("unexpected reputation: %+v", payload)
	}
	if payload.Specializations == nil {
		t.Fatal("expected specializations to serialize as an empty list")
	}
}

func TestHandlePatchReputationSpecializations(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPatch, "/users/USR-1/reputation", `{"specializations":["ramen","thai"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload reputationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Specializations) != 2 {
		t.Fatalf("expected 2 specializations, got %+v", payload.Specializations)
	}
}

func TestHandlePatchReputationComputedFieldForbidden(t *testing.T) {
	h := newTestHandlers(t)

	for _, body := range []string{
		`{"reputationScore":0.99}`,
		`{"verificationLevel":"expert"}`,
		`{"followers":5000}`,
	} {
		rec := doRequest(h, http.MethodPatch, "/users/USR-1/reputation", body)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected status 403, got %d", body, rec.Code)
		}
	}
}

func TestHandlePatchReputationUnknownField(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPatch, "/users/USR-1/reputation", `{"favouriteColour":"green"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleVoteUpdatesReputation(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPost, "/users/USR-1/votes", `{"upvote":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload reputationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.UpvotesReceived != 1 {
		t.Fatalf("expected 1 upvote, got %d", payload.UpvotesReceived)
	}
	if payload.ReputationScore != 0.02 {
		t.Fatalf("expected score 0.02, got %v", payload.ReputationScore)
	}
}

func TestHandleRecommendationCreated(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodPost, "/users/USR-1/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload reputationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.TotalRecommendations != 1 {
		t.Fatalf("expected 1 recommendation, got %d", payload.TotalRecommendations)
	}
}

func TestHandleNeighborhood(t *testing.T) {
	h := newTestHandlers(t)
	mustFollow(t, h, "USR-1", "USR-2")
	mustFollow(t, h, "USR-2", "USR-3")

	rec := doRequest(h, http.MethodGet, "/users/USR-1/graph?maxDepth=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload neighborhoodResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.RootID != "USR-1" || len(payload.Nodes) != 3 || len(payload.Edges) != 2 {
		t.Fatalf("unexpected neighborhood: %+v", payload)
	}
}

func TestHandleUsersMethodNotAllowed(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodDelete, "/users/USR-1/votes", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow header POST, got %q", allow)
	}
}

func TestHandleUsersUnknownResource(t *testing.T) {
	h := newTestHandlers(t)

	rec := doRequest(h, http.MethodGet, "/users/USR-1/badges", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestRouterHealthz(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memstore.New()
	engine := service.NewEngine(st, config.Default().Engine, logger)
	router := NewRouter(logger, RouterDependencies{
		Health: StoreHealthService{Store: st},
		API:    NewAPIHandlers(logger, engine),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouterRoutesUserRequests(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memstore.New()
	engine := service.NewEngine(st, config.Default().Engine, logger)
	router := NewRouter(logger, RouterDependencies{
		Health: StoreHealthService{Store: st},
		API:    NewAPIHandlers(logger, engine),
	})

	req := httptest.NewRequest(http.MethodPost, "/users/USR-1/follow", strings.NewReader(`{"targetId":"USR-2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	exists, err := st.EdgeExists(context.Background(), "USR-1", "USR-2")
	if err != nil {
		t.Fatalf("edge lookup failed: %v", err)
	}
	if !exists {
		t.Fatal("expected edge to be created through the router")
	}
}
