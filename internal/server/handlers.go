package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/service"
	"github.com/plateful/plateful/backend/internal/store"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger *slog.Logger
	engine *service.Engine
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, engine *service.Engine) *APIHandlers {
	return &APIHandlers{
		logger: logger,
		engine: engine,
	}
}

// handleUsers routes everything under /users/{id}/... by path shape.
func (h *APIHandlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	segments := strings.Split(rest, "/")
	if len(segments) < 2 || segments[0] == "" {
		writeError(w, http.StatusNotFound, "unknown resource")
		return
	}

	userID := segments[0]
	switch segments[1] {
	case "follow":
		switch {
		case len(segments) == 2 && r.Method == http.MethodPost:
			h.follow(w, r, userID)
		case len(segments) == 3 && r.Method == http.MethodDelete:
			h.unfollow(w, r, userID, segments[2])
		default:
			methodNotAllowed(w, http.MethodPost, http.MethodDelete)
		}
	case "following":
		h.listEdges(w, r, userID, true)
	case "followers":
		h.listEdges(w, r, userID, false)
	case "trust":
		if len(segments) != 3 {
			writeError(w, http.StatusNotFound, "unknown resource")
			return
		}
		h.trustScore(w, r, userID, segments[2])
	case "reputation":
		switch r.Method {
		case http.MethodGet:
			h.getReputation(w, r, userID)
		case http.MethodPatch:
			h.patchReputation(w, r, userID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch)
		}
	case "votes":
		h.applyVote(w, r, userID)
	case "recommendations":
		h.applyRecommendation(w, r, userID)
	case "graph":
		h.neighborhood(w, r, userID)
	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

type followRequest struct {
	TargetID string `json:"targetId"`
}

func (h *APIHandlers) follow(w http.ResponseWriter, r *http.Request, userID string) {
	var req followRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edge, err := h.engine.Relationships.Follow(r.Context(), userID, req.TargetID)
	if err != nil {
		h.respondError(w, "follow failed", err, "followerId", userID, "followedId", req.TargetID)
		return
	}
	respondJSON(w, http.StatusCreated, relationshipPayload(edge))
}

func (h *APIHandlers) unfollow(w http.ResponseWriter, r *http.Request, userID, targetID string) {
	if err := h.engine.Relationships.Unfollow(r.Context(), userID, targetID); err != nil {
		h.respondError(w, "unfollow failed", err, "followerId", userID, "followedId", targetID)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *APIHandlers) listEdges(w http.ResponseWriter, r *http.Request, userID string, following bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	opts := store.ListOptions{
		Offset: parseInt(r.URL.Query().Get("offset"), 0),
		Limit:  parseInt(r.URL.Query().Get("limit"), 0),
	}

	var (
		page domain.RelationshipPage
		err  error
	)
	if following {
		page, err = h.engine.Relationships.ListFollowing(r.Context(), userID, opts)
	} else {
		page, err = h.engine.Relationships.ListFollowers(r.Context(), userID, opts)
	}
	if err != nil {
		h.respondError(w, "list relationships failed", err, "userId", userID)
		return
	}

	items := make([]relationshipResponse, 0, len(page.Items))
	for _, edge := range page.Items {
		items = append(items, relationshipPayload(edge))
	}
	respondJSON(w, http.StatusOK, relationshipPageResponse{
		Items:   items,
		Total:   page.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.HasMore,
	})
}

func (h *APIHandlers) trustScore(w http.ResponseWriter, r *http.Request, sourceID, targetID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	maxDepth := parseInt(query.Get("maxDepth"), 0)
	engagement := service.Engagement{
		Upvotes: parseInt(query.Get("upvotes"), 0),
		Saves:   parseInt(query.Get("saves"), 0),
	}

	score, err := h.engine.Trust.ScoreWithEngagement(r.Context(), sourceID, targetID, maxDepth, engagement)
	if err != nil {
		h.respondError(w, "trust score failed", err, "sourceId", sourceID, "targetId", targetID)
		return
	}
	respondJSON(w, http.StatusOK, trustScoreResponse{
		SourceID:   sourceID,
		TargetID:   targetID,
		TrustScore: score,
	})
}

func (h *APIHandlers) getReputation(w http.ResponseWriter, r *http.Request, userID string) {
	rep, err := h.engine.Reputation.Get(r.Context(), userID)
	if err != nil {
		h.respondError(w, "get reputation failed", err, "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, reputationPayload(rep))
}

// computedReputationFields are rejected on PATCH; they are derived by
// the engine and never writable by callers.
var computedReputationFields = map[string]struct{}{
	"reputationScore":      {},
	"verificationLevel":    {},
	"totalRecommendations": {},
	"upvotesReceived":      {},
	"downvotesReceived":    {},
	"followers":            {},
	"following":            {},
	"activeSince":          {},
	"tokenRewardsEarned":   {},
}

func (h *APIHandlers) patchReputation(w http.ResponseWriter, r *http.Request, userID string) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := domain.ReputationPatch{}
	for field, value := range raw {
		if _, computed := computedReputationFields[field]; computed {
			writeError(w, http.StatusForbidden, "field "+field+" is derived and cannot be set")
			return
		}
		switch field {
		case "specializations":
			var specializations []string
			if err := json.Unmarshal(value, &specializations); err != nil {
				writeError(w, http.StatusBadRequest, "specializations must be a list of strings")
				return
			}
			patch.Specializations = &specializations
		default:
			writeError(w, http.StatusBadRequest, "unknown field "+field)
			return
		}
	}

	rep, err := h.engine.Reputation.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		h.respondError(w, "update reputation failed", err, "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, reputationPayload(rep))
}

type voteRequest struct {
	Upvote bool `json:"upvote"`
}

func (h *APIHandlers) applyVote(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.engine.Reputation.ApplyVote(r.Context(), userID, req.Upvote)
	if err != nil {
		h.respondError(w, "apply vote failed", err, "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, reputationPayload(rep))
}

func (h *APIHandlers) applyRecommendation(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	rep, err := h.engine.Reputation.ApplyRecommendationCreated(r.Context(), userID)
	if err != nil {
		h.respondError(w, "apply recommendation failed", err, "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, reputationPayload(rep))
}

func (h *APIHandlers) neighborhood(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	maxDepth := parseInt(r.URL.Query().Get("maxDepth"), 0)
	graph, err := h.engine.Explorer.BuildNeighborhood(r.Context(), userID, maxDepth)
	if err != nil {
		h.respondError(w, "neighborhood failed", err, "userId", userID)
		return
	}

	response := neighborhoodResponse{
		RootID:   graph.RootID,
		MaxDepth: graph.MaxDepth,
		Nodes:    make([]graphNodeResponse, 0, len(graph.Nodes)),
		Edges:    make([]graphEdgeResponse, 0, len(graph.Edges)),
	}
	for _, node := range graph.Nodes {
		response.Nodes = append(response.Nodes, graphNodeResponse{
			UserID:            node.UserID,
			Depth:             node.Depth,
			ReputationScore:   node.ReputationScore,
			VerificationLevel: string(node.VerificationLevel),
			Followers:         node.Followers,
			Following:         node.Following,
		})
	}
	for _, edge := range graph.Edges {
		response.Edges = append(response.Edges, graphEdgeResponse{
			SourceID:    edge.SourceID,
			TargetID:    edge.TargetID,
			Distance:    edge.Distance,
			TrustWeight: edge.TrustWeight,
		})
	}
	respondJSON(w, http.StatusOK, response)
}

// respondError maps classified engine errors to status codes; internal
// failures are logged with their underlying cause and surfaced as a
// generic message.
func (h *APIHandlers) respondError(w http.ResponseWriter, msg string, err error, logArgs ...any) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case domain.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case domain.KindInvalidOperation:
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.KindForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error(msg, append(logArgs, "error", err)...)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

type relationshipResponse struct {
	ID          string  `json:"id"`
	FollowerID  string  `json:"followerId"`
	FollowedID  string  `json:"followedId"`
	TrustWeight float64 `json:"trustWeight"`
	CreatedAt   string  `json:"createdAt"`
}

type relationshipPageResponse struct {
	Items   []relationshipResponse `json:"items"`
	Total   int                    `json:"total"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
	HasMore bool                   `json:"hasMore"`
}

type trustScoreResponse struct {
	SourceID   string  `json:"sourceId"`
	TargetID   string  `json:"targetId"`
	TrustScore float64 `json:"trustScore"`
}

type reputationResponse struct {
	UserID               string   `json:"userId"`
	ReputationScore      float64  `json:"reputationScore"`
	VerificationLevel    string   `json:"verificationLevel"`
	Specializations      []string `json:"specializations"`
	TotalRecommendations int      `json:"totalRecommendations"`
	UpvotesReceived      int      `json:"upvotesReceived"`
	DownvotesReceived    int      `json:"downvotesReceived"`
	Followers            int      `json:"followers"`
	Following            int      `json:"following"`
	ActiveSince          string   `json:"activeSince"`
	TokenRewardsEarned   float64  `json:"tokenRewardsEarned"`
}

type graphNodeResponse struct {
	UserID            string  `json:"userId"`
	Depth             int     `json:"depth"`
	ReputationScore   float64 `json:"reputationScore"`
	VerificationLevel string  `json:"verificationLevel"`
	Followers         int     `json:"followers"`
	Following         int     `json:"following"`
}

type graphEdgeResponse struct {
	SourceID    string  `json:"sourceId"`
	TargetID    string  `json:"targetId"`
	Distance    int     `json:"distance"`
	TrustWeight float64 `json:"trustWeight"`
}

type neighborhoodResponse struct {
	RootID   string              `json:"rootId"`
	MaxDepth int                 `json:"maxDepth"`
	Nodes    []graphNodeResponse `json:"nodes"`
	Edges    []graphEdgeResponse `json:"edges"`
}

func relationshipPayload(edge domain.UserRelationship) relationshipResponse {
	return relationshipResponse{
		ID:          edge.ID,
		FollowerID:  edge.FollowerID,
		FollowedID:  edge.FollowedID,
		TrustWeight: edge.TrustWeight,
		CreatedAt:   formatTime(edge.CreatedAt),
	}
}

func reputationPayload(rep domain.UserReputation) reputationResponse {
	specializations := rep.Specializations
	if specializations == nil {
		specializations = []string{}
	}
	return reputationResponse{
		UserID:               rep.UserID,
		ReputationScore:      rep.ReputationScore,
		VerificationLevel:    string(rep.VerificationLevel),
		Specializations:      specializations,
		TotalRecommendations: rep.TotalRecommendations,
		UpvotesReceived:      rep.UpvotesReceived,
		DownvotesReceived:    rep.DownvotesReceived,
		Followers:            rep.Followers,
		Following:            rep.Following,
		ActiveSince:          formatTime(rep.ActiveSince),
		TokenRewardsEarned:   rep.TokenRewardsEarned,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
