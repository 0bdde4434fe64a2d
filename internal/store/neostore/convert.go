package neostore

import (
	"fmt"
	"time"

	"github.com/plateful/plateful/backend/internal/domain"
	"github.com/plateful/plateful/backend/internal/graph"
)

func reputationFromRecord(record graph.Record) domain.UserReputation {
	rep := domain.UserReputation{
		UserID:               toString(record["userId"]),
		ReputationScore:      toFloat64(record["reputationScore"]),
		VerificationLevel:    domain.VerificationLevel(toString(record["verificationLevel"])),
		Specializations:      toStringSlice(record["specializations"]),
		TotalRecommendations: toInt(record["totalRecommendations"]),
		UpvotesReceived:      toInt(record["upvotesReceived"]),
		DownvotesReceived:    toInt(record["downvotesReceived"]),
		Followers:            toInt(record["followers"]),
		Following:            toInt(record["following"]),
		TokenRewardsEarned:   toFloat64(record["tokenRewardsEarned"]),
	}
	if rep.VerificationLevel == "" {
		rep.VerificationLevel = domain.VerificationBasic
	}
	if active := toTimePtr(record["activeSince"]); active != nil {
		rep.ActiveSince = *active
	}
	return rep
}

func edgeFromRecord(record graph.Record) domain.UserRelationship {
	edge := domain.UserRelationship{
		ID:          toString(record["relationshipId"]),
		FollowerID:  toString(record["followerId"]),
		FollowedID:  toString(record["followedId"]),
		TrustWeight: toFloat64(record["trustWeight"]),
	}
	if created := toTimePtr(record["createdAt"]); created != nil {
		edge.CreatedAt = *created
	}
	return edge
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}
