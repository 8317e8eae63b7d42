package tutor

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/adaptiq/internal/bandit"
)

// PeerPick is one collaborative-filtering recommendation.
type PeerPick struct {
	Content         ContentInfo
	PredictedRating float64 // 1..5
	Support         int     // similar students who answered it
}

// PeerRecommendations suggests up to limit questions that students with
// similar answer histories did well on. Content the student has answered,
// content that no longer exists and content on locked skills are left out.
func (s *Service) PeerRecommendations(ctx context.Context, studentID string, limit int) (out []PeerPick, err error) {
	ctx, span := s.startSpan(ctx, "peer_recommendations")
	defer finishSpan(span, &err)

	if s.peers == nil {
		return nil, fmt.Errorf("collaborative filtering: %w", ErrNotConfigured)
	}
	res, err := s.peers.Recommend(ctx, studentID, 0, func(ctx context.Context, id int64) (int, error) {
		info, err := s.content.Content(ctx, id)
		return info.Difficulty, err
	})
	if err != nil {
		return nil, err
	}
	levels, err := s.mastery.Levels(ctx, studentID)
	if err != nil {
		return nil, err
	}

	for _, p := range res.Predictions {
		if limit > 0 && len(out) >= limit {
			break
		}
		info, err := s.content.Content(ctx, p.ContentID)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		if info.SkillID != "" && s.graph.Has(info.SkillID) && !s.graph.IsUnlocked(info.SkillID, levels) {
			continue
		}
		out = append(out, PeerPick{Content: info, PredictedRating: p.Rating, Support: p.Support})
	}
	span.SetAttributes(
		attribute.Int("neighbors", len(res.Neighbors)),
		attribute.Int("picks", len(out)),
	)
	return out, nil
}

// FormatStats reports the format bandit's arms for the student.
func (s *Service) FormatStats(ctx context.Context, studentID string) (bandit.Stats, error) {
	if s.bandit == nil {
		return bandit.Stats{}, fmt.Errorf("format bandit: %w", ErrNotConfigured)
	}
	return s.bandit.Stats(ctx, studentID)
}
