package service

import (
	"context"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
)

type VoteService struct {
	votes   VoteStore
	metrics statsd.ClientInterface
}

func NewVoteService(votes VoteStore, metrics statsd.ClientInterface) *VoteService {
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	return &VoteService{votes: votes, metrics: metrics}
}

// Cast records userID's vote on an article. Repeating the same direction is
// a conflict; the opposite direction flips the vote.
func (s *VoteService) Cast(ctx context.Context, userID, articleID string, direction int) (*repository.VoteTally, error) {
	if userID == "" {
		return nil, apperr.NewUnauthorized("authentication required")
	}
	if !model.IsValidDirection(direction) {
		return nil, apperr.NewValidation("direction", "direction must be 1 or -1, got %d", direction)
	}
	tally, err := s.votes.Cast(ctx, userID, articleID, direction)
	if err != nil {
		return nil, translate(err, "article "+articleID+" not found", "vote already recorded in this direction")
	}
	s.count("cast", direction)
	return &tally, nil
}

// Remove withdraws userID's vote, restoring the counters it changed.
func (s *VoteService) Remove(ctx context.Context, userID, articleID string) (*repository.VoteTally, error) {
	if userID == "" {
		return nil, apperr.NewUnauthorized("authentication required")
	}
	tally, err := s.votes.Remove(ctx, userID, articleID)
	if err != nil {
		return nil, translate(err, "no vote on article "+articleID, "")
	}
	s.count("remove", 0)
	return &tally, nil
}

func (s *VoteService) count(action string, direction int) {
	tags := []string{"action:" + action}
	switch direction {
	case model.VoteUp:
		tags = append(tags, "direction:up")
	case model.VoteDown:
		tags = append(tags, "direction:down")
	}
	if err := s.metrics.Incr(utils.DDOG_VOTE_COUNTER, tags, 1); err != nil {
		Log.WithError(err).Debug("fail to report vote metric")
	}
}
