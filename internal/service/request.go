package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/config"
	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/model"
	"github.com/openclaw/designdesk/internal/quota"
	"github.com/openclaw/designdesk/internal/repository"
)

type RequestService struct {
	repo    repository.ClientRepository
	policy  quota.Policy
	limiter CommandLimiter
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRequestService wires quota accounting. limiter may be nil to disable
// the per-requester cooldown.
func NewRequestService(
	repo repository.ClientRepository,
	policy quota.Policy,
	limiter CommandLimiter,
	limit int,
	window time.Duration,
) *RequestService {
	return &RequestService{
		repo:    repo,
		policy:  policy,
		limiter: limiter,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Submit validates the request, resolves the requester's client and applies
// the quota policy under the repository's update lock. User-facing failures
// are returned before anything is persisted.
func (s *RequestService) Submit(ctx context.Context, params model.CreateRequestParams) (*model.Request, error) {
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return nil, apperrors.MissingArgument()
	}
	if utf8.RuneCountInString(text) > config.MaxRequestTextLength {
		return nil, apperrors.RequestTooLong(config.MaxRequestTextLength)
	}

	// The cooldown runs before client resolution so unassigned requesters
	// are throttled too.
	if s.limiter != nil && s.limit > 0 {
		allowed, resetAt := s.limiter.CheckLimit(ctx, "request:"+params.RequesterID, s.limit, s.window)
		if !allowed {
			retryIn := time.Until(resetAt).Round(time.Second)
			if retryIn < time.Second {
				retryIn = time.Second
			}
			return nil, apperrors.RateLimitExceeded(retryIn.String())
		}
	}

	req := &model.Request{
		RequesterID: params.RequesterID,
		Text:        text,
	}

	err := s.repo.Update(ctx, func(root *model.ConfigRoot) error {
		roleID, rec, matches := root.ResolveClient(params.RoleIDs)
		if rec == nil {
			return apperrors.ClientNotAssigned()
		}
		if matches > 1 {
			log.Warn().
				Str("requesterId", params.RequesterID).
				Str("roleId", roleID).
				Int("matches", matches).
				Msg("requester holds several client roles, using the lowest role id")
		}

		decision := s.policy.Apply(rec, s.now())
		if decision.PromotionExpired {
			log.Warn().
				Str("roleId", roleID).
				Str("client", rec.Name).
				Msg("client still has an unlimited quota after the promotional cutoff")
		}

		req.RoleID = roleID
		req.Client = *rec
		req.Remaining = decision.Remaining
		req.Consumed = decision.Consume

		if !decision.Consume {
			return repository.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}
