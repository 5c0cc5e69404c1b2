// Package access decides whether a user may view a piece of content.
//
// Public content is always viewable. Members-only content is viewable when the
// user holds a subscription, with the content's creator, to one of the tiers
// the content allows and that tier still exists.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/tracing"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// DefaultLookupTimeout bounds a subscription lookup when none is configured
const DefaultLookupTimeout = 3 * time.Second

// Decision reasons
const (
	ReasonPublic       = "public content"
	ReasonTierMatch    = "subscribed tier"
	ReasonTierMismatch = "tier mismatch"
	ReasonUnknown      = "unknown visibility"
)

// SubscriptionLookup returns a user's subscriptions with one creator
type SubscriptionLookup interface {
	GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error)
}

// TierLookup confirms a tier still exists. Missing tiers return models.ErrNotFound.
type TierLookup interface {
	GetTier(ctx context.Context, id string) (*models.Tier, error)
}

// Decision is the outcome of an access check
type Decision struct {
	Granted       bool   `json:"granted"`
	Reason        string `json:"reason"`
	MatchedTierID string `json:"matched_tier_id,omitempty"`
}

// Evaluator answers "may user U view content C?"
type Evaluator struct {
	subscriptions SubscriptionLookup
	tiers         TierLookup
	timeout       time.Duration
	logger        *logging.Logger
}

// NewEvaluator creates an evaluator. A non-positive timeout selects DefaultLookupTimeout.
func NewEvaluator(subscriptions SubscriptionLookup, tiers TierLookup, timeout time.Duration, logger *logging.Logger) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Evaluator{
		subscriptions: subscriptions,
		tiers:         tiers,
		timeout:       timeout,
		logger:        logger,
	}
}

// CanView decides whether userID may view content. An empty userID means an
// anonymous viewer. Errors are models.ErrMissingUser, models.ErrUpstreamUnavailable
// or a tier lookup failure; a denial is a Decision, not an error.
func (e *Evaluator) CanView(ctx context.Context, content *models.Content, userID string) (Decision, error) {
	span, ctx := tracing.Start(ctx, "access.can_view", opentracing.Tags{
		"content_id": content.ID,
		"visibility": string(content.Visibility),
	})
	decision, err := e.evaluate(ctx, content, userID)
	span.Tag("granted", decision.Granted)
	span.End(err)

	metrics.RecordAccessDecision(string(content.Visibility), resultLabel(decision, err))
	if err == nil {
		e.logger.LogAccessDecision(content.ID, userID, decision.Granted, decision.Reason)
	}
	return decision, err
}

func (e *Evaluator) evaluate(ctx context.Context, content *models.Content, userID string) (Decision, error) {
	switch content.Visibility {
	case models.VisibilityPublic:
		return Decision{Granted: true, Reason: ReasonPublic}, nil
	case models.VisibilityMembersOnly:
	default:
		e.logger.WithContentID(content.ID).WithField("visibility", string(content.Visibility)).
			Warn("Denying content with unrecognised visibility")
		return Decision{Granted: false, Reason: ReasonUnknown}, nil
	}

	if userID == "" {
		return Decision{}, models.ErrMissingUser
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	subs, err := e.lookup(ctx, userID, content.CreatorID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	allowed := make(map[string]struct{}, len(content.AllowedTierIDs))
	for _, id := range content.AllowedTierIDs {
		allowed[id] = struct{}{}
	}

	for _, sub := range subs {
		if sub.CreatorID != content.CreatorID {
			continue
		}
		if _, ok := allowed[sub.TierID]; !ok {
			continue
		}

		tier, err := e.tiers.GetTier(ctx, sub.TierID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return Decision{}, fmt.Errorf("failed to look up tier %s: %w", sub.TierID, err)
		}
		if tier.CreatorID != content.CreatorID {
			continue
		}
		return Decision{Granted: true, Reason: ReasonTierMatch, MatchedTierID: tier.ID}, nil
	}

	return Decision{Granted: false, Reason: ReasonTierMismatch}, nil
}

type lookupResult struct {
	subs []models.Subscription
	err  error
}

// lookup runs the subscription lookup and gives up at the context deadline
// even if the lookup itself ignores ctx.
func (e *Evaluator) lookup(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	start := time.Now()
	done := make(chan lookupResult, 1)
	go func() {
		subs, err := e.subscriptions.GetByUserAndCreator(ctx, userID, creatorID)
		done <- lookupResult{subs: subs, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	metrics.RecordSubscriptionLookup(res.err, time.Since(start).Seconds())
	return res.subs, res.err
}

func resultLabel(d Decision, err error) string {
	switch {
	case errors.Is(err, models.ErrMissingUser):
		return "missing_user"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case err != nil:
		return "error"
	case d.Granted:
		return "granted"
	default:
		return "denied"
	}
}
