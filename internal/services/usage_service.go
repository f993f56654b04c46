package services

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

// UsageService is the quota gate: tier limits come from subscription_plans,
// consumption from the per-month usage rows.
type UsageService struct {
	db core.DbClient
}

func NewUsageService(db core.DbClient) *UsageService {
	return &UsageService{db: db}
}

// MonthKey formats the month bucket usage rows are keyed by.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Status reports whether the user can analyze another ticket this month.
func (s *UsageService) Status(ctx context.Context, user *models.User) (*models.UsageStatus, error) {
	plan, err := s.db.GetPlan(ctx, user.SubscriptionTier)
	if err != nil {
		return nil, err
	}
	usage, err := s.db.GetUsage(ctx, user.ID, MonthKey(time.Now()))
	if err != nil {
		return nil, err
	}

	st := &models.UsageStatus{
		SubscriptionTier: user.SubscriptionTier,
		MonthlyLimit:     plan.MonthlyTicketLimit,
		UsedTickets:      usage.TicketsProcessed,
	}
	if plan.MonthlyTicketLimit < 0 {
		st.CanAnalyze = true
		st.RemainingTickets = -1
	} else {
		st.RemainingTickets = plan.MonthlyTicketLimit - usage.TicketsProcessed
		if st.RemainingTickets < 0 {
			st.RemainingTickets = 0
		}
		st.CanAnalyze = st.RemainingTickets > 0
	}
	return st, nil
}

// Reserve atomically consumes one unit of this month's quota before the
// predictor is called. The returned plan carries the limit for error bodies.
// A quota failure wraps core.ErrQuotaExceeded and changes nothing.
func (s *UsageService) Reserve(ctx context.Context, user *models.User) (*models.SubscriptionPlan, error) {
	plan, err := s.db.GetPlan(ctx, user.SubscriptionTier)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ReserveUsage(ctx, user.ID, MonthKey(time.Now()), plan.MonthlyTicketLimit); err != nil {
		return plan, fmt.Errorf("reserve usage for %s: %w", user.ID, err)
	}
	return plan, nil
}

// Release refunds a reservation after an upstream failure, so a failed
// prediction never bills the user.
func (s *UsageService) Release(ctx context.Context, user *models.User) error {
	return s.db.ReleaseUsage(ctx, user.ID, MonthKey(time.Now()))
}
