package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

// fakeDB is an in-memory DbClient with the same reserve semantics as the
// conditional upsert in Postgres.
type fakeDB struct {
	mu sync.Mutex

	users    map[string]*models.User // keyed by firebase uid
	plans    map[string]*models.SubscriptionPlan
	usage    map[string]int // "userID|monthYear" -> tickets processed
	analyses map[string]*models.Analysis
	feedback []*models.Feedback
	similar  []models.SimilarTicket
	stats    *models.UserStats
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users: make(map[string]*models.User),
		plans: map[string]*models.SubscriptionPlan{
			"free":       {Tier: "free", Name: "Free", MonthlyTicketLimit: 5},
			"pro":        {Tier: "pro", Name: "Pro", MonthlyTicketLimit: 50},
			"enterprise": {Tier: "enterprise", Name: "Enterprise", MonthlyTicketLimit: -1},
		},
		usage:    make(map[string]int),
		analyses: make(map[string]*models.Analysis),
	}
}

func usageKey(userID, monthYear string) string { return userID + "|" + monthYear }

func (f *fakeDB) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[user.FirebaseUID]; ok {
		if user.Email != "" {
			existing.Email = user.Email
		}
		if user.DisplayName != "" {
			existing.DisplayName = user.DisplayName
		}
		return existing, nil
	}
	u := *user
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = "free"
	}
	f.users[user.FirebaseUID] = &u
	return &u, nil
}

func (f *fakeDB) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[firebaseUID], nil
}

func (f *fakeDB) GetPlan(ctx context.Context, tier string) (*models.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[tier]
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", core.ErrNotFound, tier)
	}
	return plan, nil
}

func (f *fakeDB) GetUsage(ctx context.Context, userID, monthYear string) (*models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.UsageRecord{
		UserID:           userID,
		MonthYear:        monthYear,
		TicketsProcessed: f.usage[usageKey(userID, monthYear)],
	}, nil
}

func (f *fakeDB) ReserveUsage(ctx context.Context, userID, monthYear string, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey(userID, monthYear)
	if limit >= 0 && f.usage[key] >= limit {
		return 0, core.ErrQuotaExceeded
	}
	f.usage[key]++
	return f.usage[key], nil
}

func (f *fakeDB) ReleaseUsage(ctx context.Context, userID, monthYear string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey(userID, monthYear)
	if f.usage[key] > 0 {
		f.usage[key]--
	}
	return nil
}

func (f *fakeDB) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.analyses[a.ID] = &copied
	return nil
}

func (f *fakeDB) GetAnalysisByID(ctx context.Context, id string) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyses[id], nil
}

func (f *fakeDB) ListRecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error) {
	return f.ListAllAnalyses(ctx, userID)
}

func (f *fakeDB) ListAllAnalyses(ctx context.Context, userID string) ([]models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Analysis
	for _, a := range f.analyses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeDB) SearchSimilarAnalyses(ctx context.Context, userID string, embedding []float32, limit int) ([]models.SimilarTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.similar, nil
}

func (f *fakeDB) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *fb
	f.feedback = append(f.feedback, &copied)
	return nil
}

func (f *fakeDB) GetUserStats(ctx context.Context, userID, monthYear string) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats != nil {
		return f.stats, nil
	}
	return &models.UserStats{UsedThisMonth: f.usage[usageKey(userID, monthYear)]}, nil
}

func (f *fakeDB) usageCount(userID, monthYear string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[usageKey(userID, monthYear)]
}

func (f *fakeDB) Close() error { return nil }

var _ core.DbClient = (*fakeDB)(nil)
