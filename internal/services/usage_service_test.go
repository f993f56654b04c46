package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/ticketlens/internal/core"
)

func TestMonthKey(t *testing.T) {
	// Keyed in UTC so a user near midnight doesn't straddle two buckets.
	ts := time.Date(2025, time.March, 1, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "2025-02", MonthKey(ts))
	assert.Equal(t, "2025-03", MonthKey(ts.Add(2*time.Hour)))
}

func TestStatusFreshUser(t *testing.T) {
	db := newFakeDB()
	svc := NewUsageService(db)

	st, err := svc.Status(context.Background(), testUser("free"))
	require.NoError(t, err)

	assert.True(t, st.CanAnalyze)
	assert.Equal(t, "free", st.SubscriptionTier)
	assert.Equal(t, 5, st.MonthlyLimit)
	assert.Equal(t, 0, st.UsedTickets)
	assert.Equal(t, 5, st.RemainingTickets)
}

func TestStatusAtLimit(t *testing.T) {
	db := newFakeDB()
	user := testUser("free")
	db.usage[usageKey(user.ID, MonthKey(time.Now()))] = 5
	svc := NewUsageService(db)

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)

	assert.False(t, st.CanAnalyze)
	assert.Equal(t, 0, st.RemainingTickets)
}

func TestStatusUnlimitedTier(t *testing.T) {
	db := newFakeDB()
	user := testUser("enterprise")
	db.usage[usageKey(user.ID, MonthKey(time.Now()))] = 999
	svc := NewUsageService(db)

	st, err := svc.Status(context.Background(), user)
	require.NoError(t, err)

	assert.True(t, st.CanAnalyze)
	assert.Equal(t, -1, st.MonthlyLimit)
	assert.Equal(t, -1, st.RemainingTickets)
	assert.Equal(t, 999, st.UsedTickets)
}

func TestReserveAndRelease(t *testing.T) {
	db := newFakeDB()
	user := testUser("free")
	svc := NewUsageService(db)
	month := MonthKey(time.Now())

	plan, err := svc.Reserve(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.MonthlyTicketLimit)
	assert.Equal(t, 1, db.usageCount(user.ID, month))

	require.NoError(t, svc.Release(context.Background(), user))
	assert.Equal(t, 0, db.usageCount(user.ID, month))
}

func TestReserveAtLimitFails(t *testing.T) {
	db := newFakeDB()
	user := testUser("free")
	db.usage[usageKey(user.ID, MonthKey(time.Now()))] = 5
	svc := NewUsageService(db)

	plan, err := svc.Reserve(context.Background(), user)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQuotaExceeded)
	// The plan still comes back for the error body.
	require.NotNil(t, plan)
	assert.Equal(t, "Free", plan.Name)
}
