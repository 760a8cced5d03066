package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-agent/internal/loan"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func submitN(t *testing.T, store *Store, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		id, err := store.SubmitApplication(loan.Application{
			RequestedAmount: 100000,
			AnnualIncome:    500000,
			CreditScore:     650 + i,
		})
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestSubmitApplication_AssignsDefaults(t *testing.T) {
	store := newTestStore(t)

	id, err := store.SubmitApplication(loan.Application{AnnualIncome: 300000})
	require.NoError(t, err)
	assert.Equal(t, "000000000001", id)

	app, err := store.GetApplication(id)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusPending, app.Status)
	assert.False(t, app.SubmittedAt.IsZero())
	assert.Equal(t, 300000.0, app.AnnualIncome)
}

func TestSubmitApplication_KeepsExplicitFields(t *testing.T) {
	store := newTestStore(t)

	submitted := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	id, err := store.SubmitApplication(loan.Application{
		ID:          "custom-7",
		Status:      loan.StatusApproved,
		SubmittedAt: submitted,
	})
	require.NoError(t, err)
	assert.Equal(t, "custom-7", id)

	app, err := store.GetApplication(id)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusApproved, app.Status)
	assert.True(t, app.SubmittedAt.Equal(submitted))
}

func TestGetApplication_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetApplication("nope")
	assert.Error(t, err)
}

func TestFetchPending_SubmissionOrder(t *testing.T) {
	store := newTestStore(t)
	ids := submitN(t, store, 5)

	pending, err := store.FetchPending()
	require.NoError(t, err)
	require.Len(t, pending, 5)
	// Zero-padded sequence keys keep lexicographic order aligned with
	// submission order.
	for i, app := range pending {
		assert.Equal(t, ids[i], app.ID)
	}

	count, err := store.CountPending()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestBatchCommit_Atomic(t *testing.T) {
	store := newTestStore(t)
	ids := submitN(t, store, 3)

	batch := store.NewBatch()
	for _, id := range ids {
		dec := loan.Reject("credit score 0 below minimum 600")
		dec.ApplicationID = id
		dec.Source = loan.SourceRules
		batch.SetStatus(id, dec.Status)
		batch.InsertDecision(dec)
	}
	assert.Equal(t, 6, batch.Len())

	// Nothing visible before commit.
	count, err := store.CountPending()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	_, found, err := store.LatestDecision(ids[0])
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, batch.Commit())
	assert.Equal(t, 0, batch.Len())

	count, err = store.CountPending()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for _, id := range ids {
		dec, found, err := store.LatestDecision(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, dec.ApplicationID)
		assert.Equal(t, loan.StatusRejected, dec.Status)
		assert.False(t, dec.CreatedAt.IsZero())
	}
}

func TestBatchCommit_EmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.NewBatch().Commit())
}

func TestBatchCommit_UnknownApplicationFails(t *testing.T) {
	store := newTestStore(t)

	batch := store.NewBatch()
	batch.SetStatus("missing", loan.StatusApproved)
	assert.Error(t, batch.Commit())
}

func TestLatestDecision_ReturnsNewest(t *testing.T) {
	store := newTestStore(t)
	ids := submitN(t, store, 1)

	first := loan.Reject("annual income below minimum threshold")
	first.ApplicationID = ids[0]
	first.CreatedAt = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	second := loan.Approve(0.7, 250000, loan.RiskLow, "eligible based on credit score and income norms")
	second.ApplicationID = ids[0]
	second.CreatedAt = time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

	batch := store.NewBatch()
	batch.InsertDecision(first)
	require.NoError(t, batch.Commit())
	batch = store.NewBatch()
	batch.InsertDecision(second)
	require.NoError(t, batch.Commit())

	dec, found, err := store.LatestDecision(ids[0])
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, loan.StatusApproved, dec.Status)
	assert.Equal(t, 250000.0, dec.RecommendedAmount)
}

func TestDecisionsBySource(t *testing.T) {
	store := newTestStore(t)
	ids := submitN(t, store, 4)

	batch := store.NewBatch()
	for i, id := range ids {
		dec := loan.Reject("annual income below minimum threshold")
		dec.ApplicationID = id
		if i%2 == 0 {
			dec.Source = loan.SourceBootstrap
		} else {
			dec.Source = loan.SourceModel
		}
		batch.InsertDecision(dec)
	}
	require.NoError(t, batch.Commit())

	boot, err := store.DecisionsBySource(loan.SourceBootstrap)
	require.NoError(t, err)
	assert.Len(t, boot, 2)

	model, err := store.DecisionsBySource(loan.SourceModel)
	require.NoError(t, err)
	assert.Len(t, model, 2)
}

func TestSummarize(t *testing.T) {
	store := newTestStore(t)
	ids := submitN(t, store, 4)

	batch := store.NewBatch()
	batch.SetStatus(ids[0], loan.StatusApproved)
	batch.SetStatus(ids[1], loan.StatusApproved)
	batch.SetStatus(ids[2], loan.StatusRejected)
	require.NoError(t, batch.Commit())

	sum, err := store.Summarize()
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 4, Approved: 2, Rejected: 1, Pending: 1, Rate: 50}, sum)

	decided, err := store.Decided()
	require.NoError(t, err)
	assert.Len(t, decided, 3)
}
