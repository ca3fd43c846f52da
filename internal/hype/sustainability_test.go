package hype_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
)

func TestSustainability(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setup(t)
	id := newUser(t, l, "athlete")

	r, err := l.CheckSustainability(ctx)
	require.NoError(t, err)
	assert.True(t, r.IsSustainable)
	assert.True(t, r.Ratio.IsZero())

	_, err = l.Earn(ctx, hype.EarnRequest{UserID: id, Amount: 130})
	require.NoError(t, err)
	_, err = l.Spend(ctx, hype.SpendRequest{UserID: id, Amount: 100})
	require.NoError(t, err)

	r, err = l.CheckSustainability(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(130), r.TotalEarned)
	assert.Equal(t, int64(100), r.TotalSpent)
	assert.Equal(t, "1.3", r.Ratio.String())
	assert.True(t, r.IsSustainable)

	_, err = l.Purchase(ctx, hype.PurchaseRequest{UserID: id, Amount: 50, PaymentID: "pi_s"})
	require.NoError(t, err)
	_, err = l.Spend(ctx, hype.SpendRequest{UserID: id, Amount: 20})
	require.NoError(t, err)

	r, err = l.CheckSustainability(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), r.TotalSpent)
	assert.Equal(t, "1.0833", r.Ratio.String())
	assert.False(t, r.IsSustainable)
}
