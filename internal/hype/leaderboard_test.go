package hype_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
)

func TestGlobalLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setup(t)
	amounts := map[string]int64{"mid": 500, "top": 1200, "low": 300}
	ids := map[string]string{}
	for name, amt := range amounts {
		ids[name] = newUser(t, l, name)
		_, err := l.Earn(ctx, hype.EarnRequest{UserID: ids[name], Amount: amt})
		require.NoError(t, err)
	}

	board, err := l.Leaderboard(ctx, hype.LeaderboardQuery{Scope: hype.ScopeGlobal, Limit: 3})
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []int64{1200, 500, 300}, []int64{board[0].TotalHype, board[1].TotalHype, board[2].TotalHype})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})
	assert.Equal(t, ids["top"], board[0].UserID)
	assert.Equal(t, "top", board[0].DisplayName)
	assert.Equal(t, "Global", board[0].ScopeLabel)
}

func TestLeaderboardTiesBreakByUserID(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setup(t)
	a, b := newUser(t, l, "a"), newUser(t, l, "b")
	for _, id := range []string{a, b} {
		_, err := l.Earn(ctx, hype.EarnRequest{UserID: id, Amount: 100})
		require.NoError(t, err)
	}
	board, err := l.Leaderboard(ctx, hype.LeaderboardQuery{})
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Less(t, board[0].UserID, board[1].UserID)
}

func TestSchoolAndSportScopes(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setup(t)
	school, err := l.CreateSchool(ctx, "De La Salle")
	require.NoError(t, err)

	inSchool, err := l.CreateAccount(ctx, hype.NewAccount{DisplayName: "In", SchoolID: &school.ID, Sport: "Basketball"})
	require.NoError(t, err)
	outside, err := l.CreateAccount(ctx, hype.NewAccount{DisplayName: "Out", Sport: "track"})
	require.NoError(t, err)
	for _, id := range []string{inSchool.UserID, outside.UserID} {
		_, err := l.Earn(ctx, hype.EarnRequest{UserID: id, Amount: 10})
		require.NoError(t, err)
	}

	board, err := l.Leaderboard(ctx, hype.LeaderboardQuery{Scope: hype.ScopeSchool, Filter: school.ID})
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, inSchool.UserID, board[0].UserID)
	assert.Equal(t, "De La Salle", board[0].ScopeLabel)

	board, err = l.Leaderboard(ctx, hype.LeaderboardQuery{Scope: hype.ScopeSport, Filter: "basketball"})
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Basketball", board[0].ScopeLabel)

	_, err = l.Leaderboard(ctx, hype.LeaderboardQuery{Scope: hype.ScopeSchool})
	assert.ErrorIs(t, err, hype.ErrInvalidScope)
	_, err = l.Leaderboard(ctx, hype.LeaderboardQuery{Scope: "county"})
	assert.ErrorIs(t, err, hype.ErrInvalidScope)
}

func TestLeaderboardWeeklyHype(t *testing.T) {
	ctx := context.Background()
	l, _, clock := setup(t)
	id := newUser(t, l, "athlete")
	other := newUser(t, l, "other")

	_, err := l.Earn(ctx, hype.EarnRequest{UserID: id, Amount: 400})
	require.NoError(t, err)
	clock.Advance(10 * 24 * time.Hour)
	_, err = l.Earn(ctx, hype.EarnRequest{UserID: id, Amount: 60})
	require.NoError(t, err)
	_, err = l.Purchase(ctx, hype.PurchaseRequest{UserID: id, Amount: 999, PaymentID: "pi_w"})
	require.NoError(t, err)
	require.NoError(t, l.Gift(ctx, hype.GiftRequest{FromUserID: id, ToUserID: other, Amount: 50}))

	board, err := l.Leaderboard(ctx, hype.LeaderboardQuery{IncludeWeekly: true})
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, id, board[0].UserID)
	assert.Equal(t, int64(460), board[0].TotalHype)
	assert.Equal(t, int64(60), board[0].WeeklyHype)
	assert.Equal(t, int64(0), board[1].WeeklyHype)
}
