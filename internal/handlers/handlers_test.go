package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/monitor"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/testutil"
)

func setupRouter(t *testing.T) (*gin.Engine, *hype.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	ledger := hype.New(db, hype.WithWelcomeGrant(500))
	r := gin.New()
	New(db, ledger).RegisterRoutes(r)
	return r, ledger
}

func createAccount(t *testing.T, r *gin.Engine, body map[string]any) string {
	t.Helper()
	resp := testutil.Do(t, r, http.MethodPost, "/accounts", body)
	resp.AssertStatus(http.StatusCreated)
	id, _ := resp.JSONMap()["userId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)
	testutil.Get(t, r, "/health").AssertStatus(http.StatusOK)
}

func TestAccountLifecycle(t *testing.T) {
	r, _ := setupRouter(t)
	id := createAccount(t, r, map[string]any{"displayName": "Ava", "sport": "soccer"})

	var b hype.Balance
	testutil.Get(t, r, "/accounts/"+id).AssertStatus(http.StatusOK).JSON(&b)
	assert.Equal(t, int64(500), b.FreeHype)

	testutil.Get(t, r, "/accounts/ghost").AssertStatus(http.StatusNotFound)
	testutil.Do(t, r, http.MethodPost, "/accounts", map[string]any{}).AssertStatus(http.StatusBadRequest)
}

func TestEarnSpendGiftPurchase(t *testing.T) {
	r, _ := setupRouter(t)
	a := createAccount(t, r, map[string]any{"displayName": "A"})
	b := createAccount(t, r, map[string]any{"displayName": "B"})

	var bal hype.Balance
	testutil.Do(t, r, http.MethodPost, "/hype/earn", map[string]any{
		"userId": a, "activity": "poster_created",
	}).AssertStatus(http.StatusOK).JSON(&bal)
	assert.Equal(t, int64(75), bal.Awarded)
	assert.Equal(t, int64(575), bal.FreeHype)

	testutil.Do(t, r, http.MethodPost, "/hype/earn", map[string]any{"userId": a}).
		AssertStatus(http.StatusBadRequest)
	testutil.Do(t, r, http.MethodPost, "/hype/earn", map[string]any{"userId": a, "activity": "nap"}).
		AssertStatus(http.StatusBadRequest)

	testutil.Do(t, r, http.MethodPost, "/hype/purchase", map[string]any{
		"userId": a, "amount": 100, "paymentId": "pi_http",
	}).AssertStatus(http.StatusOK).JSON(&bal)
	assert.Equal(t, int64(100), bal.PaidHype)
	assert.Equal(t, int64(575), bal.TotalEarned)

	testutil.Do(t, r, http.MethodPost, "/hype/spend", map[string]any{
		"userId": a, "amount": 600, "category": "poster",
	}).AssertStatus(http.StatusOK).JSON(&bal)
	assert.Equal(t, int64(0), bal.FreeHype)
	assert.Equal(t, int64(75), bal.PaidHype)

	testutil.Do(t, r, http.MethodPost, "/hype/purchase", map[string]any{
		"userId": a, "amount": hype.MaxAmount + 1, "paymentId": "pi_too_big",
	}).AssertStatus(http.StatusBadRequest)

	resp := testutil.Do(t, r, http.MethodPost, "/hype/spend", map[string]any{"userId": a, "amount": 76})
	resp.AssertStatus(http.StatusUnprocessableEntity)
	assert.Equal(t, "insufficient_balance", resp.JSONMap()["code"])

	testutil.Do(t, r, http.MethodPost, "/hype/gift", map[string]any{
		"fromUserId": a, "toUserId": b, "amount": 75, "message": "gg",
	}).AssertStatus(http.StatusOK)
	testutil.Do(t, r, http.MethodPost, "/hype/gift", map[string]any{
		"fromUserId": a, "toUserId": a, "amount": 1,
	}).AssertStatus(http.StatusBadRequest)
	testutil.Do(t, r, http.MethodPost, "/hype/gift", map[string]any{
		"fromUserId": a, "toUserId": "ghost", "amount": 1,
	}).AssertStatus(http.StatusNotFound)

	testutil.Get(t, r, "/accounts/"+b).AssertStatus(http.StatusOK).JSON(&bal)
	assert.Equal(t, int64(575), bal.FreeHype)

	notes := testutil.Get(t, r, "/notifications/"+b).AssertStatus(http.StatusOK).JSONMap()
	assert.Equal(t, float64(1), notes["count"])

	history := testutil.Get(t, r, "/hype/history/"+a+"?limit=2").AssertStatus(http.StatusOK).JSONMap()
	assert.Equal(t, float64(2), history["count"])
}

func TestStreakAndAchievementRoutes(t *testing.T) {
	r, _ := setupRouter(t)
	id := createAccount(t, r, map[string]any{"displayName": "A"})

	var streak hype.StreakResult
	testutil.Do(t, r, http.MethodPost, "/hype/streak/"+id, nil).AssertStatus(http.StatusOK).JSON(&streak)
	assert.Equal(t, 1, streak.DailyStreak)
	testutil.Do(t, r, http.MethodPost, "/hype/streak/ghost", nil).AssertStatus(http.StatusNotFound)

	var ach hype.AchievementResult
	testutil.Do(t, r, http.MethodPost, "/achievements/"+id, map[string]any{"kind": "herocard_created"}).
		AssertStatus(http.StatusOK).JSON(&ach)
	assert.Equal(t, 1, ach.Count)
	require.NotNil(t, ach.Milestone)
	assert.Equal(t, int64(50), ach.Bonus)

	var second hype.AchievementResult
	testutil.Do(t, r, http.MethodPost, "/achievements/"+id, nil).AssertStatus(http.StatusOK).JSON(&second)
	assert.Equal(t, 2, second.Count)
	assert.Nil(t, second.Milestone)
	assert.Zero(t, second.Bonus)
}

func TestLeaderboardRoute(t *testing.T) {
	r, _ := setupRouter(t)
	school := testutil.Do(t, r, http.MethodPost, "/schools", map[string]any{"name": "Mater Dei"}).
		AssertStatus(http.StatusCreated).JSONMap()
	schoolID := school["id"].(string)

	a := createAccount(t, r, map[string]any{"displayName": "A", "schoolId": schoolID, "sport": "football"})
	createAccount(t, r, map[string]any{"displayName": "B", "sport": "swim"})
	testutil.Do(t, r, http.MethodPost, "/hype/earn", map[string]any{"userId": a, "amount": 10}).
		AssertStatus(http.StatusOK)

	var board []hype.LeaderboardEntry
	testutil.Get(t, r, "/leaderboard?limit=5&weekly=true").AssertStatus(http.StatusOK).JSON(&board)
	require.Len(t, board, 2)
	assert.Equal(t, a, board[0].UserID)
	assert.Equal(t, int64(510), board[0].TotalHype)
	assert.Equal(t, int64(510), board[0].WeeklyHype)

	testutil.Get(t, r, "/leaderboard?scope=school&filter="+schoolID).AssertStatus(http.StatusOK).JSON(&board)
	require.Len(t, board, 1)
	assert.Equal(t, "Mater Dei", board[0].ScopeLabel)

	testutil.Get(t, r, "/leaderboard?scope=galaxy").AssertStatus(http.StatusBadRequest)
	testutil.Do(t, r, http.MethodPost, "/accounts", map[string]any{"displayName": "C", "schoolId": "nope"}).
		AssertStatus(http.StatusNotFound)
}

func TestAdminRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	ledger := hype.New(db, hype.WithWelcomeGrant(500))
	r := gin.New()
	New(db, ledger).RegisterRoutes(r)

	id := createAccount(t, r, map[string]any{"displayName": "A"})
	testutil.Do(t, r, http.MethodPost, "/hype/spend", map[string]any{"userId": id, "amount": 100}).
		AssertStatus(http.StatusOK)

	report := testutil.Get(t, r, "/admin/sustainability").AssertStatus(http.StatusOK).JSONMap()
	assert.Equal(t, float64(500), report["totalEarned"])
	assert.Equal(t, float64(100), report["totalSpent"])
	assert.Equal(t, true, report["isSustainable"])

	_, err := monitor.TakeSnapshot(context.Background(), db, ledger)
	require.NoError(t, err)
	var snaps []map[string]any
	testutil.Get(t, r, "/admin/economy/snapshots").AssertStatus(http.StatusOK).JSON(&snaps)
	assert.Len(t, snaps, 1)

	var activities []hype.Activity
	testutil.Get(t, r, "/hype/activities").AssertStatus(http.StatusOK).JSON(&activities)
	assert.NotEmpty(t, activities)
	var milestones []hype.Milestone
	testutil.Get(t, r, "/milestones").AssertStatus(http.StatusOK).JSON(&milestones)
	assert.Len(t, milestones, 6)
}
