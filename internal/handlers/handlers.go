package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

type Handler struct {
	db     *gorm.DB
	ledger *hype.Ledger
}

func New(db *gorm.DB, ledger *hype.Ledger) *Handler {
	return &Handler{db: db, ledger: ledger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/schools", h.postSchool)
	r.POST("/accounts", h.postAccount)
	r.GET("/accounts/:userId", h.getBalance)

	r.POST("/hype/earn", h.postEarn)
	r.POST("/hype/spend", h.postSpend)
	r.POST("/hype/gift", h.postGift)
	r.POST("/hype/purchase", h.postPurchase)
	r.POST("/hype/streak/:userId", h.postStreak)
	r.GET("/hype/history/:userId", h.getHistory)
	r.GET("/hype/activities", h.getActivities)

	r.POST("/achievements/:userId", h.postAchievement)
	r.GET("/milestones", h.getMilestones)
	r.GET("/leaderboard", h.getLeaderboard)
	r.GET("/notifications/:userId", h.getNotifications)

	r.GET("/admin/sustainability", h.getSustainability)
	r.GET("/admin/economy/snapshots", h.getSnapshots)
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
}

// fail maps ledger errors onto status codes. Anything unclassified is
// logged and hidden behind a generic 500.
func fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, hype.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, hype.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "insufficient_balance"})
	case errors.Is(err, hype.ErrBalanceOverflow):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "balance_limit"})
	case errors.Is(err, hype.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent update, please retry", "code": "conflict"})
	case errors.Is(err, hype.ErrDuplicatePayment):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "duplicate_payment"})
	case errors.Is(err, hype.ErrInvalidAmount),
		errors.Is(err, hype.ErrAmountTooLarge),
		errors.Is(err, hype.ErrUnknownActivity),
		errors.Is(err, hype.ErrSelfGift),
		errors.Is(err, hype.ErrInvalidScope),
		errors.Is(err, hype.ErrMissingPaymentID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("op", op).Error("ledger operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

func queryLimit(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

type postSchoolReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) postSchool(c *gin.Context) {
	var req postSchoolReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.ledger.CreateSchool(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err, "create_school")
		return
	}
	c.JSON(http.StatusCreated, s)
}

type postAccountReq struct {
	DisplayName string  `json:"displayName" binding:"required"`
	SchoolID    *string `json:"schoolId"`
	Sport       string  `json:"sport"`
}

func (h *Handler) postAccount(c *gin.Context) {
	var req postAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, err := h.ledger.CreateAccount(c.Request.Context(), hype.NewAccount{
		DisplayName: req.DisplayName,
		SchoolID:    req.SchoolID,
		Sport:       req.Sport,
	})
	if err != nil {
		fail(c, err, "create_account")
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (h *Handler) getBalance(c *gin.Context) {
	b, err := h.ledger.GetBalance(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err, "balance")
		return
	}
	c.JSON(http.StatusOK, b)
}

type postEarnReq struct {
	UserID      string         `json:"userId" binding:"required"`
	Amount      int64          `json:"amount"`
	Activity    string         `json:"activity"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

func (h *Handler) postEarn(c *gin.Context) {
	var req postEarnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount == 0 && req.Activity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount or activity is required"})
		return
	}
	b, err := h.ledger.Earn(c.Request.Context(), hype.EarnRequest{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Activity:    req.Activity,
		Category:    req.Category,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		fail(c, err, "earn")
		return
	}
	c.JSON(http.StatusOK, b)
}

type postSpendReq struct {
	UserID      string `json:"userId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (h *Handler) postSpend(c *gin.Context) {
	var req postSpendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.ledger.Spend(c.Request.Context(), hype.SpendRequest{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err, "spend")
		return
	}
	c.JSON(http.StatusOK, b)
}

type postGiftReq struct {
	FromUserID string `json:"fromUserId" binding:"required"`
	ToUserID   string `json:"toUserId" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
	Message    string `json:"message"`
}

func (h *Handler) postGift(c *gin.Context) {
	var req postGiftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.ledger.Gift(c.Request.Context(), hype.GiftRequest{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Message:    req.Message,
	})
	if err != nil {
		fail(c, err, "gift")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type postPurchaseReq struct {
	UserID    string `json:"userId" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
}

func (h *Handler) postPurchase(c *gin.Context) {
	var req postPurchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.ledger.Purchase(c.Request.Context(), hype.PurchaseRequest{
		UserID:    req.UserID,
		Amount:    req.Amount,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		fail(c, err, "purchase")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) postStreak(c *gin.Context) {
	res, err := h.ledger.UpdateDailyStreak(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err, "streak")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getHistory(c *gin.Context) {
	events, err := h.ledger.History(c.Request.Context(), c.Param("userId"), queryLimit(c))
	if err != nil {
		fail(c, err, "history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "items": events})
}

func (h *Handler) getActivities(c *gin.Context) {
	c.JSON(http.StatusOK, hype.Activities())
}

type postAchievementReq struct {
	Kind string `json:"kind"`
}

func (h *Handler) postAchievement(c *gin.Context) {
	var req postAchievementReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	res, err := h.ledger.RecordAchievement(c.Request.Context(), c.Param("userId"), req.Kind)
	if err != nil {
		fail(c, err, "achievement")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getMilestones(c *gin.Context) {
	c.JSON(http.StatusOK, hype.Milestones())
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	weekly, _ := strconv.ParseBool(c.DefaultQuery("weekly", "false"))
	board, err := h.ledger.Leaderboard(c.Request.Context(), hype.LeaderboardQuery{
		Scope:         hype.Scope(c.DefaultQuery("scope", string(hype.ScopeGlobal))),
		Filter:        c.Query("filter"),
		Limit:         queryLimit(c),
		IncludeWeekly: weekly,
	})
	if err != nil {
		fail(c, err, "leaderboard")
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) getNotifications(c *gin.Context) {
	notes, err := h.ledger.Notifications(c.Request.Context(), c.Param("userId"), queryLimit(c))
	if err != nil {
		fail(c, err, "notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(notes), "items": notes})
}

func (h *Handler) getSustainability(c *gin.Context) {
	r, err := h.ledger.CheckSustainability(c.Request.Context())
	if err != nil {
		fail(c, err, "sustainability")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) getSnapshots(c *gin.Context) {
	limit := queryLimit(c)
	if limit <= 0 || limit > 500 {
		limit = 48
	}
	var snaps []models.EconomySnapshot
	if err := h.db.WithContext(c.Request.Context()).Order("as_of DESC").Limit(limit).Find(&snaps).Error; err != nil {
		fail(c, err, "snapshots")
		return
	}
	c.JSON(http.StatusOK, snaps)
}
