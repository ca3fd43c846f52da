// Package hype implements the HYPE ledger: per-user balances, the
// append-only event log, streak multipliers, milestone bonuses and
// leaderboards.
//
// Every balance-changing operation runs in one database transaction while
// holding an in-process lock on each account it touches. Account rows carry
// a version column; a write that loses a cross-process race fails with
// ErrConflict and the whole operation is retried once from a fresh read.
package hype

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/util"
)

const DefaultWelcomeGrant = 500

type Ledger struct {
	db           *gorm.DB
	notifier     Notifier
	locks        *accountLocks
	now          func() time.Time
	welcomeGrant int64
}

type Option func(*Ledger)

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithWelcomeGrant(amount int64) Option {
	return func(l *Ledger) { l.welcomeGrant = amount }
}

func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:           db,
		locks:        newAccountLocks(),
		now:          util.Now,
		welcomeGrant: DefaultWelcomeGrant,
	}
	for _, o := range opts {
		o(l)
	}
	if l.notifier == nil {
		l.notifier = NewStoreNotifier(db)
	}
	return l
}

// Balance is the caller-facing view of an Account.
type Balance struct {
	UserID            string  `json:"userId"`
	FreeHype          int64   `json:"freeHype"`
	PaidHype          int64   `json:"paidHype"`
	Total             int64   `json:"total"`
	TotalEarned       int64   `json:"totalEarned"`
	TotalSpent        int64   `json:"totalSpent"`
	TotalReceived     int64   `json:"totalReceived"`
	DailyStreak       int     `json:"dailyStreak"`
	MaxStreak         int     `json:"maxStreak"`
	CurrentMultiplier float64 `json:"currentMultiplier"`
	AchievementCount  int     `json:"achievementCount"`
	// Awarded is the post-multiplier amount of the earn that produced
	// this balance. Zero for other operations.
	Awarded           int64   `json:"awarded,omitempty"`
}

func balanceOf(a *models.Account) Balance {
	return Balance{
		UserID:            a.UserID,
		FreeHype:          a.FreeHype,
		PaidHype:          a.PaidHype,
		Total:             a.Available(),
		TotalEarned:       a.TotalEarned,
		TotalSpent:        a.TotalSpent,
		TotalReceived:     a.TotalReceived,
		DailyStreak:       a.DailyStreak,
		MaxStreak:         a.MaxStreak,
		CurrentMultiplier: a.CurrentMultiplier,
		AchievementCount:  a.AchievementCount,
	}
}

// unit is one attempt of an atomic ledger operation.
type unit struct {
	tx      *gorm.DB
	now     time.Time
	notices []Notice
}

func (u *unit) notify(n Notice) {
	u.notices = append(u.notices, n)
}

// atomically runs fn in a transaction while holding the locks for ids.
// Notices queued by fn are delivered only after commit.
func (l *Ledger) atomically(ctx context.Context, ids []string, fn func(u *unit) error) error {
	release := l.locks.lock(ids...)
	defer release()

	var u *unit
	attempt := func() error {
		u = &unit{now: l.now()}
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			u.tx = tx
			return fn(u)
		})
	}
	err := attempt()
	if errors.Is(err, ErrConflict) {
		logrus.WithField("accounts", ids).Info("ledger conflict, retrying with fresh read")
		err = attempt()
	}
	if err != nil {
		return err
	}
	l.deliver(ctx, u.notices)
	return nil
}

func (u *unit) loadAccount(userID string) (*models.Account, error) {
	var a models.Account
	if err := u.tx.Where("user_id = ?", userID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &a, nil
}

// saveAccount writes a back with a compare-and-swap on its version.
func (u *unit) saveAccount(a *models.Account) error {
	res := u.tx.Model(&models.Account{}).
		Where("user_id = ? AND version = ?", a.UserID, a.Version).
		Updates(map[string]any{
			"free_hype":          a.FreeHype,
			"paid_hype":          a.PaidHype,
			"total_earned":       a.TotalEarned,
			"total_spent":        a.TotalSpent,
			"total_received":     a.TotalReceived,
			"daily_streak":       a.DailyStreak,
			"max_streak":         a.MaxStreak,
			"current_multiplier": a.CurrentMultiplier,
			"achievement_count":  a.AchievementCount,
			"last_active_at":     a.LastActiveAt,
			"version":            a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s", ErrConflict, a.UserID)
	}
	a.Version++
	return nil
}

func (u *unit) appendEvent(e *models.HypeEvent, meta map[string]any) error {
	e.Ref = uuid.NewString()
	e.CreatedAt = u.now.UTC()
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		e.Metadata = b
	}
	return u.tx.Create(e).Error
}

func strPtr(s string) *string { return &s }

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// NewAccount describes a signup.
type NewAccount struct {
	DisplayName string
	SchoolID    *string
	Sport       string
}

// CreateSchool registers a school for school-scoped aggregates.
func (l *Ledger) CreateSchool(ctx context.Context, name string) (*models.School, error) {
	s := &models.School{ID: uuid.NewString(), Name: name}
	if err := l.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// CreateAccount registers a user and opens their account with the welcome
// grant.
func (l *Ledger) CreateAccount(ctx context.Context, in NewAccount) (*models.Account, error) {
	userID := uuid.NewString()
	var acct *models.Account
	err := l.atomically(ctx, []string{userID}, func(u *unit) error {
		if in.SchoolID != nil {
			var n int64
			if err := u.tx.Model(&models.School{}).Where("id = ?", *in.SchoolID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: school %s", ErrNotFound, *in.SchoolID)
			}
		}
		user := models.User{ID: userID, DisplayName: in.DisplayName, SchoolID: in.SchoolID, Sport: in.Sport}
		if err := u.tx.Create(&user).Error; err != nil {
			return err
		}
		acct = &models.Account{
			UserID:            userID,
			FreeHype:          l.welcomeGrant,
			TotalEarned:       l.welcomeGrant,
			CurrentMultiplier: 1,
		}
		if err := u.tx.Create(acct).Error; err != nil {
			return err
		}
		if l.welcomeGrant == 0 {
			return nil
		}
		ev := models.HypeEvent{
			Type:        models.EventEarned,
			Amount:      l.welcomeGrant,
			ToUserID:    strPtr(userID),
			Category:    "welcome",
			Description: "Welcome to UltraPreps",
		}
		if err := u.appendEvent(&ev, nil); err != nil {
			return err
		}
		return u.creditSchool(userID, l.welcomeGrant)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// GetBalance reads an account.
func (l *Ledger) GetBalance(ctx context.Context, userID string) (Balance, error) {
	var a models.Account
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Balance{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return Balance{}, err
	}
	return balanceOf(&a), nil
}

// EarnRequest credits free HYPE. Either Amount or Activity must be set;
// Activity wins when both are.
type EarnRequest struct {
	UserID      string
	Amount      int64
	Activity    string
	Category    string
	Description string
	Metadata    map[string]any
}

func (l *Ledger) Earn(ctx context.Context, req EarnRequest) (Balance, error) {
	base := req.Amount
	category := req.Category
	if req.Activity != "" {
		pts, err := ActivityPoints(req.Activity)
		if err != nil {
			return Balance{}, err
		}
		base = pts
		if category == "" {
			category = req.Activity
		}
	}
	if err := checkAmount(base); err != nil {
		return Balance{}, err
	}

	var out Balance
	err := l.atomically(ctx, []string{req.UserID}, func(u *unit) error {
		acct, err := u.loadAccount(req.UserID)
		if err != nil {
			return err
		}
		awarded, err := u.earn(acct, base, category, req.Description, req.Metadata)
		if err != nil {
			return err
		}
		out = balanceOf(acct)
		out.Awarded = awarded
		return nil
	})
	return out, err
}

// earn applies the streak multiplier to base and credits the result.
func (u *unit) earn(acct *models.Account, base int64, category, description string, meta map[string]any) (int64, error) {
	m := MultiplierFor(acct.DailyStreak)
	amount := ApplyMultiplier(base, m)

	if err := creditBalance(acct, false, amount); err != nil {
		return 0, err
	}
	if err := addTo(&acct.TotalEarned, amount); err != nil {
		return 0, err
	}
	acct.CurrentMultiplier = m.InexactFloat64()
	if err := u.saveAccount(acct); err != nil {
		return 0, err
	}

	md := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		md[k] = v
	}
	md["multiplier"] = m.String()
	md["baseAmount"] = base
	ev := models.HypeEvent{
		Type:        models.EventEarned,
		Amount:      amount,
		ToUserID:    strPtr(acct.UserID),
		Category:    category,
		Description: description,
	}
	if err := u.appendEvent(&ev, md); err != nil {
		return 0, err
	}
	if err := u.creditSchool(acct.UserID, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// creditSchool adds amount to the user's school aggregate, if any. The
// update only applies while the total has room for amount.
func (u *unit) creditSchool(userID string, amount int64) error {
	var user models.User
	if err := u.tx.Select("school_id").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if user.SchoolID == nil {
		return nil
	}
	res := u.tx.Model(&models.School{}).
		Where("id = ? AND hype_total <= ?", *user.SchoolID, math.MaxInt64-amount).
		Update("hype_total", gorm.Expr("hype_total + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := u.tx.Model(&models.School{}).Where("id = ?", *user.SchoolID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%w: school %s", ErrBalanceOverflow, *user.SchoolID)
}

// debit takes amount from free HYPE first, then paid. The caller has
// already checked the balance. Returns the portion taken from paid.
func debit(acct *models.Account, amount int64) (int64, error) {
	if err := addTo(&acct.TotalSpent, amount); err != nil {
		return 0, err
	}
	fromFree := amount
	if fromFree > acct.FreeHype {
		fromFree = acct.FreeHype
	}
	fromPaid := amount - fromFree
	acct.FreeHype -= fromFree
	acct.PaidHype -= fromPaid
	return fromPaid, nil
}

type SpendRequest struct {
	UserID      string
	Amount      int64
	Category    string
	Description string
}

func (l *Ledger) Spend(ctx context.Context, req SpendRequest) (Balance, error) {
	if err := checkAmount(req.Amount); err != nil {
		return Balance{}, err
	}
	var out Balance
	err := l.atomically(ctx, []string{req.UserID}, func(u *unit) error {
		acct, err := u.loadAccount(req.UserID)
		if err != nil {
			return err
		}
		if acct.Available() < req.Amount {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, acct.Available(), req.Amount)
		}
		fromPaid, err := debit(acct, req.Amount)
		if err != nil {
			return err
		}
		if err := u.saveAccount(acct); err != nil {
			return err
		}
		ev := models.HypeEvent{
			Type:        models.EventSpent,
			Amount:      req.Amount,
			FromUserID:  strPtr(acct.UserID),
			Category:    req.Category,
			Description: req.Description,
		}
		if err := u.appendEvent(&ev, map[string]any{"paidPortion": fromPaid}); err != nil {
			return err
		}
		out = balanceOf(acct)
		return nil
	})
	return out, err
}

type GiftRequest struct {
	FromUserID string
	ToUserID   string
	Amount     int64
	Message    string
}

// Gift moves HYPE between two accounts all-or-nothing. The receiver is
// credited free HYPE and TotalReceived; their TotalEarned is untouched.
func (l *Ledger) Gift(ctx context.Context, req GiftRequest) error {
	if err := checkAmount(req.Amount); err != nil {
		return err
	}
	if req.FromUserID == req.ToUserID {
		return ErrSelfGift
	}
	return l.atomically(ctx, []string{req.FromUserID, req.ToUserID}, func(u *unit) error {
		sender, err := u.loadAccount(req.FromUserID)
		if err != nil {
			return err
		}
		receiver, err := u.loadAccount(req.ToUserID)
		if err != nil {
			return err
		}
		if sender.Available() < req.Amount {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, sender.Available(), req.Amount)
		}

		fromPaid, err := debit(sender, req.Amount)
		if err != nil {
			return err
		}
		if err := creditBalance(receiver, false, req.Amount); err != nil {
			return err
		}
		if err := addTo(&receiver.TotalReceived, req.Amount); err != nil {
			return err
		}
		if err := u.saveAccount(sender); err != nil {
			return err
		}
		if err := u.saveAccount(receiver); err != nil {
			return err
		}

		meta := map[string]any{"paidPortion": fromPaid}
		if req.Message != "" {
			meta["message"] = req.Message
		}
		ev := models.HypeEvent{
			Type:        models.EventGifted,
			Amount:      req.Amount,
			FromUserID:  strPtr(sender.UserID),
			ToUserID:    strPtr(receiver.UserID),
			Category:    "gift",
			Description: req.Message,
		}
		if err := u.appendEvent(&ev, meta); err != nil {
			return err
		}
		u.notify(Notice{
			UserID:  receiver.UserID,
			Kind:    "hype_received",
			Title:   fmt.Sprintf("You received %d HYPE!", req.Amount),
			Body:    req.Message,
			Payload: map[string]any{"from": sender.UserID, "amount": req.Amount, "event": ev.Ref},
		})
		return nil
	})
}

type PurchaseRequest struct {
	UserID    string
	Amount    int64
	PaymentID string
}

// Purchase credits paid HYPE for a verified payment. Replaying a payment id
// returns the current balance without crediting again.
func (l *Ledger) Purchase(ctx context.Context, req PurchaseRequest) (Balance, error) {
	if err := checkAmount(req.Amount); err != nil {
		return Balance{}, err
	}
	if req.PaymentID == "" {
		return Balance{}, ErrMissingPaymentID
	}
	var out Balance
	err := l.atomically(ctx, []string{req.UserID}, func(u *unit) error {
		acct, err := u.loadAccount(req.UserID)
		if err != nil {
			return err
		}
		var existing models.HypeEvent
		err = u.tx.Where("payment_id = ?", req.PaymentID).First(&existing).Error
		switch {
		case err == nil:
			if existing.ToUserID == nil || *existing.ToUserID != req.UserID {
				return fmt.Errorf("%w: %s", ErrDuplicatePayment, req.PaymentID)
			}
			out = balanceOf(acct)
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := creditBalance(acct, true, req.Amount); err != nil {
			return err
		}
		if err := u.saveAccount(acct); err != nil {
			return err
		}
		ev := models.HypeEvent{
			Type:        models.EventPurchased,
			Amount:      req.Amount,
			ToUserID:    strPtr(acct.UserID),
			Category:    "purchase",
			Description: fmt.Sprintf("Purchased %d HYPE", req.Amount),
			PaymentID:   strPtr(req.PaymentID),
		}
		if err := u.appendEvent(&ev, nil); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicatePayment, req.PaymentID)
			}
			return err
		}
		out = balanceOf(acct)
		return nil
	})
	return out, err
}

// History returns events involving userID, most recent first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]models.HypeEvent, error) {
	var out []models.HypeEvent
	err := l.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("id DESC").
		Limit(clampLimit(limit, 50, 500)).
		Find(&out).Error
	return out, err
}
