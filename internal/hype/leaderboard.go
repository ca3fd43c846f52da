package hype

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeSchool Scope = "school"
	ScopeSport  Scope = "sport"
)

const weeklyWindow = 7 * 24 * time.Hour

type LeaderboardQuery struct {
	Scope Scope
	// Filter is the school id or sport name. Ignored for global.
	Filter        string
	Limit         int
	IncludeWeekly bool
}

type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ScopeLabel  string `json:"scopeLabel"`
	TotalHype   int64  `json:"totalHype"`
	WeeklyHype  int64  `json:"weeklyHype"`
	Rank        int    `json:"rank"`
}

// Leaderboard ranks accounts by lifetime earned HYPE, highest first, ties
// by user id.
func (l *Ledger) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	type row struct {
		UserID      string
		DisplayName string
		Sport       string
		SchoolName  *string
		TotalEarned int64
	}

	db := l.db.WithContext(ctx).
		Table("accounts").
		Select("accounts.user_id, users.display_name, users.sport, schools.name AS school_name, accounts.total_earned").
		Joins("JOIN users ON users.id = accounts.user_id").
		Joins("LEFT JOIN schools ON schools.id = users.school_id")

	switch q.Scope {
	case ScopeGlobal, "":
		q.Scope = ScopeGlobal
	case ScopeSchool:
		if q.Filter == "" {
			return nil, fmt.Errorf("%w: school scope needs a school id", ErrInvalidScope)
		}
		db = db.Where("users.school_id = ?", q.Filter)
	case ScopeSport:
		if q.Filter == "" {
			return nil, fmt.Errorf("%w: sport scope needs a sport", ErrInvalidScope)
		}
		db = db.Where("LOWER(users.sport) = ?", strings.ToLower(q.Filter))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, q.Scope)
	}

	var rows []row
	err := db.Order("accounts.total_earned DESC, accounts.user_id ASC").
		Limit(clampLimit(q.Limit, 10, 100)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		label := "Global"
		switch q.Scope {
		case ScopeSchool:
			if r.SchoolName != nil {
				label = *r.SchoolName
			}
		case ScopeSport:
			label = r.Sport
		}
		out[i] = LeaderboardEntry{
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			ScopeLabel:  label,
			TotalHype:   r.TotalEarned,
			Rank:        i + 1,
		}
		ids[i] = r.UserID
	}

	if q.IncludeWeekly && len(ids) > 0 {
		weekly, err := l.weeklyEarned(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i].WeeklyHype = weekly[out[i].UserID]
		}
	}
	return out, nil
}

// weeklyEarned sums EARNED events per user over the trailing week. Received
// gifts and purchases are left out so the figure tracks TotalHype.
func (l *Ledger) weeklyEarned(ctx context.Context, ids []string) (map[string]int64, error) {
	var sums []struct {
		ToUserID string
		Total    int64
	}
	since := l.now().UTC().Add(-weeklyWindow)
	err := l.db.WithContext(ctx).
		Model(&models.HypeEvent{}).
		Select("to_user_id, COALESCE(SUM(amount), 0) AS total").
		Where("type = ? AND created_at >= ? AND to_user_id IN ?", models.EventEarned, since, ids).
		Group("to_user_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(sums))
	for _, s := range sums {
		out[s.ToUserID] = s.Total
	}
	return out, nil
}
