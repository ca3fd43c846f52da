package hype

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

type AchievementResult struct {
	UserID    string              `json:"userId"`
	Count     int                 `json:"count"`
	Milestone *models.Achievement `json:"milestone,omitempty"`
	Bonus     int64               `json:"bonus,omitempty"`
}

// RecordAchievement bumps the user's achievement counter and awards the
// milestone the new count lands on, if any.
func (l *Ledger) RecordAchievement(ctx context.Context, userID, kind string) (AchievementResult, error) {
	var out AchievementResult
	err := l.atomically(ctx, []string{userID}, func(u *unit) error {
		acct, err := u.loadAccount(userID)
		if err != nil {
			return err
		}
		acct.AchievementCount++
		if err := u.saveAccount(acct); err != nil {
			return err
		}
		out = AchievementResult{UserID: userID, Count: acct.AchievementCount}
		out.Milestone, out.Bonus, err = u.checkMilestone(acct, kind)
		return err
	})
	return out, err
}

// CheckMilestone awards the milestone matching the user's current count if
// it has not been awarded yet. Safe to call repeatedly.
func (l *Ledger) CheckMilestone(ctx context.Context, userID string) (AchievementResult, error) {
	var out AchievementResult
	err := l.atomically(ctx, []string{userID}, func(u *unit) error {
		acct, err := u.loadAccount(userID)
		if err != nil {
			return err
		}
		out = AchievementResult{UserID: userID, Count: acct.AchievementCount}
		out.Milestone, out.Bonus, err = u.checkMilestone(acct, "")
		return err
	})
	return out, err
}

func (u *unit) checkMilestone(acct *models.Account, kind string) (*models.Achievement, int64, error) {
	m, ok := MilestoneAt(acct.AchievementCount)
	if !ok {
		return nil, 0, nil
	}

	var existing models.Achievement
	err := u.tx.Where("user_id = ? AND threshold = ?", acct.UserID, m.Threshold).First(&existing).Error
	if err == nil {
		return nil, 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}

	rec := &models.Achievement{
		UserID:    acct.UserID,
		Threshold: m.Threshold,
		Title:     m.Title,
		Reward:    m.Reward,
		CreatedAt: u.now.UTC(),
	}
	if err := u.tx.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, 0, fmt.Errorf("%w: milestone %d for %s", ErrConflict, m.Threshold, acct.UserID)
		}
		return nil, 0, err
	}

	meta := map[string]any{"threshold": m.Threshold}
	if kind != "" {
		meta["trigger"] = kind
	}
	awarded, err := u.earn(acct, m.Reward, "milestone", m.Title, meta)
	if err != nil {
		return nil, 0, err
	}
	u.notify(Notice{
		UserID:  acct.UserID,
		Kind:    "milestone",
		Title:   fmt.Sprintf("Achievement unlocked: %s", m.Title),
		Body:    fmt.Sprintf("+%d HYPE", awarded),
		Payload: map[string]any{"threshold": m.Threshold, "amount": awarded},
	})
	return rec, awarded, nil
}
