package hype

import (
	"context"
	"fmt"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/util"
)

type StreakResult struct {
	UserID      string  `json:"userId"`
	DailyStreak int     `json:"dailyStreak"`
	MaxStreak   int     `json:"maxStreak"`
	Multiplier  float64 `json:"multiplier"`
	// Changed is false when the streak was already counted today.
	Changed     bool    `json:"changed"`
	// Bonus is the HYPE credited for reaching a bonus streak, after the
	// multiplier.
	Bonus       int64   `json:"bonus"`
}

// UpdateDailyStreak records today's activity. Calling it again on the same
// calendar day is a no-op.
func (l *Ledger) UpdateDailyStreak(ctx context.Context, userID string) (StreakResult, error) {
	var out StreakResult
	err := l.atomically(ctx, []string{userID}, func(u *unit) error {
		acct, err := u.loadAccount(userID)
		if err != nil {
			return err
		}
		out = StreakResult{UserID: userID}

		next := acct.DailyStreak
		advanced := false
		if acct.LastActiveAt == nil {
			next = 1
		} else {
			switch days := util.CalendarDaysBetween(*acct.LastActiveAt, u.now); {
			case days <= 0:
				out.DailyStreak = acct.DailyStreak
				out.MaxStreak = acct.MaxStreak
				out.Multiplier = MultiplierFor(acct.DailyStreak).InexactFloat64()
				return nil
			case days == 1:
				next = acct.DailyStreak + 1
				advanced = true
			default:
				next = 1
			}
		}

		now := u.now
		acct.DailyStreak = next
		acct.LastActiveAt = &now
		if next > acct.MaxStreak {
			acct.MaxStreak = next
		}
		if err := u.saveAccount(acct); err != nil {
			return err
		}
		out.Changed = true

		if bonus := streakBonus(next); advanced && bonus > 0 {
			awarded, err := u.earn(acct, bonus, "streak_bonus",
				fmt.Sprintf("%d-day streak bonus", next),
				map[string]any{"streak": next})
			if err != nil {
				return err
			}
			out.Bonus = awarded
			u.notify(Notice{
				UserID:  userID,
				Kind:    "streak_bonus",
				Title:   fmt.Sprintf("%d-day streak! +%d HYPE", next, awarded),
				Payload: map[string]any{"streak": next, "amount": awarded},
			})
		}

		out.DailyStreak = acct.DailyStreak
		out.MaxStreak = acct.MaxStreak
		out.Multiplier = MultiplierFor(acct.DailyStreak).InexactFloat64()
		return nil
	})
	return out, err
}
