// Package monitor snapshots the health of the HYPE economy on a schedule.
package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/hype"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/util"
)

// StartScheduler takes a snapshot shortly after start and then every
// interval until ctx is done.
func StartScheduler(ctx context.Context, db *gorm.DB, ledger *hype.Ledger, interval time.Duration) {
	go seedOnce(ctx, db, ledger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := TakeSnapshot(ctx, db, ledger); err != nil {
				logrus.WithError(err).Warn("economy snapshot failed")
			}
		}
	}
}

func seedOnce(ctx context.Context, db *gorm.DB, ledger *hype.Ledger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}
	if _, err := TakeSnapshot(ctx, db, ledger); err != nil {
		logrus.WithError(err).Warn("initial economy snapshot failed")
	}
}

// TakeSnapshot runs the sustainability check and persists the result.
func TakeSnapshot(ctx context.Context, db *gorm.DB, ledger *hype.Ledger) (*models.EconomySnapshot, error) {
	report, err := ledger.CheckSustainability(ctx)
	if err != nil {
		return nil, err
	}
	var accounts int64
	if err := db.WithContext(ctx).Model(&models.Account{}).Count(&accounts).Error; err != nil {
		return nil, err
	}

	snap := &models.EconomySnapshot{
		TotalEarned:   report.TotalEarned,
		TotalSpent:    report.TotalSpent,
		Ratio:         report.Ratio.StringFixed(4),
		IsSustainable: report.IsSustainable,
		Accounts:      accounts,
		AsOf:          util.Now(),
	}
	if err := db.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, err
	}

	entry := logrus.WithFields(logrus.Fields{
		"earned":   report.TotalEarned,
		"spent":    report.TotalSpent,
		"ratio":    snap.Ratio,
		"accounts": accounts,
	})
	if !report.IsSustainable {
		entry.Warnf("HYPE economy below %s earn/spend ratio", hype.SustainableRatio)
	} else {
		entry.Info("economy snapshot recorded")
	}
	return snap, nil
}
