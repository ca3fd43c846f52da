package hype

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

// SustainableRatio is the minimum earned/spent ratio (the 130% rule).
var SustainableRatio = decimal.RequireFromString("1.3")

type SustainabilityReport struct {
	TotalEarned   int64           `json:"totalEarned"`
	TotalSpent    int64           `json:"totalSpent"`
	Ratio         decimal.Decimal `json:"ratio"`
	IsSustainable bool            `json:"isSustainable"`
}

// CheckSustainability compares all EARNED against all SPENT events. With
// nothing spent the ratio is reported as zero and the economy counts as
// sustainable.
func (l *Ledger) CheckSustainability(ctx context.Context) (SustainabilityReport, error) {
	var totals struct {
		Earned int64
		Spent  int64
	}
	err := l.db.WithContext(ctx).
		Model(&models.HypeEvent{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS earned, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS spent",
			models.EventEarned, models.EventSpent,
		).
		Scan(&totals).Error
	if err != nil {
		return SustainabilityReport{}, err
	}

	r := SustainabilityReport{
		TotalEarned:   totals.Earned,
		TotalSpent:    totals.Spent,
		Ratio:         decimal.Zero,
		IsSustainable: true,
	}
	if totals.Spent > 0 {
		r.Ratio = decimal.NewFromInt(totals.Earned).DivRound(decimal.NewFromInt(totals.Spent), 4)
		r.IsSustainable = r.Ratio.GreaterThanOrEqual(SustainableRatio)
	}
	return r, nil
}
