package hype

import (
	"math"

	"github.com/shopspring/decimal"
)

type streakTier struct {
	minStreak  int
	multiplier decimal.Decimal
}

// Highest tier first; only the first match applies.
var streakTiers = []streakTier{
	{30, decimal.RequireFromString("3.0")},
	{7, decimal.RequireFromString("2.0")},
	{3, decimal.RequireFromString("1.5")},
}

var baseMultiplier = decimal.NewFromInt(1)

// MultiplierFor returns the earn multiplier for a daily streak.
func MultiplierFor(streak int) decimal.Decimal {
	for _, t := range streakTiers {
		if streak >= t.minStreak {
			return t.multiplier
		}
	}
	return baseMultiplier
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// ApplyMultiplier returns floor(base * m), saturating at math.MaxInt64.
func ApplyMultiplier(base int64, m decimal.Decimal) int64 {
	v := decimal.NewFromInt(base).Mul(m).Floor()
	if v.GreaterThan(maxInt64) {
		return math.MaxInt64
	}
	return v.IntPart()
}

// streakBonusDays are the streak lengths that pay a one-time bonus of
// streak*10 HYPE.
var streakBonusDays = map[int]bool{3: true, 7: true, 30: true}

func streakBonus(streak int) int64 {
	if !streakBonusDays[streak] {
		return 0
	}
	return int64(streak) * 10
}
