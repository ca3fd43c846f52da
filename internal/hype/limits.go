package hype

import (
	"fmt"
	"math"

	"github.com/ultrapreps/ultrapreps-cloud-sub004/internal/models"
)

// MaxAmount caps the amount of a single earn, spend, gift or purchase.
const MaxAmount int64 = 10_000_000

func checkAmount(n int64) error {
	if n <= 0 {
		return ErrInvalidAmount
	}
	if n > MaxAmount {
		return fmt.Errorf("%w: %d > %d", ErrAmountTooLarge, n, MaxAmount)
	}
	return nil
}

// addTo adds amount to a running counter without wrapping.
func addTo(counter *int64, amount int64) error {
	if *counter > math.MaxInt64-amount {
		return fmt.Errorf("%w: %d + %d", ErrBalanceOverflow, *counter, amount)
	}
	*counter += amount
	return nil
}

// creditBalance adds amount to acct's free or paid HYPE. FreeHype+PaidHype
// must stay representable so Available never wraps.
func creditBalance(acct *models.Account, paid bool, amount int64) error {
	if acct.FreeHype > math.MaxInt64-acct.PaidHype-amount {
		return fmt.Errorf("%w: account %s", ErrBalanceOverflow, acct.UserID)
	}
	if paid {
		acct.PaidHype += amount
	} else {
		acct.FreeHype += amount
	}
	return nil
}
