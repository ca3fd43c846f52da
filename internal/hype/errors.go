package hype

import "errors"

var (
	// ErrNotFound means the referenced account (or school) does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrInsufficientBalance means free+paid HYPE cannot cover the debit.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConflict is a lost optimistic-version race. The ledger retries it
	// once with a fresh read before returning it.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrBalanceOverflow means a credit would push a balance or counter past
	// what an int64 can hold.
	ErrBalanceOverflow = errors.New("balance limit exceeded")

	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrAmountTooLarge   = errors.New("amount exceeds per-request maximum")
	ErrUnknownActivity  = errors.New("unknown activity")
	ErrSelfGift         = errors.New("cannot gift to yourself")
	ErrInvalidScope     = errors.New("invalid leaderboard scope")
	ErrMissingPaymentID = errors.New("payment id is required")
	ErrDuplicatePayment = errors.New("payment already applied")
)
