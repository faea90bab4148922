// Package tokens defines the bonded-transfer adapter between the
// registry core and the underlying transferable-balance ledger.
package tokens

import (
	"context"
	"errors"

	"github.com/curatelabs/tcr/shared"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientLocked  = errors.New("insufficient locked balance")
)

//go:generate mockgen -package mocks -destination mocks/ledger.go . Ledger

// Ledger moves stake between participants. All amounts are non-negative
// integers in the smallest indivisible unit; operations that would
// overflow fail rather than wrap. Implementations must apply each call
// atomically.
type Ledger interface {
	// BalanceOf returns the freely transferable balance of account.
	BalanceOf(ctx context.Context, account string) (shared.Amount, error)
	// LockedOf returns the balance locked for voting rights.
	LockedOf(ctx context.Context, account string) (shared.Amount, error)
	// Transfer moves amount from the free balance of one account to
	// another.
	Transfer(ctx context.Context, from, to string, amount shared.Amount) error
	// Lock reserves amount of the account's free balance for voting
	// rights.
	Lock(ctx context.Context, account string, amount shared.Amount) error
	// Unlock releases previously locked balance back to the free
	// balance.
	Unlock(ctx context.Context, account string, amount shared.Amount) error
}
