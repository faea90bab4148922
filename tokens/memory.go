package tokens

import (
	"context"
	"fmt"
	"sync"

	"github.com/curatelabs/tcr/shared"
)

type account struct {
	free   shared.Amount
	locked shared.Amount
}

// InMemory is an in-memory Ledger. It allows running the registry engine
// in a standalone mode without an external token ledger and backs the
// package tests.
type InMemory struct {
	mu       sync.Mutex
	accounts map[string]*account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]*account)}
}

// Mint credits amount to the free balance of account out of thin air.
// It exists for seeding test and standalone deployments; the production
// ledger has no equivalent.
func (l *InMemory) Mint(account string, amount shared.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.account(account)
	free, err := shared.SafeAdd(acc.free, amount)
	if err != nil {
		return fmt.Errorf("minting %d to %s: %w", amount, account, err)
	}
	acc.free = free
	return nil
}

func (l *InMemory) BalanceOf(ctx context.Context, account string) (shared.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(account).free, nil
}

func (l *InMemory) LockedOf(ctx context.Context, account string) (shared.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(account).locked, nil
}

func (l *InMemory) Transfer(ctx context.Context, from, to string, amount shared.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.account(from)
	if src.free < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, src.free, amount)
	}
	// A self-transfer is a funded no-op; src and dst alias the same
	// account record.
	if from == to {
		return nil
	}
	dst := l.account(to)
	credited, err := shared.SafeAdd(dst.free, amount)
	if err != nil {
		return fmt.Errorf("crediting %s: %w", to, err)
	}
	src.free -= amount
	dst.free = credited
	return nil
}

func (l *InMemory) Lock(ctx context.Context, account string, amount shared.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(account)
	if acc.free < amount {
		return fmt.Errorf("%w: %s has %d free, needs %d", ErrInsufficientBalance, account, acc.free, amount)
	}
	locked, err := shared.SafeAdd(acc.locked, amount)
	if err != nil {
		return fmt.Errorf("locking for %s: %w", account, err)
	}
	acc.free -= amount
	acc.locked = locked
	return nil
}

func (l *InMemory) Unlock(ctx context.Context, account string, amount shared.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(account)
	if acc.locked < amount {
		return fmt.Errorf("%w: %s has %d locked, needs %d", ErrInsufficientLocked, account, acc.locked, amount)
	}
	free, err := shared.SafeAdd(acc.free, amount)
	if err != nil {
		return fmt.Errorf("unlocking for %s: %w", account, err)
	}
	acc.locked -= amount
	acc.free = free
	return nil
}

// account returns the record for the given id, creating it on first use.
// Callers must hold l.mu.
func (l *InMemory) account(id string) *account {
	acc, ok := l.accounts[id]
	if !ok {
		acc = &account{}
		l.accounts[id] = acc
	}
	return acc
}
