package driverid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/exceltravels/duty-track/internal/model"
)

const (
	prefix         = "D"
	padWidth       = 3
	defaultRetries = 10
)

var ErrExhausted = errors.New("driverid: retries exhausted")

// Store is the minimal lookup surface the allocator needs.
type Store interface {
	// LastDriverID returns the greatest existing driver identifier, or
	// model.ErrNotFound when no drivers exist yet.
	LastDriverID(ctx context.Context) (string, error)
	DriverIDExists(ctx context.Context, id string) (bool, error)
}

// Allocator produces the next sequential driver identifier (D001, D002, …).
// Collisions re-check with the next candidate, but the loop is bounded:
// two concurrent allocators can still observe the same last identifier, so
// after MaxRetries attempts the caller gets ErrExhausted rather than spinning.
type Allocator struct {
	Store      Store
	MaxRetries int
}

func New(store Store) *Allocator {
	return &Allocator{Store: store, MaxRetries: defaultRetries}
}

func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	next := 1

	last, err := a.Store.LastDriverID(ctx)
	switch {
	case errors.Is(err, model.ErrNotFound):
		// first driver ever
	case err != nil:
		return "", err
	default:
		suffix, err := Suffix(last)
		if err != nil {
			return "", err
		}
		next = suffix + 1
	}

	retries := a.MaxRetries
	if retries <= 0 {
		retries = defaultRetries
	}

	for attempt := 0; attempt < retries; attempt++ {
		candidate := Format(next)

		exists, err := a.Store.DriverIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}

		next++
	}

	return "", ErrExhausted
}

// Format renders a numeric suffix as a driver identifier. Past 999 the
// numeral simply grows wider than the padding.
func Format(n int) string {
	return fmt.Sprintf("%s%0*d", prefix, padWidth, n)
}

func Suffix(id string) (int, error) {
	raw := strings.TrimPrefix(id, prefix)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("driverid: malformed identifier %q: %w", id, err)
	}
	return n, nil
}
