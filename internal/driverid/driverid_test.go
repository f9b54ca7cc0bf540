package driverid

import (
	"context"
	"errors"
	"testing"

	"github.com/exceltravels/duty-track/internal/model"
)

type fakeStore struct {
	ids []string
}

func (s *fakeStore) LastDriverID(ctx context.Context) (string, error) {
	if len(s.ids) == 0 {
		return "", model.NewError("driver", model.ErrNotFound)
	}

	// numeric-suffix ordering, matching the store query
	last := s.ids[0]
	lastN, err := Suffix(last)
	if err != nil {
		return "", err
	}
	for _, id := range s.ids[1:] {
		n, err := Suffix(id)
		if err != nil {
			return "", err
		}
		if n > lastN {
			last, lastN = id, n
		}
	}
	return last, nil
}

func (s *fakeStore) DriverIDExists(ctx context.Context, id string) (bool, error) {
	for _, existing := range s.ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

func TestAllocateFirst(t *testing.T) {
	a := New(&fakeStore{})

	id, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "D001" {
		t.Errorf("got %q, want D001", id)
	}
}

func TestAllocateSequential(t *testing.T) {
	store := &fakeStore{}
	a := New(store)
	ctx := context.Background()

	for _, want := range []string{"D001", "D002", "D003"} {
		id, err := a.Allocate(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if id != want {
			t.Errorf("got %q, want %q", id, want)
		}
		store.ids = append(store.ids, id)
	}
}

// staleStore reports a last identifier below ones that already exist, the
// way a racing allocator observes the table.
type staleStore struct {
	fakeStore
	last string
}

func (s *staleStore) LastDriverID(ctx context.Context) (string, error) {
	return s.last, nil
}

func TestAllocateSkipsCollisions(t *testing.T) {
	// last is stale: D005 already exists, so the first candidate collides and
	// the allocator must advance past it.
	store := &staleStore{
		fakeStore: fakeStore{ids: []string{"D004", "D005"}},
		last:      "D004",
	}
	a := New(store)

	id, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "D006" {
		t.Errorf("got %q, want D006", id)
	}
}

// collidingStore reports every candidate as taken, as two racing allocators
// chasing each other would.
type collidingStore struct {
	fakeStore
}

func (s *collidingStore) DriverIDExists(ctx context.Context, id string) (bool, error) {
	return true, nil
}

func TestAllocateBoundedRetries(t *testing.T) {
	store := &collidingStore{fakeStore{ids: []string{"D001"}}}
	a := &Allocator{Store: store, MaxRetries: 2}

	_, err := a.Allocate(context.Background())
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("got %v, want ErrExhausted", err)
	}
}

func TestAllocatePastPaddedMax(t *testing.T) {
	// D999 sorts above every wider identifier as text. With more widened
	// identifiers than the retry budget, an allocator still starting from
	// D999 would exhaust its retries; the numeric ordering must not.
	ids := []string{"D999"}
	for n := 1000; n <= 1011; n++ {
		ids = append(ids, Format(n))
	}
	a := New(&fakeStore{ids: ids})

	id, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "D1012" {
		t.Errorf("got %q, want D1012", id)
	}
}

func TestFormatWidensPastPadding(t *testing.T) {
	if got := Format(7); got != "D007" {
		t.Errorf("got %q, want D007", got)
	}
	if got := Format(1234); got != "D1234" {
		t.Errorf("got %q, want D1234", got)
	}
}

func TestSuffix(t *testing.T) {
	n, err := Suffix("D042")
	if err != nil || n != 42 {
		t.Errorf("got %d, %v; want 42, nil", n, err)
	}

	if _, err := Suffix("X01"); err == nil {
		t.Error("expected error for malformed identifier")
	}
}
