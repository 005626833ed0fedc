package landmark

import (
	"errors"
	"fmt"

	"landmark-picker/pkg/geometry"
)

var (
	// ErrOutOfOrderPick is matched by OrderError.
	ErrOutOfOrderPick = errors.New("out of order pick")
	// ErrCapacityExceeded is returned once every slot has been filled.
	ErrCapacityExceeded = errors.New("landmark table is full")
)

// OrderError reports a click on the image that is not being awaited.
type OrderError struct {
	Expected ImageRef
	Got      ImageRef
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%v: expected a point on the %s image, got one on the %s image", ErrOutOfOrderPick, e.Expected, e.Got)
}

func (e *OrderError) Is(target error) bool {
	return target == ErrOutOfOrderPick
}

// Message is the user-facing text for the error.
func (e *OrderError) Message() string {
	if e.Expected == Fixed {
		return "Please choose a point from the first picture before choosing one from the second picture."
	}
	return "Please choose a point from the second picture now instead of choosing one from the first picture."
}

// State is the picking state derived from the slot counter.
type State int

const (
	Idle State = iota
	AwaitingFixed
	AwaitingMoving
	Full
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFixed:
		return "awaiting fixed"
	case AwaitingMoving:
		return "awaiting moving"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Pick describes an accepted click.
type Pick struct {
	Slot  int
	Row   int
	Image ImageRef
	Point geometry.Point
	// PairCompleted is set when this pick stored the moving point of a row.
	PairCompleted bool
}

// Session routes image-space clicks into the table, strictly alternating
// fixed then moving. It is not safe for concurrent use.
type Session struct {
	table *Table
	next  int
}

// NewSession creates a session with an empty table of capacity rows.
func NewSession(capacity int) (*Session, error) {
	t, err := NewTable(capacity)
	if err != nil {
		return nil, err
	}
	return &Session{table: t}, nil
}

// Table returns the live table. Callers must not retain it across Reset.
func (s *Session) Table() *Table {
	return s.table
}

// Capacity returns the table capacity in rows.
func (s *Session) Capacity() int {
	return s.table.Capacity()
}

// NextSlot returns the 0-based index of the next pick.
func (s *Session) NextSlot() int {
	return s.next
}

// Awaiting returns which image the next click must be on.
func (s *Session) Awaiting() ImageRef {
	if s.next%2 == 0 {
		return Fixed
	}
	return Moving
}

// State returns the current picking state.
func (s *Session) State() State {
	switch {
	case s.next == 0:
		return Idle
	case s.next >= 2*s.table.Capacity():
		return Full
	case s.next%2 == 0:
		return AwaitingFixed
	default:
		return AwaitingMoving
	}
}

// CompletedRows returns how many rows have both points set.
func (s *Session) CompletedRows() int {
	return s.next / 2
}

// RecordClick stores p, an image-space point on image ref, into the next
// slot. Errors leave the session unchanged.
func (s *Session) RecordClick(ref ImageRef, p geometry.Point) (Pick, error) {
	if s.State() == Full {
		return Pick{}, ErrCapacityExceeded
	}
	if want := s.Awaiting(); ref != want {
		return Pick{}, &OrderError{Expected: want, Got: ref}
	}

	slot := s.next
	s.table.set(slot, p)
	s.next++

	return Pick{
		Slot:          slot,
		Row:           slot / 2,
		Image:         ref,
		Point:         p,
		PairCompleted: ref == Moving,
	}, nil
}

// Reset clears the table and returns to Idle.
func (s *Session) Reset() {
	s.table.clear()
	s.next = 0
}
