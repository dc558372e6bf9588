package domain

import (
	"errors"
	"testing"
)

func TestParseOrderStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, err := ParseOrderStatus(string(st))
		if err != nil || got != st {
			t.Fatalf("ParseOrderStatus(%q) = %q, %v", st, got, err)
		}
	}

	for _, bad := range []string{"", "shipped", "Lost"} {
		if _, err := ParseOrderStatus(bad); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("ParseOrderStatus(%q): expected ErrInvalidTransition, got %v", bad, err)
		}
	}
}

func TestPermissiveTransitions_AnyToAny(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := from != to
			if got := PermissiveTransitions.CanTransition(from, to); got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestStrictTransitions_TerminalStates(t *testing.T) {
	if !StrictTransitions.CanTransition(StatusProcessing, StatusShipped) {
		t.Error("Processing -> Shipped must be allowed")
	}
	if !StrictTransitions.CanTransition(StatusShipped, StatusProcessing) {
		t.Error("Shipped -> Processing must be allowed")
	}
	for _, terminal := range []OrderStatus{StatusDelivered, StatusCancelled} {
		for _, to := range AllStatuses {
			if StrictTransitions.CanTransition(terminal, to) {
				t.Errorf("%s must be terminal, but allows %s", terminal, to)
			}
		}
	}
}

func TestSourcesFor_ExcludesTarget(t *testing.T) {
	sources := PermissiveTransitions.SourcesFor(StatusShipped)
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %v", sources)
	}
	for _, s := range sources {
		if s == StatusShipped {
			t.Fatal("sources must not contain the target status")
		}
	}

	strict := StrictTransitions.SourcesFor(StatusDelivered)
	if len(strict) != 1 || strict[0] != StatusShipped {
		t.Fatalf("strict sources for Delivered: expected [Shipped], got %v", strict)
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrWeakPassword, ErrValidation},
		{ErrEmptyOrder, ErrValidation},
		{ErrTokenExpired, ErrUnauthenticated},
		{ErrTokenInvalid, ErrUnauthenticated},
		{ErrOwnerNotFound, ErrNotFound},
		{ErrEmailTaken, ErrConflict},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Errorf("%v should wrap %v", tc.err, tc.kind)
		}
	}

	err := WithField(ErrMissingField, "email")
	if FieldOf(err) != "email" || !errors.Is(err, ErrValidation) {
		t.Fatalf("field error lost its field or kind: %v", err)
	}
}
