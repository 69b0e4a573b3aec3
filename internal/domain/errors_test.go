package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "order not found", err: ErrOrderNotFound, want: true},
		{name: "product not found", err: ErrProductNotFound, want: true},
		{name: "wallet not found", err: ErrWalletNotFound, want: true},
		{name: "user not found", err: ErrUserNotFound, want: true},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", ErrOrderNotFound), want: true},
		{name: "other error", err: ErrWalletBalanceConflict, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNotFound(tc.err); got != tc.want {
				t.Fatalf("IsNotFound(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsBalanceConflict(t *testing.T) {
	if !IsBalanceConflict(ErrWalletBalanceConflict) {
		t.Fatal("expected balance conflict to be detected")
	}
	if !IsBalanceConflict(errors.Join(ErrWalletBalanceConflict, errors.New("extra context"))) {
		t.Fatal("expected wrapped balance conflict to be detected")
	}
	if IsBalanceConflict(ErrOrderNotFound) {
		t.Fatal("did not expect not-found to be a balance conflict")
	}
}
