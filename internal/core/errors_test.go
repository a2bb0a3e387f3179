package core_test

import (
	"errors"
	"fmt"
	"testing"

	"storepos/internal/core"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.Kind
	}{
		{name: "invalid", err: core.Invalidf("bad input"), want: core.KindInvalid},
		{name: "conflict", err: core.Conflictf("already exists"), want: core.KindConflict},
		{name: "not found", err: core.NotFoundf("missing"), want: core.KindNotFound},
		{name: "unauthorized", err: core.Unauthorizedf("denied"), want: core.KindUnauthorized},
		{name: "plain error falls through to internal", err: errors.New("boom"), want: core.KindInternal},
		{name: "nil", err: nil, want: core.KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("creating product: %w", core.Conflictf("serial number taken"))
	if got := core.KindOf(err); got != core.KindConflict {
		t.Errorf("KindOf through wrap = %v, want conflict", got)
	}
}
