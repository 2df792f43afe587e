// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestRuleError verifies error formatting and unwrapping for both violation
// tiers.
func TestRuleError(t *testing.T) {
	t.Run("transaction tier", func(t *testing.T) {
		err := txRuleError(wire.RejectNonstandard, RejectTxSize,
			"transaction is too large")
		require.Equal(t, "transaction is too large", err.Error())

		var txErr TxRuleError
		require.ErrorAs(t, err, &txErr)
		require.Equal(t, wire.RejectNonstandard, txErr.RejectCode)
		require.Equal(t, RejectTxSize, txErr.Reason)

		var pkgErr PackageRuleError
		require.False(t, errors.As(err, &pkgErr))
	})

	t.Run("package tier", func(t *testing.T) {
		err := packageRuleError(RejectPackageNotSorted,
			"package is not sorted")
		require.Equal(t, "package is not sorted", err.Error())

		var pkgErr PackageRuleError
		require.ErrorAs(t, err, &pkgErr)
		require.Equal(t, RejectPackageNotSorted, pkgErr.Reason)

		var txErr TxRuleError
		require.False(t, errors.As(err, &txErr))
	})

	t.Run("nil wrapped error", func(t *testing.T) {
		err := RuleError{}
		require.Equal(t, "<nil>", err.Error())
	})

	t.Run("wrapped through fmt", func(t *testing.T) {
		inner := txRuleError(wire.RejectDuplicate, RejectTxDuplicate,
			"duplicate transaction")
		err := fmt.Errorf("processing failed: %w", inner)

		var txErr TxRuleError
		require.ErrorAs(t, err, &txErr)
		require.Equal(t, RejectTxDuplicate, txErr.Reason)
	})
}

// TestErrorReason verifies extraction of the stable reject reason from
// arbitrary errors.
func TestErrorReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transaction rule error",
			err: txRuleError(wire.RejectInsufficientFee,
				RejectTxFeeTooLow, "fee too low"),
			want: RejectTxFeeTooLow,
		},
		{
			name: "package rule error",
			err: packageRuleError(RejectPackageConflict,
				"conflicting spends"),
			want: RejectPackageConflict,
		},
		{
			name: "plain error",
			err:  errors.New("something else"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, ErrorReason(test.err))
		})
	}
}
