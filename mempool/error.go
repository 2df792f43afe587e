// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"

	"github.com/btcsuite/btcd/wire"
)

// Stable machine-readable reject reasons.  Callers should match on these
// rather than on the free-text description attached to an error.
const (
	// RejectPackageEmpty is returned when a package contains no
	// transactions at all.
	RejectPackageEmpty = "package-empty"

	// RejectPackageTooManyTransactions is returned when a package exceeds
	// the maximum member count.
	RejectPackageTooManyTransactions = "package-too-many-transactions"

	// RejectPackageTooLarge is returned when the summed virtual size of
	// all package members exceeds the maximum.
	RejectPackageTooLarge = "package-too-large"

	// RejectPackageNotSorted is returned when a package member spends an
	// output of itself or of a member that appears later in the sequence.
	RejectPackageNotSorted = "package-not-sorted"

	// RejectPackageConflict is returned when two package members spend the
	// same output.
	RejectPackageConflict = "conflict-in-package"

	// RejectPackageTxFailed is the aggregate reason reported when a
	// package is rejected because at least one member transaction failed
	// its own policy checks.  The failing member's per-transaction result
	// carries the specific reason.
	RejectPackageTxFailed = "transaction failed"

	// RejectTxSize is returned when a transaction exceeds the maximum
	// standard virtual size.
	RejectTxSize = "tx-size"

	// RejectTxVersion is returned when a transaction version is outside
	// the standard range.
	RejectTxVersion = "version"

	// RejectTxDuplicate is returned when a transaction already exists in
	// the pool.
	RejectTxDuplicate = "txn-already-in-mempool"

	// RejectTxMempoolConflict is returned when a transaction spends an
	// output already spent by a different pool transaction.
	RejectTxMempoolConflict = "txn-mempool-conflict"

	// RejectTxMissingInputs is returned when a referenced output does not
	// exist or has already been spent.
	RejectTxMissingInputs = "bad-txns-inputs-missingorspent"

	// RejectTxInBelowOut is returned when a transaction's outputs exceed
	// its inputs in value.
	RejectTxInBelowOut = "bad-txns-in-belowout"

	// RejectTxFeeTooLow is returned when a transaction does not pay the
	// minimum relay fee.
	RejectTxFeeTooLow = "min relay fee not met"

	// RejectTxRecentlyRejected is returned when a transaction failed a
	// recent commit attempt and is refused without re-evaluation.
	RejectTxRecentlyRejected = "recently-rejected"
)

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a transaction or package failed due to one of the many
// validation rules.  The caller can use type assertions on the wrapped error
// to determine the specific violation tier and access the reject reason.
type RuleError struct {
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error so errors.As can reach the underlying
// TxRuleError or PackageRuleError.
func (e RuleError) Unwrap() error {
	return e.Err
}

// TxRuleError identifies a rule violation for a single transaction.  It is
// used to indicate that the transaction failed its individual policy checks.
type TxRuleError struct {
	// RejectCode is the code to be used when sending a reject message to
	// a peer in response to the violation.
	RejectCode wire.RejectCode

	// Reason is the stable machine-readable reject reason.
	Reason string

	// Description is a human-readable description of the violation.
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxRuleError) Error() string {
	return e.Description
}

// txRuleError creates an underlying TxRuleError with the given set of
// arguments and returns a RuleError that encapsulates it.
func txRuleError(c wire.RejectCode, reason, desc string) RuleError {
	return RuleError{
		Err: TxRuleError{RejectCode: c, Reason: reason, Description: desc},
	}
}

// PackageRuleError identifies a rule violation of the package itself,
// independent of the validity of any single member transaction.
type PackageRuleError struct {
	// Reason is the stable machine-readable reject reason.
	Reason string

	// Description is a human-readable description of the violation.
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e PackageRuleError) Error() string {
	return e.Description
}

// packageRuleError creates an underlying PackageRuleError with the given set
// of arguments and returns a RuleError that encapsulates it.
func packageRuleError(reason, desc string) RuleError {
	return RuleError{
		Err: PackageRuleError{Reason: reason, Description: desc},
	}
}

// ErrorReason returns the stable reject reason carried by a rule error, or
// an empty string when the error does not carry one.
func ErrorReason(err error) string {
	var txErr TxRuleError
	if errors.As(err, &txErr) {
		return txErr.Reason
	}

	var pkgErr PackageRuleError
	if errors.As(err, &pkgErr) {
		return pkgErr.Reason
	}

	return ""
}
