// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultMaxPackageCount is the default maximum number of transactions
	// allowed in a single package.
	DefaultMaxPackageCount = 50

	// DefaultMaxPackageVSize is the default maximum total virtual size
	// allowed for a package, in vbytes (101 KvB).
	DefaultMaxPackageVSize = 101000
)

// PackageLimits contains the configurable structural bounds enforced on a
// submitted package.  The zero value of either field selects the
// corresponding default.
type PackageLimits struct {
	// MaxCount is the maximum number of transactions allowed in a single
	// package.
	MaxCount int

	// MaxVirtualSize is the maximum total virtual size allowed for a
	// package, in vbytes.
	MaxVirtualSize int64
}

// DefaultPackageLimits returns the package limits used when the hosting node
// does not override them.
func DefaultPackageLimits() PackageLimits {
	return PackageLimits{
		MaxCount:       DefaultMaxPackageCount,
		MaxVirtualSize: DefaultMaxPackageVSize,
	}
}

// PackageStatus describes how far validation of a package progressed.
type PackageStatus int

const (
	// PackageStatusUnvalidated indicates the package has not been
	// validated.
	PackageStatusUnvalidated PackageStatus = iota

	// PackageStatusValid indicates every package member passed validation.
	PackageStatusValid

	// PackageStatusInvalid indicates the package was rejected.
	PackageStatusInvalid
)

// String returns the PackageStatus as a human-readable name.
func (s PackageStatus) String() string {
	switch s {
	case PackageStatusUnvalidated:
		return "unvalidated"
	case PackageStatusValid:
		return "valid"
	case PackageStatusInvalid:
		return "invalid"
	}
	return fmt.Sprintf("unknown status (%d)", int(s))
}

// PackageValidationResult identifies the tier at which an invalid package was
// rejected.
type PackageValidationResult int

const (
	// PackageResultUnset indicates the package has not been rejected.
	PackageResultUnset PackageValidationResult = iota

	// PackageResultPolicy indicates the package itself violates batch
	// structural or policy rules, independent of the content of any
	// single member transaction.
	PackageResultPolicy

	// PackageResultTx indicates the package was rejected because at least
	// one member transaction failed its individual policy checks.
	PackageResultTx
)

// String returns the PackageValidationResult as a human-readable name.
func (r PackageValidationResult) String() string {
	switch r {
	case PackageResultUnset:
		return "PCKG_RESULT_UNSET"
	case PackageResultPolicy:
		return "PCKG_POLICY"
	case PackageResultTx:
		return "PCKG_TX"
	}
	return fmt.Sprintf("unknown result (%d)", int(r))
}

// PackageValidationState captures the aggregate outcome of validating a
// package.  When the package is invalid, Result identifies the violation
// tier, RejectReason carries the stable machine-readable reason, and Detail
// optionally carries a human-readable description.
type PackageValidationState struct {
	// Status is the overall validation status.
	Status PackageStatus

	// Result identifies the violation tier when Status is invalid.
	Result PackageValidationResult

	// RejectReason is the stable machine-readable reject reason when
	// Status is invalid.
	RejectReason string

	// Detail is an optional human-readable description of the rejection.
	Detail string
}

// IsValid returns whether every member of the package passed validation.
func (s *PackageValidationState) IsValid() bool {
	return s.Status == PackageStatusValid
}

// IsInvalid returns whether the package was rejected.
func (s *PackageValidationState) IsInvalid() bool {
	return s.Status == PackageStatusInvalid
}

// TxAcceptResult holds the result of evaluating a single transaction within
// a package.
type TxAcceptResult struct {
	// TxHash is the transaction hash (txid).
	TxHash chainhash.Hash

	// VSize is the virtual size in vbytes.
	VSize int64

	// Fee is the transaction fee in satoshis.
	Fee btcutil.Amount

	// EffectiveFeeRate is the fee rate of the transaction in satoshis per
	// kilovbyte.
	EffectiveFeeRate int64

	// Accepted indicates whether the transaction passed its individual
	// checks.
	Accepted bool

	// Err contains the rejection reason if the transaction was not
	// accepted.  Nil when Accepted is true.
	Err error
}

// PackageAcceptResult holds the result of attempting to accept a package of
// transactions to the pool.
type PackageAcceptResult struct {
	// State is the aggregate validation outcome for the package.
	State PackageValidationState

	// TxResults maps each evaluated transaction's txid to its individual
	// result.  Members that were never evaluated due to short-circuiting
	// are absent; a package rejected at the structural stage has an empty
	// map.
	TxResults map[chainhash.Hash]*TxAcceptResult

	// TotalFees is the sum of fees from all accepted transactions in the
	// package.
	TotalFees btcutil.Amount

	// TotalVSize is the sum of virtual sizes from all accepted
	// transactions in the package.
	TotalVSize int64

	// PackageFeeRate is the aggregate fee rate for the package in
	// satoshis per kilovbyte, calculated as TotalFees / TotalVSize * 1000.
	PackageFeeRate int64

	// AcceptedCount is the number of transactions that passed their
	// individual checks.
	AcceptedCount int

	// RejectedCount is the number of transactions rejected.
	RejectedCount int
}

// CheckPackage performs the stateless structural checks on a submitted
// package: member count, total virtual size, topological ordering, and
// in-package conflicts.  It requires no access to ledger or pool state and
// is safe to run speculatively or repeatedly.
//
// The checks run in the listed order and stop at the first failure, so a
// package that is both unsorted and internally conflicting reports
// "package-not-sorted".  On failure the returned RuleError wraps a
// PackageRuleError carrying the stable reject reason.
func CheckPackage(txs []*btcutil.Tx, limits PackageLimits) error {
	if len(txs) == 0 {
		return packageRuleError(RejectPackageEmpty,
			"a package must contain at least one transaction")
	}

	if len(txs) > limits.MaxCount {
		str := fmt.Sprintf("package has %d transactions, max %d "+
			"allowed", len(txs), limits.MaxCount)
		return packageRuleError(RejectPackageTooManyTransactions, str)
	}

	var totalVSize int64
	for _, tx := range txs {
		totalVSize += GetTxVirtualSize(tx)
	}
	if totalVSize > limits.MaxVirtualSize {
		str := fmt.Sprintf("package virtual size of %d exceeds max "+
			"allowed size of %d", totalVSize, limits.MaxVirtualSize)
		return packageRuleError(RejectPackageTooLarge, str)
	}

	// Require a topological ordering: parents must appear before
	// children.  Walk the sequence with a scratch set holding the txids
	// of the current member and everything after it.  An input that
	// references a txid still in the set spends either the member itself
	// or a later member.
	laterTxids := make(map[chainhash.Hash]struct{}, len(txs))
	for _, tx := range txs {
		laterTxids[*tx.Hash()] = struct{}{}
	}
	for _, tx := range txs {
		for _, txIn := range tx.MsgTx().TxIn {
			_, ok := laterTxids[txIn.PreviousOutPoint.Hash]
			if ok {
				str := fmt.Sprintf("package transaction %v "+
					"is not topologically sorted",
					tx.Hash())
				return packageRuleError(
					RejectPackageNotSorted, str,
				)
			}
		}
		delete(laterTxids, *tx.Hash())
	}

	// No two members may spend the same output.  This also rejects
	// duplicate transactions since they collide on their first input.
	spentOutpoints := make(map[wire.OutPoint]struct{})
	for _, tx := range txs {
		for _, txIn := range tx.MsgTx().TxIn {
			op := txIn.PreviousOutPoint
			if _, ok := spentOutpoints[op]; ok {
				str := fmt.Sprintf("package transactions "+
					"conflict over output %v", op)
				return packageRuleError(
					RejectPackageConflict, str,
				)
			}
			spentOutpoints[op] = struct{}{}
		}
	}

	return nil
}

// IsChildWithParents reports whether the package is exactly one child
// transaction directly spending outputs of every other member.  This shape
// unlocks relaxed fee-bumping admission policy for the parents.
//
// The test is deliberately weaker than the ordering check in CheckPackage:
// it does not verify that the sequence is topologically sorted, and a
// non-last member may itself spend another non-last member.  It only
// verifies that every non-last member's txid appears among the last member's
// input references.
func IsChildWithParents(txs []*btcutil.Tx) bool {
	if len(txs) < 2 {
		return false
	}

	child := txs[len(txs)-1]
	inputTxids := make(map[chainhash.Hash]struct{},
		len(child.MsgTx().TxIn))
	for _, txIn := range child.MsgTx().TxIn {
		inputTxids[txIn.PreviousOutPoint.Hash] = struct{}{}
	}

	for _, parent := range txs[:len(txs)-1] {
		if _, ok := inputTxids[*parent.Hash()]; !ok {
			return false
		}
	}

	return true
}
