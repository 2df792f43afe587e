// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mining"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
)

const (
	// defaultRejectCacheSize is the default number of recently rejected
	// transaction hashes remembered across admission attempts.
	defaultRejectCacheSize = 1000
)

// Config is the configuration for the package processor.
type Config struct {
	// FetchUtxoView defines the function to use to fetch unspent
	// transaction output information for the passed transaction's inputs.
	// The returned view must be a point-in-time consistent snapshot of
	// the ledger that the processor is free to augment.
	FetchUtxoView func(*btcutil.Tx) (*blockchain.UtxoViewpoint, error)

	// BestHeight defines the function to use to access the block height
	// of the current best chain.
	BestHeight func() int32

	// Pool is the backend transactions are admitted into.
	Pool PoolBackend

	// Policy is the per-transaction policy oracle consulted for every
	// package member.
	Policy PolicyChecker

	// Limits are the structural bounds enforced on submitted packages.
	// Zero-valued fields select the defaults.
	Limits PackageLimits

	// RejectCacheSize is the number of recently rejected transaction
	// hashes to remember.  Zero selects the default.
	RejectCacheSize uint
}

// PackageProcessor coordinates admission of transaction packages against a
// consistent snapshot of ledger and pool state.  Members are evaluated in
// package order so that each may assume its in-package parents are available
// as if already admitted, and commit-mode admission is all-or-nothing: no
// observer ever sees a partially inserted package.
//
// The processor is safe for concurrent use.  Any number of trial
// evaluations may run concurrently; at most one commit runs at a time and
// excludes all trials for its duration.
type PackageProcessor struct {
	cfg Config

	// mtx guards the admission critical section.  ProcessPackage takes
	// the write lock, CheckPackageAcceptance the read lock.
	mtx sync.RWMutex

	// rejectCache remembers txids that failed a commit attempt so that
	// immediate resubmissions are refused without re-evaluation.  Trial
	// evaluations never write to it.
	rejectCache lru.Cache
}

// NewPackageProcessor returns a new package processor for the provided
// configuration.
func NewPackageProcessor(cfg *Config) (*PackageProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mempool: config cannot be nil")
	}
	if cfg.FetchUtxoView == nil {
		return nil, fmt.Errorf("mempool: FetchUtxoView is required")
	}
	if cfg.BestHeight == nil {
		return nil, fmt.Errorf("mempool: BestHeight is required")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("mempool: Pool is required")
	}
	if cfg.Policy == nil {
		return nil, fmt.Errorf("mempool: Policy is required")
	}

	p := &PackageProcessor{cfg: *cfg}
	if p.cfg.Limits.MaxCount == 0 {
		p.cfg.Limits.MaxCount = DefaultMaxPackageCount
	}
	if p.cfg.Limits.MaxVirtualSize == 0 {
		p.cfg.Limits.MaxVirtualSize = DefaultMaxPackageVSize
	}

	cacheSize := p.cfg.RejectCacheSize
	if cacheSize == 0 {
		cacheSize = defaultRejectCacheSize
	}
	p.rejectCache = lru.NewCache(cacheSize)

	return p, nil
}

// ProcessPackage attempts to admit a package of transactions into the pool.
// The package must be topologically sorted (parents before children) and
// meet the configured count and size limits.
//
// Admission is all-or-nothing: either every member passes its individual
// checks and all are inserted into the pool in package order, or the first
// failing member aborts the whole package and nothing is inserted, including
// members that individually passed.  The pool size is unchanged after any
// failed attempt.
func (p *PackageProcessor) ProcessPackage(txs []*btcutil.Tx) *PackageAcceptResult {
	ctx := context.Background()
	log.InfoS(ctx, "Processing package", "tx_count", len(txs))

	p.mtx.Lock()
	defer p.mtx.Unlock()

	result, descs := p.evaluatePackage(txs)
	if !result.State.IsValid() {
		// Remember individually failed members so immediate
		// resubmission of the same transactions is cheap to refuse.
		// Only rejections intrinsic to the transaction are cached:
		// a member refused because of the current chain or pool
		// state may become valid later and must be re-evaluated.
		if result.State.Result == PackageResultTx {
			for hash, txResult := range result.TxResults {
				if txResult.Accepted {
					continue
				}
				if !isCacheableReject(txResult.Err) {
					continue
				}
				p.rejectCache.Add(hash)
			}
		}

		log.DebugS(ctx, "Package rejected",
			"result", result.State.Result,
			"reason", result.State.RejectReason,
			"detail", result.State.Detail)
		return result
	}

	if err := p.cfg.Pool.AcceptBatch(descs); err != nil {
		// The backend refused the batch as a whole, so nothing was
		// inserted.  The per-transaction results are left as
		// evaluated since no single member is at fault.
		log.WarnS(ctx, "Pool rejected package batch", err,
			"tx_count", len(txs))
		result.State = PackageValidationState{
			Status:       PackageStatusInvalid,
			Result:       PackageResultTx,
			RejectReason: RejectPackageTxFailed,
			Detail:       err.Error(),
		}
		return result
	}

	log.InfoS(ctx, "Package accepted",
		"tx_count", len(txs),
		"total_fees", result.TotalFees,
		"total_vsize", result.TotalVSize,
		"package_fee_rate", result.PackageFeeRate,
		"pool_size", p.cfg.Pool.Count())

	return result
}

// CheckPackageAcceptance evaluates whether a package of transactions would
// be accepted into the pool without admitting anything.  No pool state is
// mutated regardless of the outcome, so concurrent evaluations are allowed.
func (p *PackageProcessor) CheckPackageAcceptance(txs []*btcutil.Tx) *PackageAcceptResult {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	result, _ := p.evaluatePackage(txs)
	return result
}

// evaluatePackage runs the full admission pipeline for a package against
// the current snapshot and returns the aggregate result along with the
// descriptors for every member when all of them passed.  It performs no
// pool mutation, making it safe to share between commit and trial modes.
func (p *PackageProcessor) evaluatePackage(txs []*btcutil.Tx) (*PackageAcceptResult, []*TxDesc) {
	result := &PackageAcceptResult{
		TxResults: make(map[chainhash.Hash]*TxAcceptResult, len(txs)),
	}

	// Structural failures are terminal and cheap: no member is evaluated
	// individually and the per-transaction map stays empty.
	if err := CheckPackage(txs, p.cfg.Limits); err != nil {
		var pkgErr PackageRuleError
		errors.As(err, &pkgErr)
		result.State = PackageValidationState{
			Status:       PackageStatusInvalid,
			Result:       PackageResultPolicy,
			RejectReason: pkgErr.Reason,
			Detail:       pkgErr.Description,
		}
		return result, nil
	}

	bestHeight := p.cfg.BestHeight()

	// Outputs of members evaluated earlier in this package are visible
	// to later members as if already admitted, even though nothing has
	// been persisted yet.
	inPackage := make(map[chainhash.Hash]*btcutil.Tx, len(txs))

	descs := make([]*TxDesc, 0, len(txs))
	for _, tx := range txs {
		txHash := *tx.Hash()
		txResult := &TxAcceptResult{TxHash: txHash}
		result.TxResults[txHash] = txResult

		desc, err := p.evaluateTransaction(tx, bestHeight, inPackage)
		if err != nil {
			txResult.Err = err
			result.RejectedCount++
			result.State = PackageValidationState{
				Status:       PackageStatusInvalid,
				Result:       PackageResultTx,
				RejectReason: RejectPackageTxFailed,
				Detail: fmt.Sprintf("transaction %v "+
					"failed: %v", txHash, err),
			}
			return result, nil
		}

		txResult.Accepted = true
		txResult.VSize = desc.VirtualSize
		txResult.Fee = desc.Fee
		txResult.EffectiveFeeRate = desc.FeePerKB

		result.AcceptedCount++
		result.TotalFees += desc.Fee
		result.TotalVSize += desc.VirtualSize

		inPackage[txHash] = tx
		descs = append(descs, desc)
	}

	if result.TotalVSize > 0 {
		result.PackageFeeRate = int64(result.TotalFees) * 1000 /
			result.TotalVSize
	}
	result.State = PackageValidationState{Status: PackageStatusValid}

	return result, descs
}

// isCacheableReject reports whether a rejection depends only on the
// transaction itself and its referenced output values, making it safe to
// refuse identical resubmissions without re-evaluation.  Rejections caused
// by the current chain or pool state, such as an unconfirmed funding output
// or a conflicting pool spend, are transient and must not be cached.
func isCacheableReject(err error) bool {
	if err == nil {
		return false
	}

	switch ErrorReason(err) {
	case RejectTxMissingInputs, RejectTxMempoolConflict,
		RejectTxDuplicate, RejectTxRecentlyRejected:

		return false
	}

	return true
}

// evaluateTransaction runs the per-transaction admission checks for a single
// package member and returns its pool descriptor on success.
func (p *PackageProcessor) evaluateTransaction(tx *btcutil.Tx,
	bestHeight int32,
	inPackage map[chainhash.Hash]*btcutil.Tx) (*TxDesc, error) {

	txHash := tx.Hash()

	// Don't accept the transaction if it already exists in the pool.
	// This is intended to be a quick check to weed out duplicates.
	if p.cfg.Pool.HaveTransaction(txHash) {
		str := fmt.Sprintf("already have transaction %v in the pool",
			txHash)
		return nil, txRuleError(wire.RejectDuplicate, RejectTxDuplicate,
			str)
	}

	if p.rejectCache.Contains(*txHash) {
		str := fmt.Sprintf("transaction %v was recently rejected",
			txHash)
		return nil, txRuleError(wire.RejectDuplicate,
			RejectTxRecentlyRejected, str)
	}

	// The transaction may not spend outputs already spent by a pool
	// transaction.  Conflicts between package members themselves were
	// already ruled out by CheckPackage.
	for _, txIn := range tx.MsgTx().TxIn {
		conflict := p.cfg.Pool.CheckSpend(txIn.PreviousOutPoint)
		if conflict != nil {
			str := fmt.Sprintf("output %v already spent by "+
				"transaction %v in the pool",
				txIn.PreviousOutPoint, conflict.Hash())
			return nil, txRuleError(wire.RejectDuplicate,
				RejectTxMempoolConflict, str)
		}
	}

	utxoView, err := p.fetchInputUtxos(tx, inPackage)
	if err != nil {
		return nil, err
	}

	// Every input must resolve to an unspent output of the ledger
	// snapshot, the pool, or an earlier member of this package.
	for _, txIn := range tx.MsgTx().TxIn {
		entry := utxoView.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil || entry.IsSpent() {
			str := fmt.Sprintf("output %v referenced from "+
				"transaction %v either does not exist or "+
				"has already been spent",
				txIn.PreviousOutPoint, txHash)
			return nil, txRuleError(wire.RejectInvalid,
				RejectTxMissingInputs, str)
		}
	}

	txFee, err := p.cfg.Policy.CheckTransaction(tx, utxoView, bestHeight+1)
	if err != nil {
		return nil, err
	}

	vsize := GetTxVirtualSize(tx)
	desc := &TxDesc{
		Tx:          tx,
		Added:       time.Now(),
		Height:      bestHeight,
		Fee:         txFee,
		VirtualSize: vsize,
	}
	if vsize > 0 {
		desc.FeePerKB = int64(txFee) * 1000 / vsize
	}

	return desc, nil
}

// fetchInputUtxos loads utxo details for the transaction's inputs from the
// ledger snapshot and augments the view with unconfirmed outputs from the
// pool and from package members evaluated earlier in the same admission
// attempt.  This enables parent-child chains where children spend
// unconfirmed parent outputs.
func (p *PackageProcessor) fetchInputUtxos(tx *btcutil.Tx,
	inPackage map[chainhash.Hash]*btcutil.Tx) (*blockchain.UtxoViewpoint, error) {

	utxoView, err := p.cfg.FetchUtxoView(tx)
	if err != nil {
		return nil, err
	}

	for _, txIn := range tx.MsgTx().TxIn {
		prevOut := &txIn.PreviousOutPoint
		entry := utxoView.LookupEntry(*prevOut)
		if entry != nil && !entry.IsSpent() {
			continue
		}

		// Check earlier members of this package first since their
		// outputs are not in the pool yet.
		if parent, ok := inPackage[prevOut.Hash]; ok {
			utxoView.AddTxOut(parent, prevOut.Index,
				mining.UnminedHeight)
			continue
		}

		if parent, err := p.cfg.Pool.FetchTransaction(&prevOut.Hash); err == nil {
			utxoView.AddTxOut(parent, prevOut.Index,
				mining.UnminedHeight)
		}
	}

	return utxoView, nil
}
