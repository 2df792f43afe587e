// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxDesc is a descriptor containing a transaction in the pool along with
// metadata computed at admission time.
type TxDesc struct {
	// Tx is the transaction associated with the entry.
	Tx *btcutil.Tx

	// Added is the time when the entry was added to the pool.
	Added time.Time

	// Height is the best block height when the entry was accepted.
	Height int32

	// Fee is the total fee the transaction pays in satoshis.
	Fee btcutil.Amount

	// FeePerKB is the fee the transaction pays in satoshis per kilovbyte.
	FeePerKB int64

	// VirtualSize is the virtual size of the transaction in vbytes.
	VirtualSize int64
}

// PoolBackend defines the storage interface the package processor admits
// transactions into.  Implementations must be safe for concurrent access.
type PoolBackend interface {
	// HaveTransaction returns whether or not the passed transaction
	// already exists in the pool.
	HaveTransaction(hash *chainhash.Hash) bool

	// FetchTransaction returns the requested transaction from the pool.
	// An error is returned when the transaction is not in the pool.
	FetchTransaction(hash *chainhash.Hash) (*btcutil.Tx, error)

	// CheckSpend checks whether the passed outpoint is already spent by
	// a transaction in the pool.  If that's the case the spending
	// transaction will be returned, if not nil will be returned.
	CheckSpend(op wire.OutPoint) *btcutil.Tx

	// AcceptBatch atomically inserts all of the passed descriptors into
	// the pool.  Either every descriptor is inserted or, when an error is
	// returned, none are.  A concurrent reader must never observe a
	// partially inserted batch.
	AcceptBatch(descs []*TxDesc) error

	// Count returns the number of transactions in the pool.
	Count() int
}

// PolicyChecker is the per-transaction policy oracle consulted for every
// package member.  The provided utxo view contains entries for all of the
// transaction's inputs, including outputs created by pool transactions and
// by package members evaluated earlier in the same admission attempt.
//
// On success the transaction fee in satoshis is returned.  On failure the
// returned error carries the stable reject reason for the violation.
type PolicyChecker interface {
	// CheckTransaction validates a single transaction against the passed
	// utxo view and returns its fee.
	CheckTransaction(tx *btcutil.Tx, utxoView *blockchain.UtxoViewpoint,
		nextBlockHeight int32) (btcutil.Amount, error)
}
