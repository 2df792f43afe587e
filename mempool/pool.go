// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxPool is an in-memory transaction pool implementing the PoolBackend
// interface.  It is safe for concurrent access.
type TxPool struct {
	mtx         sync.RWMutex
	pool        map[chainhash.Hash]*TxDesc
	outpoints   map[wire.OutPoint]*btcutil.Tx
	lastUpdated time.Time
}

// Ensure TxPool implements the PoolBackend interface.
var _ PoolBackend = (*TxPool)(nil)

// NewTxPool returns a new empty transaction pool.
func NewTxPool() *TxPool {
	return &TxPool{
		pool:      make(map[chainhash.Hash]*TxDesc),
		outpoints: make(map[wire.OutPoint]*btcutil.Tx),
	}
}

// Count returns the number of transactions in the pool.  It is part of the
// PoolBackend interface.
func (p *TxPool) Count() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return len(p.pool)
}

// HaveTransaction returns whether or not the passed transaction already
// exists in the pool.  It is part of the PoolBackend interface.
func (p *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	_, exists := p.pool[*hash]
	return exists
}

// FetchTransaction returns the requested transaction from the pool.  An
// error is returned when the transaction is not in the pool.  It is part of
// the PoolBackend interface.
func (p *TxPool) FetchTransaction(hash *chainhash.Hash) (*btcutil.Tx, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	if desc, exists := p.pool[*hash]; exists {
		return desc.Tx, nil
	}

	return nil, fmt.Errorf("transaction is not in the pool")
}

// CheckSpend checks whether the passed outpoint is already spent by a
// transaction in the pool.  If that's the case the spending transaction will
// be returned, if not nil will be returned.  It is part of the PoolBackend
// interface.
func (p *TxPool) CheckSpend(op wire.OutPoint) *btcutil.Tx {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.outpoints[op]
}

// AcceptBatch atomically inserts all of the passed descriptors into the
// pool.  The whole batch is verified against the current pool contents
// before anything is inserted, so either every descriptor is admitted or,
// when an error is returned, the pool is unchanged.  It is part of the
// PoolBackend interface.
func (p *TxPool) AcceptBatch(descs []*TxDesc) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	// Verify the full batch before touching the pool maps.  Spends are
	// tracked across the batch so two descriptors spending the same
	// output are caught even though neither conflicts with the pool.
	spent := make(map[wire.OutPoint]struct{})
	for _, desc := range descs {
		txHash := *desc.Tx.Hash()
		if _, exists := p.pool[txHash]; exists {
			return fmt.Errorf("transaction %v already in the pool",
				txHash)
		}

		for _, txIn := range desc.Tx.MsgTx().TxIn {
			op := txIn.PreviousOutPoint
			if conflict, exists := p.outpoints[op]; exists {
				// A batch member may spend an output created
				// by an earlier batch member, but never one
				// already spent inside the pool.
				return fmt.Errorf("output %v already spent "+
					"by transaction %v in the pool", op,
					conflict.Hash())
			}
			if _, exists := spent[op]; exists {
				return fmt.Errorf("batch transactions "+
					"conflict over output %v", op)
			}
			spent[op] = struct{}{}
		}
	}

	for _, desc := range descs {
		p.pool[*desc.Tx.Hash()] = desc
		for _, txIn := range desc.Tx.MsgTx().TxIn {
			p.outpoints[txIn.PreviousOutPoint] = desc.Tx
		}
	}
	p.lastUpdated = time.Now()

	log.DebugS(context.Background(), "Accepted transaction batch",
		"batch_size", len(descs), "pool_size", len(p.pool))

	return nil
}

// RemoveTransaction removes the passed transaction from the pool.  When the
// removeRedeemers flag is set, any transactions that redeem outputs of the
// removed transaction will also be removed recursively from the pool, as
// they would otherwise become orphans.
func (p *TxPool) RemoveTransaction(hash *chainhash.Hash, removeRedeemers bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.removeTransaction(hash, removeRedeemers)
}

// removeTransaction is the internal implementation of RemoveTransaction.
//
// This function MUST be called with the pool lock held (for writes).
func (p *TxPool) removeTransaction(hash *chainhash.Hash, removeRedeemers bool) {
	desc, exists := p.pool[*hash]
	if !exists {
		return
	}

	if removeRedeemers {
		// Remove any transactions which rely on this one.
		txHash := desc.Tx.Hash()
		for i := uint32(0); i < uint32(len(desc.Tx.MsgTx().TxOut)); i++ {
			prevOut := wire.OutPoint{Hash: *txHash, Index: i}
			if redeemer, exists := p.outpoints[prevOut]; exists {
				p.removeTransaction(redeemer.Hash(), true)
			}
		}
	}

	for _, txIn := range desc.Tx.MsgTx().TxIn {
		delete(p.outpoints, txIn.PreviousOutPoint)
	}
	delete(p.pool, *hash)
	p.lastUpdated = time.Now()
}

// TxDescs returns a slice of descriptors for all the transactions in the
// pool.  The descriptors are treated as immutable by callers.
func (p *TxPool) TxDescs() []*TxDesc {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	descs := make([]*TxDesc, 0, len(p.pool))
	for _, desc := range p.pool {
		descs = append(descs, desc)
	}

	return descs
}

// LastUpdated returns the last time a transaction was added to or removed
// from the pool.
func (p *TxPool) LastUpdated() time.Time {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return p.lastUpdated
}
