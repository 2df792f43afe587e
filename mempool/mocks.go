// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
)

// MockPoolBackend is a mock implementation of the PoolBackend interface.
type MockPoolBackend struct {
	mock.Mock
}

// Ensure MockPoolBackend implements the PoolBackend interface.
var _ PoolBackend = (*MockPoolBackend)(nil)

// HaveTransaction returns whether or not the passed transaction already
// exists in the pool.
func (m *MockPoolBackend) HaveTransaction(hash *chainhash.Hash) bool {
	args := m.Called(hash)

	return args.Bool(0)
}

// FetchTransaction returns the requested transaction from the pool.
func (m *MockPoolBackend) FetchTransaction(hash *chainhash.Hash) (*btcutil.Tx,
	error) {

	args := m.Called(hash)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*btcutil.Tx), args.Error(1)
}

// CheckSpend checks whether the passed outpoint is already spent by a
// transaction in the pool.
func (m *MockPoolBackend) CheckSpend(op wire.OutPoint) *btcutil.Tx {
	args := m.Called(op)

	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*btcutil.Tx)
}

// AcceptBatch atomically inserts all of the passed descriptors into the
// pool.
func (m *MockPoolBackend) AcceptBatch(descs []*TxDesc) error {
	args := m.Called(descs)

	return args.Error(0)
}

// Count returns the number of transactions in the pool.
func (m *MockPoolBackend) Count() int {
	args := m.Called()

	return args.Int(0)
}

// MockPolicyChecker is a mock implementation of the PolicyChecker interface.
type MockPolicyChecker struct {
	mock.Mock
}

// Ensure MockPolicyChecker implements the PolicyChecker interface.
var _ PolicyChecker = (*MockPolicyChecker)(nil)

// CheckTransaction validates a single transaction against the passed utxo
// view and returns its fee.
func (m *MockPolicyChecker) CheckTransaction(tx *btcutil.Tx,
	utxoView *blockchain.UtxoViewpoint,
	nextBlockHeight int32) (btcutil.Amount, error) {

	args := m.Called(tx, utxoView, nextBlockHeight)

	return args.Get(0).(btcutil.Amount), args.Error(1)
}
