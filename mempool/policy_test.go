// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestCalcMinRequiredTxRelayFee tests the calcMinRequiredTxRelayFee API to
// ensure it produces the expected results.
func TestCalcMinRequiredTxRelayFee(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		relayFee btcutil.Amount
		want     int64
	}{
		{"zero value with default minimum relay fee", 0,
			DefaultMinRelayTxFee, int64(DefaultMinRelayTxFee)},
		{"1000 bytes with default minimum relay fee", 1000,
			DefaultMinRelayTxFee, 1000},
		{"max standard tx size with default minimum relay fee",
			MaxStandardTxVSize, DefaultMinRelayTxFee, 100000},
		{"max standard tx size with max satoshi relay fee",
			MaxStandardTxVSize, btcutil.MaxSatoshi,
			btcutil.MaxSatoshi},
		{"1500 bytes with 5000 relay fee", 1500, 5000, 7500},
		{"1500 bytes with 3000 relay fee", 1500, 3000, 4500},
		{"782 bytes with 11 relay fee", 782, 11, 8},
		{"zero relay fee", 1000, 0, 0},
	}

	for _, test := range tests {
		got := calcMinRequiredTxRelayFee(test.size, test.relayFee)
		require.Equalf(t, test.want, got, "%s: unexpected fee", test.name)
	}
}

// policyTestView returns a utxo view containing the passed outpoint with the
// given value.
func policyTestView(op wire.OutPoint, value int64) *blockchain.UtxoViewpoint {
	fundingTx := wire.NewMsgTx(1)
	fundingTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: testOutPoint(0xbb, op.Index),
	})
	for i := uint32(0); i <= op.Index; i++ {
		fundingTx.AddTxOut(&wire.TxOut{
			Value:    value,
			PkScript: []byte{0x51},
		})
	}
	tx := btcutil.NewTx(fundingTx)

	view := blockchain.NewUtxoViewpoint()
	view.AddTxOuts(tx, 90)

	// Rebind the entry under the caller's outpoint so tests can use
	// arbitrary outpoints without deriving the funding txid.
	entry := view.LookupEntry(wire.OutPoint{
		Hash:  *tx.Hash(),
		Index: op.Index,
	})
	view.Entries()[op] = entry

	return view
}

// TestStandardPolicyCheckTransaction verifies the per-transaction policy
// checks and their stable reject reasons.
func TestStandardPolicyCheckTransaction(t *testing.T) {
	policy := NewStandardPolicy()

	t.Run("valid transaction", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)
		tx := createTestTx(9000, prevOut)

		fee, err := policy.CheckTransaction(tx, view, 101)
		require.NoError(t, err)
		require.Equal(t, btcutil.Amount(1000), fee)
	})

	t.Run("version too high", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)

		msgTx := wire.NewMsgTx(3)
		msgTx.AddTxIn(&wire.TxIn{PreviousOutPoint: prevOut})
		msgTx.AddTxOut(&wire.TxOut{Value: 9000, PkScript: []byte{0x51}})
		tx := btcutil.NewTx(msgTx)

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxVersion)
	})

	t.Run("version too low", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)

		msgTx := wire.NewMsgTx(0)
		msgTx.AddTxIn(&wire.TxIn{PreviousOutPoint: prevOut})
		msgTx.AddTxOut(&wire.TxOut{Value: 9000, PkScript: []byte{0x51}})
		tx := btcutil.NewTx(msgTx)

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxVersion)
	})

	t.Run("oversized transaction", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000000)
		tx := createLargeTestTx(9000000, MaxStandardTxVSize+500,
			prevOut)

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxSize)
	})

	t.Run("missing input", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)
		tx := createTestTx(9000, prevOut, testOutPoint(2, 0))

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxMissingInputs)
	})

	t.Run("outputs exceed inputs", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)
		tx := createTestTx(20000, prevOut)

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxInBelowOut)
	})

	t.Run("fee below minimum", func(t *testing.T) {
		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)
		tx := createTestTx(10000, prevOut)

		_, err := policy.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxFeeTooLow)
	})

	t.Run("custom minimum relay fee", func(t *testing.T) {
		strict := &StandardPolicy{
			MinRelayTxFee: 100000,
			MaxTxVersion:  maxStandardVersion,
		}

		prevOut := testOutPoint(1, 0)
		view := policyTestView(prevOut, 10000)
		tx := createTestTx(9000, prevOut)

		// A fee of 1000 satisfies the default policy but not the
		// strict one.
		_, err := policy.CheckTransaction(tx, view, 101)
		require.NoError(t, err)

		_, err = strict.CheckTransaction(tx, view, 101)
		requireReason(t, err, RejectTxFeeTooLow)
	})
}

// TestGetTxVirtualSize verifies virtual size computation for transactions
// with and without witness data.
func TestGetTxVirtualSize(t *testing.T) {
	tx := createTestTx(9000, testOutPoint(1, 0))

	// Without witness data the virtual size equals the serialized size.
	require.Equal(t, int64(tx.MsgTx().SerializeSize()),
		GetTxVirtualSize(tx))

	// Witness data is discounted: the virtual size of a transaction with
	// witness data is strictly smaller than its serialized size.
	witnessTx := tx.MsgTx().Copy()
	witnessTx.TxIn[0].Witness = wire.TxWitness{make([]byte, 72)}
	wtx := btcutil.NewTx(witnessTx)

	require.Less(t, GetTxVirtualSize(wtx),
		int64(witnessTx.SerializeSize()))
	require.Greater(t, GetTxVirtualSize(wtx), GetTxVirtualSize(tx))
}
