// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

const (
	// MaxStandardTxVSize is the maximum virtual size allowed for a single
	// standard transaction, in vbytes.
	MaxStandardTxVSize = 100000

	// DefaultMinRelayTxFee is the default minimum relay fee in satoshis
	// per kilovbyte.
	DefaultMinRelayTxFee = btcutil.Amount(1000)

	// maxStandardVersion is the maximum transaction version accepted as
	// standard.
	maxStandardVersion = 2
)

// GetTxVirtualSize computes the virtual size of a given transaction.  A
// transaction's virtual size is based off its weight, creating a discount
// for any witness data it contains, proportional to the current
// blockchain.WitnessScaleFactor value.
func GetTxVirtualSize(tx *btcutil.Tx) int64 {
	// vSize := (weight(tx) + 3) / 4
	//       := (((baseSize * 3) + totalSize) + 3) / 4
	// We add 3 here as a way to compute the ceiling of the prior
	// arithmetic to 4.  The division by 4 creates a discount for wit
	// witness data.
	return (blockchain.GetTransactionWeight(tx) + (blockchain.WitnessScaleFactor - 1)) /
		blockchain.WitnessScaleFactor
}

// calcMinRequiredTxRelayFee returns the minimum transaction fee required for
// a transaction with the passed serialized size to be accepted and relayed
// to other nodes.
func calcMinRequiredTxRelayFee(serializedSize int64, minRelayTxFee btcutil.Amount) int64 {
	// Calculate the minimum fee for a transaction to be allowed into the
	// mempool and relayed by scaling the base fee (which is the minimum
	// free transaction relay fee).  minRelayTxFee is in Satoshi/kvB so
	// multiply by serializedSize (which is in bytes) and divide by 1000
	// to get minimum Satoshis.
	minFee := (serializedSize * int64(minRelayTxFee)) / 1000

	if minFee == 0 && minRelayTxFee > 0 {
		minFee = int64(minRelayTxFee)
	}

	// Set the minimum fee to the maximum possible value if the calculated
	// fee is not in the valid range for monetary amounts.
	if minFee < 0 || minFee > btcutil.MaxSatoshi {
		minFee = btcutil.MaxSatoshi
	}

	return minFee
}

// StandardPolicy is a PolicyChecker enforcing the standard relay rules that
// do not require script execution: version bounds, absolute size, input
// availability, value conservation, and the minimum relay fee.  Script and
// signature validation belongs to the hosting node's script engine and is
// layered on top by callers that need it.
type StandardPolicy struct {
	// MinRelayTxFee is the minimum relay fee in satoshis per kilovbyte.
	MinRelayTxFee btcutil.Amount

	// MaxTxVersion is the maximum transaction version accepted.
	MaxTxVersion int32
}

// NewStandardPolicy returns a StandardPolicy with default settings.
func NewStandardPolicy() *StandardPolicy {
	return &StandardPolicy{
		MinRelayTxFee: DefaultMinRelayTxFee,
		MaxTxVersion:  maxStandardVersion,
	}
}

// Ensure StandardPolicy implements the PolicyChecker interface.
var _ PolicyChecker = (*StandardPolicy)(nil)

// CheckTransaction validates a single transaction against the passed utxo
// view and returns its fee.  It is part of the PolicyChecker interface.
func (p *StandardPolicy) CheckTransaction(tx *btcutil.Tx,
	utxoView *blockchain.UtxoViewpoint,
	nextBlockHeight int32) (btcutil.Amount, error) {

	msgTx := tx.MsgTx()

	if msgTx.Version > p.MaxTxVersion || msgTx.Version < 1 {
		str := fmt.Sprintf("transaction version %d is not in the "+
			"valid range of %d-%d", msgTx.Version, 1,
			p.MaxTxVersion)
		return 0, txRuleError(wire.RejectNonstandard,
			RejectTxVersion, str)
	}

	// Reject transactions larger than the maximum standard size.  A
	// transaction this large alone would consume nearly a whole block,
	// which allows several attacks against the network.
	vsize := GetTxVirtualSize(tx)
	if vsize > MaxStandardTxVSize {
		str := fmt.Sprintf("transaction virtual size of %d is larger "+
			"than max allowed size of %d", vsize,
			MaxStandardTxVSize)
		return 0, txRuleError(wire.RejectNonstandard, RejectTxSize,
			str)
	}

	var totalIn btcutil.Amount
	for txInIdx, txIn := range msgTx.TxIn {
		entry := utxoView.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil || entry.IsSpent() {
			str := fmt.Sprintf("output %v referenced from "+
				"transaction %v input %d either does not "+
				"exist or has already been spent",
				txIn.PreviousOutPoint, tx.Hash(), txInIdx)
			return 0, txRuleError(wire.RejectInvalid,
				RejectTxMissingInputs, str)
		}
		totalIn += btcutil.Amount(entry.Amount())
	}

	var totalOut btcutil.Amount
	for _, txOut := range msgTx.TxOut {
		totalOut += btcutil.Amount(txOut.Value)
	}
	if totalIn < totalOut {
		str := fmt.Sprintf("transaction %v spends %v which is more "+
			"than its total input value of %v", tx.Hash(),
			totalOut, totalIn)
		return 0, txRuleError(wire.RejectInvalid, RejectTxInBelowOut,
			str)
	}
	txFee := totalIn - totalOut

	minFee := calcMinRequiredTxRelayFee(vsize, p.MinRelayTxFee)
	if int64(txFee) < minFee {
		str := fmt.Sprintf("transaction %v has %d fees which is "+
			"under the required amount of %d", tx.Hash(), txFee,
			minFee)
		return 0, txRuleError(wire.RejectInsufficientFee,
			RejectTxFeeTooLow, str)
	}

	return txFee, nil
}
