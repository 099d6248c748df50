// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

package tephra

import (
	"fmt"

	"github.com/ember-vm/ember"
)

const (
	TxGas                     = 21_000
	TxGasContractCreation     = 53_000
	TxDataNonZeroGas          = 16
	TxDataZeroGas             = 4
	TxAccessListAddressGas    = 2400
	TxAccessListStorageKeyGas = 1900

	// MaxRefundQuotient caps the gas refund of a transaction to a fifth of
	// the gas used (EIP-3529).
	MaxRefundQuotient = 5
)

func init() {
	ember.RegisterProcessorFactory("tephra", newProcessor)
}

func newProcessor(interpreter ember.Interpreter) ember.Processor {
	return &processor{
		interpreter: interpreter,
	}
}

type processor struct {
	interpreter ember.Interpreter
}

func (p *processor) Run(
	blockParams ember.BlockParameters,
	transaction ember.Transaction,
	context ember.TransactionContext,
) (ember.Receipt, error) {
	errorReceipt := ember.Receipt{
		Success: false,
		GasUsed: transaction.GasLimit,
	}
	gas := transaction.GasLimit

	if err := buyGas(transaction, context); err != nil {
		return errorReceipt, nil
	}

	intrinsicGas := setupGasBilling(transaction)
	if gas < intrinsicGas {
		return errorReceipt, nil
	}
	gas -= intrinsicGas

	if err := checkNonce(transaction, context); err != nil {
		return errorReceipt, nil
	}

	setUpAccessList(transaction, context)

	runContext := runContext{
		TransactionContext: context,
		interpreter:        p.interpreter,
		blockParameters:    blockParams,
		transactionParameters: ember.TransactionParameters{
			Origin:   transaction.Sender,
			GasPrice: transaction.GasPrice,
		},
	}

	var result ember.CallResult
	var err error
	var createdAddress *ember.Address

	if transaction.Recipient == nil {
		result, err = runContext.Call(ember.Create, ember.CallParameters{
			Sender: transaction.Sender,
			Value:  transaction.Value,
			Input:  transaction.Input,
			Gas:    gas,
		})
		if result.Success {
			created := result.CreatedAddress
			createdAddress = &created
		}
	} else {
		// The nonce of the sender is consumed before the execution; nested
		// creations increment it on their own.
		context.SetNonce(transaction.Sender, transaction.Nonce+1)
		result, err = runContext.Call(ember.Call, ember.CallParameters{
			Sender:    transaction.Sender,
			Recipient: *transaction.Recipient,
			Value:     transaction.Value,
			Input:     transaction.Input,
			Gas:       gas,
		})
	}
	if err != nil {
		return errorReceipt, err
	}

	gasLeft := result.GasLeft + refund(transaction.GasLimit, result)
	gasUsed := transaction.GasLimit - gasLeft

	repayGas(transaction, context, gasLeft)
	payCoinbaseFee(blockParams, transaction, context, gasUsed)

	var logs []ember.Log
	if result.Success {
		logs = context.GetLogs()
	}

	return ember.Receipt{
		Success:         result.Success,
		GasUsed:         gasUsed,
		ContractAddress: createdAddress,
		Output:          result.Output,
		Logs:            logs,
	}, nil
}

// refund computes the gas refund granted for the execution, capped to a fifth
// of the gas used (EIP-3529).
func refund(gasLimit ember.Gas, result ember.CallResult) ember.Gas {
	gasUsed := gasLimit - result.GasLeft
	refund := result.GasRefund
	if max := gasUsed / MaxRefundQuotient; refund > max {
		refund = max
	}
	return refund
}

// setupGasBilling computes the intrinsic gas of the transaction, covering its
// base cost, the cost of its input data, and the cost of its access list.
func setupGasBilling(transaction ember.Transaction) ember.Gas {
	var gas ember.Gas
	if transaction.Recipient == nil {
		gas = TxGasContractCreation
	} else {
		gas = TxGas
	}

	if len(transaction.Input) > 0 {
		nonZeroBytes := ember.Gas(0)
		for _, inputByte := range transaction.Input {
			if inputByte != 0 {
				nonZeroBytes++
			}
		}
		zeroBytes := ember.Gas(len(transaction.Input)) - nonZeroBytes
		gas += zeroBytes * TxDataZeroGas
		gas += nonZeroBytes * TxDataNonZeroGas
	}

	if transaction.AccessList != nil {
		gas += ember.Gas(len(transaction.AccessList)) * TxAccessListAddressGas
		for _, accessTuple := range transaction.AccessList {
			gas += ember.Gas(len(accessTuple.Keys)) * TxAccessListStorageKeyGas
		}
	}

	return gas
}

// setUpAccessList marks the sender, the recipient, and all entries of the
// transaction's access list as warm before the execution starts (EIP-2929).
func setUpAccessList(transaction ember.Transaction, context ember.TransactionContext) {
	context.AccessAccount(transaction.Sender)
	if transaction.Recipient != nil {
		context.AccessAccount(*transaction.Recipient)
	}
	for _, accessTuple := range transaction.AccessList {
		context.AccessAccount(accessTuple.Address)
		for _, key := range accessTuple.Keys {
			context.AccessStorage(accessTuple.Address, key)
		}
	}
}

func checkNonce(transaction ember.Transaction, context ember.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	messageNonce := transaction.Nonce
	if messageNonce != stateNonce {
		return fmt.Errorf("nonce mismatch: %v != %v", messageNonce, stateNonce)
	}
	return nil
}

func buyGas(transaction ember.Transaction, context ember.TransactionContext) error {
	gas := transaction.GasPrice.Scale(uint64(transaction.GasLimit))

	senderBalance := context.GetBalance(transaction.Sender)
	if senderBalance.Cmp(gas) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, gas)
	}

	senderBalance = ember.Sub(senderBalance, gas)
	context.SetBalance(transaction.Sender, senderBalance)
	return nil
}

// repayGas returns the value of the unused gas to the sender.
func repayGas(transaction ember.Transaction, context ember.TransactionContext, gasLeft ember.Gas) {
	repayment := transaction.GasPrice.Scale(uint64(gasLeft))
	senderBalance := context.GetBalance(transaction.Sender)
	context.SetBalance(transaction.Sender, ember.Add(senderBalance, repayment))
}

// payCoinbaseFee credits the block producer with the priority fee of the
// transaction, the part of the gas price exceeding the block's base fee
// (EIP-1559).
func payCoinbaseFee(
	blockParams ember.BlockParameters,
	transaction ember.Transaction,
	context ember.TransactionContext,
	gasUsed ember.Gas,
) {
	tip := transaction.GasPrice
	if tip.Cmp(blockParams.BaseFee) <= 0 {
		return
	}
	tip = ember.Sub(tip, blockParams.BaseFee)
	fee := tip.Scale(uint64(gasUsed))
	coinbaseBalance := context.GetBalance(blockParams.Coinbase)
	context.SetBalance(blockParams.Coinbase, ember.Add(coinbaseBalance, fee))
}
