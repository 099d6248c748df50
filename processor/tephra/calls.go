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

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxRecursiveDepth is the maximum number of nested calls of a
	// transaction. Calls beyond this depth fail without executing.
	MaxRecursiveDepth = 1024

	// maxCodeSize is the largest code a contract creation may deploy
	// (EIP-170).
	maxCodeSize = 24576

	// createGasCostPerByte is charged for each byte of deployed contract
	// code at the end of a successful creation.
	createGasCostPerByte = 200
)

var emptyCodeHash = ember.Hash(crypto.Keccak256(nil))

// runContext dispatches the nested calls of a contract execution. It carries
// the per-transaction state and re-enters the interpreter for every call or
// creation a contract issues.
type runContext struct {
	ember.TransactionContext
	interpreter           ember.Interpreter
	blockParameters       ember.BlockParameters
	transactionParameters ember.TransactionParameters
	depth                 int
	static                bool
}

func (r runContext) Call(kind ember.CallKind, parameters ember.CallParameters) (ember.CallResult, error) {
	if kind == ember.Create || kind == ember.Create2 {
		return r.executeCreate(kind, parameters)
	}
	return r.executeCall(kind, parameters)
}

func (r runContext) executeCall(kind ember.CallKind, parameters ember.CallParameters) (ember.CallResult, error) {
	errResult := ember.CallResult{
		Success: false,
		GasLeft: parameters.Gas,
	}
	if r.depth >= MaxRecursiveDepth {
		return errResult, nil
	}
	r.depth++

	if kind == ember.Call || kind == ember.CallCode {
		if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
			return errResult, nil
		}
	}
	snapshot := r.CreateSnapshot()
	recipient := parameters.Recipient

	if kind == ember.StaticCall {
		r.static = true
	}

	// Calling a non-existing account without value transfer succeeds without
	// creating the account; there is no code to run.
	if !r.AccountExists(recipient) &&
		parameters.Value.Cmp(ember.Value{}) == 0 &&
		(kind == ember.Call || kind == ember.StaticCall) {
		return ember.CallResult{Success: true, GasLeft: parameters.Gas}, nil
	}

	if kind == ember.Call || kind == ember.CallCode {
		transferValue(r, parameters.Value, parameters.Sender, recipient)
	}

	var codeHash ember.Hash
	var code ember.Code
	if kind == ember.Call || kind == ember.StaticCall {
		codeHash = r.GetCodeHash(recipient)
		code = r.GetCode(recipient)
	} else {
		codeHash = r.GetCodeHash(parameters.CodeAddress)
		code = r.GetCode(parameters.CodeAddress)
	}

	interpreterParameters := ember.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	callResult, err := r.interpreter.Run(interpreterParameters)
	if err != nil || !callResult.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(callResult, err) {
			// if the unsuccessful call was due to a revert, the gas is not consumed
			callResult.GasLeft = 0
		}
	}

	return ember.CallResult{
		Output:    callResult.Output,
		GasLeft:   callResult.GasLeft,
		GasRefund: callResult.GasRefund,
		Success:   callResult.Success,
	}, err
}

func (r runContext) executeCreate(kind ember.CallKind, parameters ember.CallParameters) (ember.CallResult, error) {
	errResult := ember.CallResult{
		Success: false,
		GasLeft: parameters.Gas,
	}
	if r.depth >= MaxRecursiveDepth {
		return errResult, nil
	}
	r.depth++

	if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
		return errResult, nil
	}
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return errResult, nil
	}

	code := ember.Code(parameters.Input)
	codeHash := hashCode(code)

	createdAddress := createAddress(kind, parameters.Sender, r.GetNonce(parameters.Sender)-1,
		parameters.Salt, codeHash)

	r.AccessAccount(createdAddress)

	// A collision with an account carrying a nonce or code fails the
	// creation, consuming all gas.
	if r.GetNonce(createdAddress) != 0 ||
		(r.GetCodeHash(createdAddress) != (ember.Hash{}) &&
			r.GetCodeHash(createdAddress) != emptyCodeHash) {
		return ember.CallResult{}, nil
	}
	snapshot := r.CreateSnapshot()
	r.SetNonce(createdAddress, 1)

	transferValue(r, parameters.Value, parameters.Sender, createdAddress)

	interpreterParameters := ember.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             createdAddress,
		Sender:                parameters.Sender,
		Input:                 nil,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	result, err := r.interpreter.Run(interpreterParameters)
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(result, err) {
			// if the unsuccessful create was due to a revert, the result is still returned
			return ember.CallResult{}, err
		}
		return ember.CallResult{
			Output:         result.Output,
			GasLeft:        result.GasLeft,
			CreatedAddress: createdAddress,
		}, nil
	}

	// The produced code is subject to the deployment checks: the size limit
	// (EIP-170), the 0xEF prefix ban (EIP-3541), and the per-byte deposit
	// charge.
	outCode := result.Output
	if len(outCode) > maxCodeSize {
		result.Success = false
	}
	if len(outCode) > 0 && outCode[0] == 0xEF {
		result.Success = false
	}
	createGas := ember.Gas(len(outCode)) * createGasCostPerByte
	if result.GasLeft < createGas {
		result.Success = false
	} else {
		result.GasLeft -= createGas
	}

	if result.Success {
		r.SetCode(createdAddress, ember.Code(outCode))
	} else {
		r.RestoreSnapshot(snapshot)
		result.GasLeft = 0
		result.Output = nil
	}

	return ember.CallResult{
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}, nil
}

// isRevert distinguishes an orderly revert from a failed execution. A revert
// retains its remaining gas and may carry output, a failure forfeits both.
func isRevert(result ember.Result, err error) bool {
	return err == nil && !result.Success && (result.GasLeft > 0 || len(result.Output) > 0)
}

func hashCode(code ember.Code) ember.Hash {
	return ember.Hash(crypto.Keccak256(code))
}

// createAddress derives the address of a new contract. Plain creations hash
// the sender and its nonce, CREATE2 hashes the sender, the salt, and the init
// code.
func createAddress(
	kind ember.CallKind,
	sender ember.Address,
	nonce uint64,
	salt ember.Hash,
	initHash ember.Hash,
) ember.Address {
	if kind == ember.Create {
		return ember.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return ember.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

func canTransferValue(
	context ember.TransactionContext,
	value ember.Value,
	sender ember.Address,
	recipient *ember.Address,
) bool {
	if value == (ember.Value{}) {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return false
	}

	if recipient == nil || sender == *recipient {
		return true
	}

	receiverBalance := context.GetBalance(*recipient)
	updatedBalance := ember.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return false
	}

	return true
}

func incrementNonce(context ember.TransactionContext, address ember.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}

// Only to be called after canTransferValue.
func transferValue(
	context ember.TransactionContext,
	value ember.Value,
	sender ember.Address,
	recipient ember.Address,
) {
	if value == (ember.Value{}) {
		return
	}
	if sender == recipient {
		return
	}

	senderBalance := context.GetBalance(sender)
	receiverBalance := context.GetBalance(recipient)
	updatedBalance := ember.Add(receiverBalance, value)

	senderBalance = ember.Sub(senderBalance, value)
	context.SetBalance(sender, senderBalance)
	context.SetBalance(recipient, updatedBalance)
}
