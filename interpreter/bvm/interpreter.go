// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

package bvm

import (
	"fmt"

	"github.com/ember-vm/ember"
)

// status is enumeration of the execution state of an interpreter run.
type status byte

const (
	statusRunning        status = iota // < all fine, ops are processed
	statusStopped                      // < execution stopped with a STOP
	statusReverted                     // < execution stopped with a REVERT
	statusReturned                     // < execution stopped with a RETURN
	statusSelfDestructed               // < execution stopped with a SELFDESTRUCT
	statusFailed                       // < execution stopped with a logic error
)

// context is the execution environment of an interpreter run. It contains all
// the necessary state to execute a contract, including input parameters, the
// contract code and its jump destination analysis, and internal execution
// state such as the program counter, stack, and memory. For each contract
// execution, a new context is created.
type context struct {
	// Inputs
	params  ember.Parameters
	context ember.RunContext
	code    ember.Code
	dests   destinations

	// Execution state
	status status
	pc     int32
	gas    ember.Gas
	refund ember.Gas
	stack  *stack
	memory *Memory

	// Intermediate data
	returnData []byte // < the result of the last nested contract call
}

// useGas reduces the gas level by the given amount. If the gas level drops
// below zero, an error is returned and the caller should stop the execution.
func (c *context) useGas(amount ember.Gas) error {
	if c.gas < 0 || amount < 0 || c.gas < amount {
		return errOutOfGas
	}
	c.gas -= amount
	return nil
}

// --- Instruction dispatch ---

// operation binds the implementation of a single instruction to its static
// gas price and its stack requirements. Instructions with a nil execute
// function are invalid.
type operation struct {
	execute   func(*context) error
	staticGas ember.Gas
	minStack  int // minimum stack height required by the instruction
	maxStack  int // maximum stack height allowing the instruction to push
}

// op describes an instruction by its implementation, static gas price, and
// the number of stack elements it pops and pushes.
func op(execute func(*context) error, staticGas ember.Gas, pops, pushes int) operation {
	return operation{
		execute:   execute,
		staticGas: staticGas,
		minStack:  pops,
		maxStack:  maxStackSize + pops - pushes,
	}
}

var instructionSet = newInstructionSet()

func newInstructionSet() [256]operation {
	var set [256]operation

	set[STOP] = op(opStop, 0, 0, 0)
	set[ADD] = op(opAdd, 3, 2, 1)
	set[MUL] = op(opMul, 5, 2, 1)
	set[SUB] = op(opSub, 3, 2, 1)
	set[DIV] = op(opDiv, 5, 2, 1)
	set[SDIV] = op(opSDiv, 5, 2, 1)
	set[MOD] = op(opMod, 5, 2, 1)
	set[SMOD] = op(opSMod, 5, 2, 1)
	set[ADDMOD] = op(opAddMod, 8, 3, 1)
	set[MULMOD] = op(opMulMod, 8, 3, 1)
	set[EXP] = op(opExp, 10, 2, 1)
	set[SIGNEXTEND] = op(opSignExtend, 5, 2, 1)

	set[LT] = op(opLt, 3, 2, 1)
	set[GT] = op(opGt, 3, 2, 1)
	set[SLT] = op(opSlt, 3, 2, 1)
	set[SGT] = op(opSgt, 3, 2, 1)
	set[EQ] = op(opEq, 3, 2, 1)
	set[ISZERO] = op(opIszero, 3, 1, 1)
	set[AND] = op(opAnd, 3, 2, 1)
	set[OR] = op(opOr, 3, 2, 1)
	set[XOR] = op(opXor, 3, 2, 1)
	set[NOT] = op(opNot, 3, 1, 1)
	set[BYTE] = op(opByte, 3, 2, 1)
	set[SHL] = op(opShl, 3, 2, 1)
	set[SHR] = op(opShr, 3, 2, 1)
	set[SAR] = op(opSar, 3, 2, 1)

	set[SHA3] = op(opSha3, 30, 2, 1)

	set[ADDRESS] = op(opAddress, 2, 0, 1)
	set[BALANCE] = op(opBalance, 0, 1, 1)
	set[ORIGIN] = op(opOrigin, 2, 0, 1)
	set[CALLER] = op(opCaller, 2, 0, 1)
	set[CALLVALUE] = op(opCallvalue, 2, 0, 1)
	set[CALLDATALOAD] = op(opCallDataload, 3, 1, 1)
	set[CALLDATASIZE] = op(opCallDatasize, 2, 0, 1)
	set[CALLDATACOPY] = op(opCallDataCopy, 3, 3, 0)
	set[CODESIZE] = op(opCodeSize, 2, 0, 1)
	set[CODECOPY] = op(opCodeCopy, 3, 3, 0)
	set[GASPRICE] = op(opGasPrice, 2, 0, 1)
	set[EXTCODESIZE] = op(opExtcodesize, 0, 1, 1)
	set[EXTCODECOPY] = op(opExtCodeCopy, 0, 4, 0)
	set[RETURNDATASIZE] = op(opReturnDataSize, 2, 0, 1)
	set[RETURNDATACOPY] = op(opReturnDataCopy, 3, 3, 0)
	set[EXTCODEHASH] = op(opExtcodehash, 0, 1, 1)

	set[BLOCKHASH] = op(opBlockhash, 20, 1, 1)
	set[COINBASE] = op(opCoinbase, 2, 0, 1)
	set[TIMESTAMP] = op(opTimestamp, 2, 0, 1)
	set[NUMBER] = op(opNumber, 2, 0, 1)
	set[PREVRANDAO] = op(opPrevRandao, 2, 0, 1)
	set[GASLIMIT] = op(opGasLimit, 2, 0, 1)
	set[CHAINID] = op(opChainId, 2, 0, 1)
	set[SELFBALANCE] = op(opSelfbalance, 5, 0, 1)
	set[BASEFEE] = op(opBaseFee, 2, 0, 1)

	set[POP] = op(opPop, 2, 1, 0)
	set[MLOAD] = op(opMload, 3, 1, 1)
	set[MSTORE] = op(opMstore, 3, 2, 0)
	set[MSTORE8] = op(opMstore8, 3, 2, 0)
	set[SLOAD] = op(opSload, 0, 1, 1)
	set[SSTORE] = op(opSstore, 0, 2, 0)
	set[JUMP] = op(opJump, 8, 1, 0)
	set[JUMPI] = op(opJumpi, 10, 2, 0)
	set[PC] = op(opPc, 2, 0, 1)
	set[MSIZE] = op(opMsize, 2, 0, 1)
	set[GAS] = op(opGas, 2, 0, 1)
	set[JUMPDEST] = op(opJumpdest, 1, 0, 0)

	for i := 0; i < 32; i++ {
		n := i + 1
		set[PUSH1+OpCode(i)] = op(func(c *context) error {
			return opPush(c, n)
		}, 3, 0, 1)
	}
	for i := 0; i < 16; i++ {
		n := i + 1
		set[DUP1+OpCode(i)] = op(func(c *context) error {
			return opDup(c, n)
		}, 3, n, n+1)
		set[SWAP1+OpCode(i)] = op(func(c *context) error {
			return opSwap(c, n)
		}, 3, n+1, n+1)
	}
	for i := 0; i <= 4; i++ {
		n := i
		set[LOG0+OpCode(i)] = op(func(c *context) error {
			return opLog(c, n)
		}, LogTopicGas*ember.Gas(n+1), n+2, 0)
	}

	set[CREATE] = op(opCreate, CreateGas, 3, 1)
	set[CALL] = op(opCall, 0, 7, 1)
	set[CALLCODE] = op(opCallCode, 0, 7, 1)
	set[RETURN] = op(opReturn, 0, 2, 0)
	set[DELEGATECALL] = op(opDelegateCall, 0, 6, 1)
	set[CREATE2] = op(opCreate2, CreateGas, 4, 1)
	set[STATICCALL] = op(opStaticCall, 0, 6, 1)
	set[REVERT] = op(opRevert, 0, 2, 0)
	set[INVALID] = op(opInvalid, 0, 0, 0)
	set[SELFDESTRUCT] = op(opSelfdestruct, SelfdestructGas, 1, 0)

	return set
}

// --- Interpreter ---

type runner interface {
	// run executes the contract code in the given context.
	// It returns the status of the execution:
	// - Any logical error in the contract execution shall return statusFailed.
	// - error is reserved to return runtime errors, which are not valid states
	// and may not be recoverable.
	run(*context) (status, error)
}

func run(
	config Config,
	params ember.Parameters,
	dests destinations,
) (ember.Result, error) {
	// Don't bother with the execution if there's no code.
	if len(params.Code) == 0 {
		return ember.Result{
			Output:  nil,
			GasLeft: params.Gas,
			Success: true,
		}, nil
	}

	// Set up execution context.
	var ctxt = context{
		params:  params,
		context: params.Context,
		gas:     params.Gas,
		stack:   NewStack(),
		memory:  NewMemory(),
		code:    params.Code,
		dests:   dests,
	}
	defer ReturnStack(ctxt.stack)

	if config.runner == nil {
		config.runner = vanillaRunner{}
	}
	status, err := config.runner.run(&ctxt)
	if err != nil {
		return ember.Result{}, err
	}

	return generateResult(status, &ctxt)
}

func generateResult(status status, ctxt *context) (ember.Result, error) {
	switch status {
	case statusStopped, statusSelfDestructed:
		return ember.Result{
			Success:   true,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReturned:
		return ember.Result{
			Success:   true,
			Output:    ctxt.returnData,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReverted:
		return ember.Result{
			Success: false,
			Output:  ctxt.returnData,
			GasLeft: ctxt.gas,
		}, nil
	case statusFailed:
		return ember.Result{
			Success: false,
		}, nil
	default:
		return ember.Result{}, fmt.Errorf("unexpected error in interpreter, unknown status: %v", status)
	}
}

// --- Runners ---

// vanillaRunner is the default runner that executes the contract code without
// any additional features.
type vanillaRunner struct{}

func (r vanillaRunner) run(c *context) (status, error) {
	return execute(c, false), nil
}

// --- Execution ---

// execute runs the contract code in the given context. If oneStepOnly is
// true, only the instruction pointed to by the program counter will be
// executed. If the contract execution yields any execution violation (i.e.
// out of gas, stack underflow, etc), the function returns statusFailed.
func execute(c *context, oneStepOnly bool) status {
	status, err := steps(c, oneStepOnly)
	if err != nil {
		return statusFailed
	}
	return status
}

// step executes a single instruction in the given context.
func step(c *context) (status, error) {
	return steps(c, true)
}

// steps executes the contract code in the given context. If oneStepOnly is
// true, only the instruction pointed to by the program counter will be
// executed. steps returns the status of the execution and an error if the
// contract execution yields any execution violation (i.e. out of gas, stack
// underflow, etc).
func steps(c *context, oneStepOnly bool) (status, error) {
	for c.status == statusRunning {
		// Running over the end of the code is a regular stop.
		if int(c.pc) >= len(c.code) {
			return statusStopped, nil
		}

		inst := instructionSet[c.code[c.pc]]
		if inst.execute == nil {
			return c.status, errInvalidOpCode
		}

		// Check stack boundaries for every instruction.
		if c.stack.len() < inst.minStack {
			return c.status, errStackUnderflow
		}
		if c.stack.len() > inst.maxStack {
			return c.status, errStackOverflow
		}

		// Consume static gas price for the instruction before execution.
		if err := c.useGas(inst.staticGas); err != nil {
			return c.status, err
		}

		if err := inst.execute(c); err != nil {
			return c.status, err
		}

		c.pc++
		if oneStepOnly {
			break
		}
	}
	return c.status, nil
}
