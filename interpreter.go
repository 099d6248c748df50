// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

package ember

//go:generate mockgen -source interpreter.go -destination interpreter_mock.go -package ember

// Interpreter is a component capable of executing contract byte-code. It is
// the main part of a VM implementation, though a full VM adds the ability to
// handle recursive contract calls and transaction handling.
// To obtain an Interpreter instance, client code should use NewInterpreter()
// provided by the registry file in this package.
type Interpreter interface {
	// Run executes the code provided by the parameters in the specified
	// context and returns the processing result. The resulting error is nil
	// whenever the code was correctly executed (even if the execution was
	// aborted due to a code-internal issue). The error is not nil if some
	// problem within the interpreter caused the execution to fail to
	// correctly process the provided program. In such a case the result is
	// undefined. Interpreters are required to be thread-safe. Thus, multiple
	// runs may be conducted in parallel.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the list of input parameters required for executing
// code.
type Parameters struct {
	BlockParameters
	TransactionParameters
	Context   RunContext
	Kind      CallKind
	Static    bool
	Depth     int
	Gas       Gas
	Recipient Address
	Sender    Address
	Input     Data
	Value     Value
	CodeHash  *Hash
	Code      Code
}

// BlockParameters contains information about the current block.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
	Coinbase    Address
	GasLimit    Gas
	PrevRandao  Hash
	BaseFee     Value
}

// TransactionParameters contains information about the current transaction.
type TransactionParameters struct {
	Origin   Address
	GasPrice Value
}

// RunContext provides an interface to access and manipulate state and
// transaction properties as needed by individual VM instructions.
type RunContext interface {
	TransactionContext

	Call(kind CallKind, parameters CallParameters) (CallResult, error)
}

// Result summarizes the result of a code computation.
type Result struct {
	Success   bool // false if the execution ended in a revert or fault, true otherwise
	Output    Data
	GasLeft   Gas
	GasRefund Gas
}

type CallParameters struct {
	Sender      Address
	Recipient   Address // < not relevant for CREATE and CREATE2
	Value       Value   // < ignored by static calls, considered to be 0
	Input       Data
	Gas         Gas
	Salt        Hash    // < only relevant for CREATE2 calls
	CodeAddress Address // < only relevant for CALLCODE and DELEGATECALL
}

type CallResult struct {
	Output         Data
	GasLeft        Gas
	GasRefund      Gas
	CreatedAddress Address // < only meaningful for CREATE and CREATE2
	Success        bool    // false if the execution ended in a revert, true otherwise
}
