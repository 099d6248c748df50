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
	"bytes"
	"testing"

	"github.com/ember-vm/ember"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

func newTestContext() *context {
	return &context{
		stack:  NewStack(),
		memory: NewMemory(),
		gas:    1 << 30,
	}
}

func TestInstructions_ArithmeticOperationsProduceExpectedResults(t *testing.T) {
	tests := map[string]struct {
		op    func(*context) error
		stack []uint64 // bottom to top
		want  uint64
	}{
		"add":             {opAdd, []uint64{12, 30}, 42},
		"mul":             {opMul, []uint64{6, 7}, 42},
		"sub":             {opSub, []uint64{12, 54}, 42}, // top minus second
		"div":             {opDiv, []uint64{2, 84}, 42},
		"div by zero":     {opDiv, []uint64{0, 84}, 0},
		"sdiv":            {opSDiv, []uint64{2, 84}, 42},
		"mod":             {opMod, []uint64{5, 47}, 2},
		"mod by zero":     {opMod, []uint64{0, 47}, 0},
		"smod":            {opSMod, []uint64{5, 47}, 2},
		"addmod":          {opAddMod, []uint64{5, 4, 3}, 2},
		"addmod by zero":  {opAddMod, []uint64{0, 4, 3}, 0},
		"mulmod":          {opMulMod, []uint64{5, 4, 3}, 2},
		"exp":             {opExp, []uint64{3, 2}, 8}, // 2^3
		"lt true":         {opLt, []uint64{2, 1}, 1},
		"lt false":        {opLt, []uint64{1, 2}, 0},
		"gt true":         {opGt, []uint64{1, 2}, 1},
		"eq true":         {opEq, []uint64{7, 7}, 1},
		"eq false":        {opEq, []uint64{7, 8}, 0},
		"iszero true":     {opIszero, []uint64{0}, 1},
		"iszero false":    {opIszero, []uint64{12}, 0},
		"and":             {opAnd, []uint64{0b1100, 0b1010}, 0b1000},
		"or":              {opOr, []uint64{0b1100, 0b1010}, 0b1110},
		"xor":             {opXor, []uint64{0b1100, 0b1010}, 0b0110},
		"shl":             {opShl, []uint64{1, 1}, 2},
		"shr":             {opShr, []uint64{4, 1}, 2},
		"shl overflowing": {opShl, []uint64{1, 300}, 0},
		"byte":            {opByte, []uint64{0xAB, 31}, 0xAB},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctxt := newTestContext()
			for _, value := range test.stack {
				ctxt.stack.push(uint256.NewInt(value))
			}
			if err := test.op(ctxt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := 1, ctxt.stack.len(); want != got {
				t.Fatalf("unexpected stack size, wanted %d, got %d", want, got)
			}
			if want, got := test.want, ctxt.stack.peek().Uint64(); want != got {
				t.Errorf("unexpected result, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestInstructions_SubtractionWrapsAround(t *testing.T) {
	ctxt := newTestContext()
	ctxt.stack.push(uint256.NewInt(5)) // subtrahend
	ctxt.stack.push(uint256.NewInt(3)) // minuend on top
	if err := opSub(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Sub(uint256.NewInt(3), uint256.NewInt(5))
	if got := ctxt.stack.peek(); want.Cmp(got) != 0 {
		t.Errorf("unexpected result, wanted %v, got %v", want, got)
	}
}

func TestInstructions_ExpChargesPerExponentByte(t *testing.T) {
	ctxt := newTestContext()
	ctxt.gas = 1000
	exponent := new(uint256.Int).Lsh(uint256.NewInt(1), 16) // 3 bytes
	ctxt.stack.push(exponent)
	ctxt.stack.push(uint256.NewInt(2))
	if err := opExp(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := ember.Gas(1000-3*50), ctxt.gas; want != got {
		t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
	}
}

func TestOpSha3_HashesMemoryContentAndChargesPerWord(t *testing.T) {
	ctxt := newTestContext()
	ctxt.gas = 1000
	if err := ctxt.memory.set(0, 3, []byte("abc"), ctxt); err != nil {
		t.Fatalf("failed to initialize memory: %v", err)
	}
	gasBefore := ctxt.gas
	ctxt.stack.push(uint256.NewInt(3)) // size
	ctxt.stack.push(uint256.NewInt(0)) // offset on top

	if err := opSha3(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Keccak256([]byte("abc"))
	if got := ctxt.stack.peek().Bytes32(); want != ember.Hash(got) {
		t.Errorf("unexpected hash, wanted %x, got %x", want, got)
	}
	if want, got := gasBefore-Keccak256WordGas, ctxt.gas; want != got {
		t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
	}
}

func TestOpSload_ChargesByAccessTemperature(t *testing.T) {
	tests := map[string]struct {
		temperature ember.AccessStatus
		costs       ember.Gas
	}{
		"cold": {ember.ColdAccess, 2200},
		"warm": {ember.WarmAccess, 100},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runContext := ember.NewMockRunContext(ctrl)

			addr := ember.Address{0x42}
			key := ember.Key{0x01}
			value := ember.Word{0x02}
			runContext.EXPECT().AccessStorage(addr, key).Return(test.temperature)
			runContext.EXPECT().GetStorage(addr, key).Return(value)

			ctxt := newTestContext()
			ctxt.gas = 10000
			ctxt.params.Recipient = addr
			ctxt.context = runContext
			ctxt.stack.push(new(uint256.Int).SetBytes32(key[:]))

			if err := opSload(ctxt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := ember.Gas(10000)-test.costs, ctxt.gas; want != got {
				t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
			}
			if want, got := value, ember.Word(ctxt.stack.peek().Bytes32()); want != got {
				t.Errorf("unexpected value, wanted %v, got %v", want, got)
			}
		})
	}
}

func TestOpSstore_ChargesAccessAndEffectAndTracksRefund(t *testing.T) {
	tests := map[string]struct {
		temperature ember.AccessStatus
		status      ember.StorageStatus
		costs       ember.Gas
		refund      ember.Gas
	}{
		"cold addition":    {ember.ColdAccess, ember.StorageAdded, 2100 + 20000, 0},
		"warm addition":    {ember.WarmAccess, ember.StorageAdded, 20000, 0},
		"warm deletion":    {ember.WarmAccess, ember.StorageDeleted, 2900, 4800},
		"warm assignment":  {ember.WarmAccess, ember.StorageAssigned, 100, 0},
		"cold restoration": {ember.ColdAccess, ember.StorageModifiedRestored, 2100 + 100, 2800},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runContext := ember.NewMockRunContext(ctrl)

			addr := ember.Address{0x42}
			key := ember.Key{0x01}
			value := ember.Word{0x02}
			runContext.EXPECT().AccessStorage(addr, key).Return(test.temperature)
			runContext.EXPECT().SetStorage(addr, key, value).Return(test.status)

			ctxt := newTestContext()
			ctxt.gas = 50000
			ctxt.params.Recipient = addr
			ctxt.context = runContext
			ctxt.stack.push(new(uint256.Int).SetBytes32(value[:]))
			ctxt.stack.push(new(uint256.Int).SetBytes32(key[:]))

			if err := opSstore(ctxt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := ember.Gas(50000)-test.costs, ctxt.gas; want != got {
				t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
			}
			if want, got := test.refund, ctxt.refund; want != got {
				t.Errorf("unexpected refund, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestOpSstore_FailsInStaticContext(t *testing.T) {
	ctxt := newTestContext()
	ctxt.params.Static = true
	if err := opSstore(ctxt); err != errStaticContextViolation {
		t.Errorf("expected static context violation, got %v", err)
	}
}

func TestOpSstore_EnforcesGasSentry(t *testing.T) {
	ctxt := newTestContext()
	ctxt.gas = SstoreSentryGas
	if err := opSstore(ctxt); err != errOutOfGas {
		t.Errorf("expected out-of-gas error, got %v", err)
	}
}

func TestOpBalance_ChargesAccessCost(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	addr := ember.Address{0x42}
	runContext.EXPECT().AccessAccount(addr).Return(ember.ColdAccess)
	runContext.EXPECT().GetBalance(addr).Return(ember.NewValue(12))

	ctxt := newTestContext()
	ctxt.gas = 10000
	ctxt.context = runContext
	ctxt.stack.push(new(uint256.Int).SetBytes20(addr[:]))

	if err := opBalance(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := ember.Gas(10000)-ColdAccountAccessCost, ctxt.gas; want != got {
		t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
	}
	if want, got := uint64(12), ctxt.stack.peek().Uint64(); want != got {
		t.Errorf("unexpected balance, wanted %d, got %d", want, got)
	}
}

func TestOpExtcodehash_NonExistingAccountYieldsZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	addr := ember.Address{0x42}
	runContext.EXPECT().AccessAccount(addr).Return(ember.WarmAccess)
	runContext.EXPECT().AccountExists(addr).Return(false)

	ctxt := newTestContext()
	ctxt.context = runContext
	ctxt.stack.push(new(uint256.Int).SetBytes20(addr[:]))

	if err := opExtcodehash(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctxt.stack.peek().IsZero() {
		t.Errorf("expected zero hash, got %v", ctxt.stack.peek())
	}
}

func TestOpLog_EmitsTopicsAndDetachedData(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	addr := ember.Address{0x42}
	topic := ember.Hash{0x07}
	var emitted ember.Log
	runContext.EXPECT().EmitLog(gomock.Any()).Do(func(log ember.Log) {
		emitted = log
	})

	ctxt := newTestContext()
	ctxt.params.Recipient = addr
	ctxt.context = runContext
	if err := ctxt.memory.set(0, 4, []byte{1, 2, 3, 4}, ctxt); err != nil {
		t.Fatalf("failed to initialize memory: %v", err)
	}
	ctxt.stack.push(new(uint256.Int).SetBytes32(topic[:]))
	ctxt.stack.push(uint256.NewInt(4)) // size
	ctxt.stack.push(uint256.NewInt(0)) // offset on top

	if err := opLog(ctxt, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emitted.Address != addr {
		t.Errorf("unexpected log address, wanted %v, got %v", addr, emitted.Address)
	}
	if len(emitted.Topics) != 1 || emitted.Topics[0] != topic {
		t.Errorf("unexpected topics: %v", emitted.Topics)
	}
	if !bytes.Equal(emitted.Data, []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected log data: %v", emitted.Data)
	}
}

func TestOpLog_FailsInStaticContext(t *testing.T) {
	ctxt := newTestContext()
	ctxt.params.Static = true
	if err := opLog(ctxt, 0); err != errStaticContextViolation {
		t.Errorf("expected static context violation, got %v", err)
	}
}

func TestGenericCall_InsufficientBalancePushesZeroAndRefundsGas(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	sender := ember.Address{0x01}
	target := ember.Address{0x02}
	runContext.EXPECT().AccessAccount(target).Return(ember.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(true)
	runContext.EXPECT().GetBalance(sender).Return(ember.NewValue(5))

	ctxt := newTestContext()
	ctxt.gas = 100000
	ctxt.params.Recipient = sender
	ctxt.context = runContext

	// gas, addr, value, inOffset, inSize, retOffset, retSize
	for _, value := range []uint64{0, 0, 0, 0, 10, 0, 50000} {
		ctxt.stack.push(uint256.NewInt(value))
	}
	ctxt.stack.data[5].SetBytes20(target[:])

	if err := opCall(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctxt.stack.peek().IsZero() {
		t.Errorf("expected call to report failure on the stack")
	}
	// The forwarded gas, including the stipend, is returned. Only the access
	// and value-transfer surcharges remain consumed.
	want := ember.Gas(100000) - WarmStorageReadCost - CallValueTransferGas + CallStipend
	if got := ctxt.gas; want != got {
		t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
	}
}

func TestGenericCall_ForwardsAtMostAllButOne64thOfTheRemainingGas(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	target := ember.Address{0x02}
	runContext.EXPECT().AccessAccount(target).Return(ember.WarmAccess)

	var forwarded ember.Gas
	runContext.EXPECT().Call(ember.Call, gomock.Any()).DoAndReturn(
		func(_ ember.CallKind, params ember.CallParameters) (ember.CallResult, error) {
			forwarded = params.Gas
			return ember.CallResult{Success: true}, nil
		})

	ctxt := newTestContext()
	ctxt.gas = 64000
	ctxt.context = runContext

	for _, value := range []uint64{0, 0, 0, 0, 0, 0, 0} {
		ctxt.stack.push(uint256.NewInt(value))
	}
	ctxt.stack.data[5].SetBytes20(target[:])
	ctxt.stack.data[6].SetUint64(1 << 40) // request more than available

	if err := opCall(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	available := ember.Gas(64000) - WarmStorageReadCost
	if want := available - available/64; forwarded != want {
		t.Errorf("unexpected forwarded gas, wanted %d, got %d", want, forwarded)
	}
}

func TestOpCall_StaticContextRejectsValueTransfer(t *testing.T) {
	ctxt := newTestContext()
	ctxt.params.Static = true
	for _, value := range []uint64{0, 0, 0, 0, 1, 0, 0} {
		ctxt.stack.push(uint256.NewInt(value))
	}
	if err := opCall(ctxt); err != errStaticContextViolation {
		t.Errorf("expected static context violation, got %v", err)
	}
}

func TestGenericCall_DelegateCallInheritsSenderAndValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	sender := ember.Address{0x01}
	recipient := ember.Address{0x02}
	codeAddr := ember.Address{0x03}
	runContext.EXPECT().AccessAccount(codeAddr).Return(ember.WarmAccess)

	var captured ember.CallParameters
	runContext.EXPECT().Call(ember.DelegateCall, gomock.Any()).DoAndReturn(
		func(_ ember.CallKind, params ember.CallParameters) (ember.CallResult, error) {
			captured = params
			return ember.CallResult{Success: true}, nil
		})

	ctxt := newTestContext()
	ctxt.gas = 100000
	ctxt.params.Sender = sender
	ctxt.params.Recipient = recipient
	ctxt.params.Value = ember.NewValue(42)
	ctxt.context = runContext

	// gas, addr, inOffset, inSize, retOffset, retSize
	for _, value := range []uint64{0, 0, 0, 0, 0, 1000} {
		ctxt.stack.push(uint256.NewInt(value))
	}
	ctxt.stack.data[4].SetBytes20(codeAddr[:])

	if err := opDelegateCall(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Sender != sender {
		t.Errorf("unexpected sender, wanted %v, got %v", sender, captured.Sender)
	}
	if captured.Recipient != recipient {
		t.Errorf("unexpected recipient, wanted %v, got %v", recipient, captured.Recipient)
	}
	if captured.CodeAddress != codeAddr {
		t.Errorf("unexpected code address, wanted %v, got %v", codeAddr, captured.CodeAddress)
	}
	if captured.Value != ember.NewValue(42) {
		t.Errorf("unexpected value, wanted %v, got %v", ember.NewValue(42), captured.Value)
	}
}

func TestGenericCreate_InsufficientBalancePushesZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	sender := ember.Address{0x01}
	runContext.EXPECT().GetBalance(sender).Return(ember.NewValue(5))

	ctxt := newTestContext()
	ctxt.params.Recipient = sender
	ctxt.context = runContext

	ctxt.stack.push(uint256.NewInt(0))  // size
	ctxt.stack.push(uint256.NewInt(0))  // offset
	ctxt.stack.push(uint256.NewInt(10)) // value on top

	if err := opCreate(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctxt.stack.peek().IsZero() {
		t.Errorf("expected create to report failure on the stack")
	}
}

func TestGenericCreate_SuccessPushesCreatedAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	created := ember.Address{0xAA}
	runContext.EXPECT().Call(ember.Create, gomock.Any()).Return(ember.CallResult{
		Success:        true,
		CreatedAddress: created,
	}, nil)

	ctxt := newTestContext()
	ctxt.context = runContext

	ctxt.stack.push(uint256.NewInt(0)) // size
	ctxt.stack.push(uint256.NewInt(0)) // offset
	ctxt.stack.push(uint256.NewInt(0)) // value on top

	if err := opCreate(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := created, ember.Address(ctxt.stack.peek().Bytes20()); want != got {
		t.Errorf("unexpected address on the stack, wanted %v, got %v", want, got)
	}
}

func TestGenericCreate_FailsInStaticContext(t *testing.T) {
	ctxt := newTestContext()
	ctxt.params.Static = true
	if err := opCreate(ctxt); err != errStaticContextViolation {
		t.Errorf("expected static context violation, got %v", err)
	}
}

func TestOpSelfdestruct_StopsExecutionWithoutGrantingARefund(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	addr := ember.Address{0x01}
	beneficiary := ember.Address{0x02}
	runContext.EXPECT().AccessAccount(beneficiary).Return(ember.WarmAccess)
	runContext.EXPECT().AccountExists(beneficiary).Return(true)
	runContext.EXPECT().GetBalance(addr).Return(ember.NewValue(100))
	runContext.EXPECT().SelfDestruct(addr, beneficiary).Return(true)

	ctxt := newTestContext()
	ctxt.gas = 10000
	ctxt.params.Recipient = addr
	ctxt.context = runContext
	ctxt.stack.push(new(uint256.Int).SetBytes20(beneficiary[:]))

	if err := opSelfdestruct(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := statusSelfDestructed, ctxt.status; want != got {
		t.Errorf("unexpected status, wanted %v, got %v", want, got)
	}
	if want, got := ember.Gas(0), ctxt.refund; want != got {
		t.Errorf("self-destruct must not grant a refund, got %d", got)
	}
}

func TestOpSelfdestruct_NewFundedBeneficiaryCostsExtra(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := ember.NewMockRunContext(ctrl)

	addr := ember.Address{0x01}
	beneficiary := ember.Address{0x02}
	runContext.EXPECT().AccessAccount(beneficiary).Return(ember.ColdAccess)
	runContext.EXPECT().AccountExists(beneficiary).Return(false)
	runContext.EXPECT().GetBalance(addr).Return(ember.NewValue(100))
	runContext.EXPECT().SelfDestruct(addr, beneficiary).Return(true)

	ctxt := newTestContext()
	ctxt.gas = 50000
	ctxt.params.Recipient = addr
	ctxt.context = runContext
	ctxt.stack.push(new(uint256.Int).SetBytes20(beneficiary[:]))

	if err := opSelfdestruct(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ember.Gas(50000) - ColdAccountAccessCost - CreateBySelfdestructGas
	if got := ctxt.gas; want != got {
		t.Errorf("unexpected gas level, wanted %d, got %d", want, got)
	}
}

func TestOpReturnDataCopy_OutOfBoundsReadsAreRejected(t *testing.T) {
	ctxt := newTestContext()
	ctxt.returnData = []byte{1, 2, 3}

	// memOffset, dataOffset, length
	ctxt.stack.push(uint256.NewInt(4)) // length
	ctxt.stack.push(uint256.NewInt(0)) // dataOffset
	ctxt.stack.push(uint256.NewInt(0)) // memOffset on top

	if err := opReturnDataCopy(ctxt); err != errReturnDataOutOfBounds {
		t.Errorf("expected out-of-bounds error, got %v", err)
	}
}

func TestOpCallDataload_ReadsZeroPaddedWord(t *testing.T) {
	ctxt := newTestContext()
	ctxt.params.Input = []byte{0x01, 0x02}
	ctxt.stack.push(uint256.NewInt(1))

	if err := opCallDataload(ctxt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(0x02), 248)
	if got := ctxt.stack.peek(); want.Cmp(got) != 0 {
		t.Errorf("unexpected value, wanted %v, got %v", want, got)
	}
}

func TestOpBlockhash_OnlyRecentBlocksAreAccessible(t *testing.T) {
	hash := ember.Hash{0x11}
	tests := map[string]struct {
		block    uint64
		resolved bool
	}{
		"previous block": {999, true},
		"oldest allowed": {744, true},
		"too old":        {743, false},
		"current block":  {1000, false},
		"future block":   {2000, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runContext := ember.NewMockRunContext(ctrl)
			if test.resolved {
				runContext.EXPECT().GetBlockHash(int64(test.block)).Return(hash)
			}

			ctxt := newTestContext()
			ctxt.params.BlockNumber = 1000
			ctxt.context = runContext
			ctxt.stack.push(uint256.NewInt(test.block))

			if err := opBlockhash(ctxt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if test.resolved {
				if want, got := hash, ember.Hash(ctxt.stack.peek().Bytes32()); want != got {
					t.Errorf("unexpected hash, wanted %v, got %v", want, got)
				}
			} else if !ctxt.stack.peek().IsZero() {
				t.Errorf("expected zero hash for block %d", test.block)
			}
		})
	}
}

func TestOpJump_InvalidDestinationsAreRejected(t *testing.T) {
	code := ember.Code{byte(PUSH1), byte(JUMPDEST), byte(JUMPDEST), byte(STOP)}
	dests := analyzeCode(code)

	tests := map[string]struct {
		destination uint64
		err         error
	}{
		"valid jumpdest":     {2, nil},
		"push data jumpdest": {1, errInvalidJump},
		"no jumpdest":        {3, errInvalidJump},
		"out of code":        {100, errInvalidJump},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctxt := newTestContext()
			ctxt.code = code
			ctxt.dests = dests
			ctxt.stack.push(uint256.NewInt(test.destination))

			if err := opJump(ctxt); err != test.err {
				t.Errorf("unexpected error, wanted %v, got %v", test.err, err)
			}
			if test.err == nil {
				if want, got := int32(test.destination)-1, ctxt.pc; want != got {
					t.Errorf("unexpected program counter, wanted %d, got %d", want, got)
				}
			}
		})
	}
}

func TestOpJumpi_JumpsOnlyOnNonZeroCondition(t *testing.T) {
	code := ember.Code{byte(JUMPDEST), byte(STOP)}
	dests := analyzeCode(code)

	tests := map[string]struct {
		condition uint64
		wantPc    int32
	}{
		"taken":     {1, -1},
		"not taken": {0, 0},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctxt := newTestContext()
			ctxt.code = code
			ctxt.dests = dests
			ctxt.stack.push(uint256.NewInt(test.condition))
			ctxt.stack.push(uint256.NewInt(0)) // destination on top

			if err := opJumpi(ctxt); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := test.wantPc, ctxt.pc; want != got {
				t.Errorf("unexpected program counter, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestOpPush_ImmediateDataBeyondCodeEndReadsAsZero(t *testing.T) {
	ctxt := newTestContext()
	ctxt.code = ember.Code{byte(PUSH4), 0x12, 0x34}
	if err := opPush(ctxt, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := uint64(0x12340000), ctxt.stack.peek().Uint64(); want != got {
		t.Errorf("unexpected value, wanted %x, got %x", want, got)
	}
	if want, got := int32(4), ctxt.pc; want != got {
		t.Errorf("unexpected program counter, wanted %d, got %d", want, got)
	}
}

func TestOpDup_DuplicatesTheElementAtTheRequestedDepth(t *testing.T) {
	// Each case holds exactly n elements, so DUP-n reaches the bottom one.
	for n := 1; n <= 16; n++ {
		ctxt := newTestContext()
		for i := 0; i < n; i++ {
			ctxt.stack.push(uint256.NewInt(uint64(100 + i)))
		}
		if err := opDup(ctxt, n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want, got := n+1, ctxt.stack.len(); want != got {
			t.Fatalf("unexpected stack size after DUP%d, wanted %d, got %d", n, want, got)
		}
		if want, got := uint64(100), ctxt.stack.peek().Uint64(); want != got {
			t.Errorf("unexpected value duplicated by DUP%d, wanted %d, got %d", n, want, got)
		}
	}
}

func TestOpSwap_SwapsTopWithTheElementAtTheRequestedDepth(t *testing.T) {
	for n := 1; n <= 16; n++ {
		ctxt := newTestContext()
		for i := 0; i <= n; i++ {
			ctxt.stack.push(uint256.NewInt(uint64(100 + i)))
		}
		if err := opSwap(ctxt, n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want, got := uint64(100), ctxt.stack.peek().Uint64(); want != got {
			t.Errorf("unexpected top after SWAP%d, wanted %d, got %d", n, want, got)
		}
		if want, got := uint64(100+n), ctxt.stack.peekN(n).Uint64(); want != got {
			t.Errorf("unexpected element at depth %d, wanted %d, got %d", n, want, got)
		}
	}
}

func TestInstructions_DupOnePreservesTheTopOfTheStack(t *testing.T) {
	ctxt := newTestContext()
	ctxt.code = ember.Code{
		byte(PUSH1), 5,
		byte(PUSH1), 7,
		byte(DUP1),
		byte(STOP),
	}
	status, err := steps(ctxt, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := statusStopped, status; want != got {
		t.Fatalf("unexpected status, wanted %v, got %v", want, got)
	}
	if want, got := 3, ctxt.stack.len(); want != got {
		t.Fatalf("unexpected stack size, wanted %d, got %d", want, got)
	}
	if want, got := uint64(7), ctxt.stack.peek().Uint64(); want != got {
		t.Errorf("unexpected top of stack, wanted %d, got %d", want, got)
	}
	if want, got := uint64(7), ctxt.stack.peekN(1).Uint64(); want != got {
		t.Errorf("unexpected duplicated element, wanted %d, got %d", want, got)
	}
}
