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
	"math"

	"github.com/ember-vm/ember"
	"github.com/holiman/uint256"
)

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func opStop(c *context) error {
	c.status = statusStopped
	return nil
}

func opReturn(c *context) error {
	if err := opEndWithResult(c); err != nil {
		return err
	}
	c.status = statusReturned
	return nil
}

func opRevert(c *context) error {
	if err := opEndWithResult(c); err != nil {
		return err
	}
	c.status = statusReverted
	return nil
}

func opEndWithResult(c *context) error {
	offset := c.stack.pop()
	size := c.stack.pop()
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}
	var err error
	c.returnData, err = c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	return err
}

func opInvalid(c *context) error {
	return errInvalidOpCode
}

func opJump(c *context) error {
	destination := c.stack.pop()
	if !destination.IsUint64() || destination.Uint64() > math.MaxInt32 {
		return errInvalidJump
	}
	dest := destination.Uint64()
	if !c.dests.isValidJumpdest(dest) {
		return errInvalidJump
	}
	// The main loop increases the PC after each instruction.
	c.pc = int32(dest) - 1
	return nil
}

func opJumpi(c *context) error {
	destination := c.stack.pop()
	condition := c.stack.pop()
	if condition.IsZero() {
		return nil
	}
	if !destination.IsUint64() || destination.Uint64() > math.MaxInt32 {
		return errInvalidJump
	}
	dest := destination.Uint64()
	if !c.dests.isValidJumpdest(dest) {
		return errInvalidJump
	}
	c.pc = int32(dest) - 1
	return nil
}

func opJumpdest(c *context) error {
	return nil
}

func opPc(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(c.pc))
	return nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func opPop(c *context) error {
	c.stack.pop()
	return nil
}

func opPush(c *context, n int) error {
	z := c.stack.pushUndefined()
	start := int(c.pc) + 1
	end := start + n
	if end <= len(c.code) {
		z.SetBytes(c.code[start:end])
	} else {
		// Immediate data beyond the end of the code reads as zero.
		var data [32]byte
		copy(data[:n], c.code[start:])
		z.SetBytes(data[:n])
	}
	c.pc += int32(n)
	return nil
}

func opDup(c *context, n int) error {
	// dup takes the zero-based depth of the duplicated element.
	c.stack.dup(n - 1)
	return nil
}

func opSwap(c *context, n int) error {
	c.stack.swap(n)
	return nil
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func opAdd(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Add(a, b)
	return nil
}

func opMul(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mul(a, b)
	return nil
}

func opSub(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Sub(a, b)
	return nil
}

func opDiv(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Div(a, b)
	return nil
}

func opSDiv(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SDiv(a, b)
	return nil
}

func opMod(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mod(a, b)
	return nil
}

func opSMod(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SMod(a, b)
	return nil
}

func opAddMod(c *context) error {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.AddMod(a, b, n)
	return nil
}

func opMulMod(c *context) error {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.MulMod(a, b, n)
	return nil
}

func opExp(c *context) error {
	base, exponent := c.stack.pop(), c.stack.peek()
	if err := c.useGas(ExpByteGas * ember.Gas(exponent.ByteLen())); err != nil {
		return err
	}
	exponent.Exp(base, exponent)
	return nil
}

func opSignExtend(c *context) error {
	back := c.stack.pop()
	num := c.stack.peek()
	num.ExtendSign(num, back)
	return nil
}

// ---------------------------------------------------------------------------
// Comparison and bitwise logic
// ---------------------------------------------------------------------------

func opLt(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Lt(b))
	return nil
}

func opGt(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Gt(b))
	return nil
}

func opSlt(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Slt(b))
	return nil
}

func opSgt(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Sgt(b))
	return nil
}

func opEq(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Eq(b))
	return nil
}

func opIszero(c *context) error {
	top := c.stack.peek()
	setBool(top, top.IsZero())
	return nil
}

func setBool(trg *uint256.Int, value bool) {
	if value {
		trg.SetOne()
	} else {
		trg.Clear()
	}
}

func opAnd(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.And(a, b)
	return nil
}

func opOr(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Or(a, b)
	return nil
}

func opXor(c *context) error {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Xor(a, b)
	return nil
}

func opNot(c *context) error {
	top := c.stack.peek()
	top.Not(top)
	return nil
}

func opByte(c *context) error {
	position := c.stack.pop()
	value := c.stack.peek()
	value.Byte(position)
	return nil
}

func opShl(c *context) error {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil
}

func opShr(c *context) error {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil
}

func opSar(c *context) error {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil
}

// ---------------------------------------------------------------------------
// Hashing
// ---------------------------------------------------------------------------

func opSha3(c *context) error {
	offset := c.stack.pop()
	size := c.stack.peek()
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}
	words := ember.SizeInWords(size.Uint64())
	if err := c.useGas(Keccak256WordGas * ember.Gas(words)); err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	hash := Keccak256(data)
	size.SetBytes32(hash[:])
	return nil
}

// ---------------------------------------------------------------------------
// Execution environment
// ---------------------------------------------------------------------------

func opAddress(c *context) error {
	c.stack.pushUndefined().SetBytes20(c.params.Recipient[:])
	return nil
}

func opOrigin(c *context) error {
	c.stack.pushUndefined().SetBytes20(c.params.Origin[:])
	return nil
}

func opCaller(c *context) error {
	c.stack.pushUndefined().SetBytes20(c.params.Sender[:])
	return nil
}

func opCallvalue(c *context) error {
	c.stack.pushUndefined().SetBytes32(c.params.Value[:])
	return nil
}

func opGasPrice(c *context) error {
	c.stack.pushUndefined().SetBytes32(c.params.GasPrice[:])
	return nil
}

func opGas(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(c.gas))
	return nil
}

func opCallDataload(c *context) error {
	top := c.stack.peek()
	offset, overflow := top.Uint64WithOverflow()
	if overflow {
		top.Clear()
		return nil
	}
	top.SetBytes(getData(c.params.Input, offset, 32))
	return nil
}

func opCallDatasize(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Input)))
	return nil
}

func opCallDataCopy(c *context) error {
	return genericDataCopy(c, c.params.Input)
}

func opCodeSize(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Code)))
	return nil
}

func opCodeCopy(c *context) error {
	return genericDataCopy(c, c.params.Code)
}

// genericDataCopy copies a section of the given source data into memory,
// zero-padding reads past the end of the source.
func genericDataCopy(c *context, data []byte) error {
	memOffset := c.stack.pop()
	dataOffset := c.stack.pop()
	length := c.stack.pop()

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}
	words := ember.SizeInWords(length.Uint64())
	if err := c.useGas(CopyWordGas * ember.Gas(words)); err != nil {
		return err
	}
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		offset64 = math.MaxUint64
	}
	return c.memory.set(memOffset.Uint64(), length.Uint64(),
		getData(data, offset64, length.Uint64()), c)
}

func opReturnDataSize(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(len(c.returnData)))
	return nil
}

func opReturnDataCopy(c *context) error {
	memOffset := c.stack.pop()
	dataOffset := c.stack.pop()
	length := c.stack.pop()

	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return errReturnDataOutOfBounds
	}
	end := new(uint256.Int).Add(dataOffset, length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(c.returnData)) < end64 {
		return errReturnDataOutOfBounds
	}

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}
	words := ember.SizeInWords(length.Uint64())
	if err := c.useGas(CopyWordGas * ember.Gas(words)); err != nil {
		return err
	}
	return c.memory.set(memOffset.Uint64(), length.Uint64(),
		c.returnData[offset64:end64], c)
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func opBalance(c *context) error {
	top := c.stack.peek()
	address := ember.Address(top.Bytes20())
	if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
		return err
	}
	balance := c.context.GetBalance(address)
	top.SetBytes32(balance[:])
	return nil
}

func opSelfbalance(c *context) error {
	balance := c.context.GetBalance(c.params.Recipient)
	c.stack.pushUndefined().SetBytes32(balance[:])
	return nil
}

func opExtcodesize(c *context) error {
	top := c.stack.peek()
	address := ember.Address(top.Bytes20())
	if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
		return err
	}
	top.SetUint64(uint64(c.context.GetCodeSize(address)))
	return nil
}

func opExtcodehash(c *context) error {
	top := c.stack.peek()
	address := ember.Address(top.Bytes20())
	if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
		return err
	}
	if !c.context.AccountExists(address) {
		top.Clear()
		return nil
	}
	hash := c.context.GetCodeHash(address)
	top.SetBytes32(hash[:])
	return nil
}

func opExtCodeCopy(c *context) error {
	addr := c.stack.pop()
	memOffset := c.stack.pop()
	codeOffset := c.stack.pop()
	length := c.stack.pop()

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}
	words := ember.SizeInWords(length.Uint64())
	if err := c.useGas(CopyWordGas * ember.Gas(words)); err != nil {
		return err
	}
	address := ember.Address(addr.Bytes20())
	if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
		return err
	}
	offset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		offset64 = math.MaxUint64
	}
	return c.memory.set(memOffset.Uint64(), length.Uint64(),
		getData(c.context.GetCode(address), offset64, length.Uint64()), c)
}

// getData obtains a section of the given data, zero-padded to the requested
// size where the data ends before the section does.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	res := make([]byte, int(size))
	copy(res, data[start:end])
	return res
}

// ---------------------------------------------------------------------------
// Block environment
// ---------------------------------------------------------------------------

func opBlockhash(c *context) error {
	num := c.stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil
	}
	// Only the hashes of the most recent 256 blocks are accessible.
	var upper, lower uint64
	upper = uint64(c.params.BlockNumber)
	if upper >= 257 {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		hash := c.context.GetBlockHash(int64(num64))
		num.SetBytes(hash[:])
	} else {
		num.Clear()
	}
	return nil
}

func opCoinbase(c *context) error {
	c.stack.pushUndefined().SetBytes20(c.params.Coinbase[:])
	return nil
}

func opTimestamp(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(c.params.Timestamp))
	return nil
}

func opNumber(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(c.params.BlockNumber))
	return nil
}

func opPrevRandao(c *context) error {
	c.stack.pushUndefined().SetBytes32(c.params.PrevRandao[:])
	return nil
}

func opGasLimit(c *context) error {
	c.stack.pushUndefined().SetUint64(uint64(c.params.GasLimit))
	return nil
}

func opChainId(c *context) error {
	c.stack.pushUndefined().SetBytes32(c.params.ChainID[:])
	return nil
}

func opBaseFee(c *context) error {
	c.stack.pushUndefined().SetBytes32(c.params.BaseFee[:])
	return nil
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

func opMload(c *context) error {
	top := c.stack.peek()
	addr := *top
	if !addr.IsUint64() {
		return errOverflow
	}
	return c.memory.readWord(addr.Uint64(), top, c)
}

func opMstore(c *context) error {
	addr := c.stack.pop()
	value := c.stack.pop()
	if !addr.IsUint64() {
		return errOverflow
	}
	return c.memory.setWord(addr.Uint64(), value, c)
}

func opMstore8(c *context) error {
	addr := c.stack.pop()
	value := c.stack.pop()
	if !addr.IsUint64() {
		return errOverflow
	}
	return c.memory.setByte(addr.Uint64(), byte(value.Uint64()), c)
}

func opMsize(c *context) error {
	c.stack.pushUndefined().SetUint64(c.memory.length())
	return nil
}

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

func opSload(c *context) error {
	top := c.stack.peek()
	addr := c.params.Recipient
	slot := ember.Key(top.Bytes32())
	costs := WarmStorageReadCost
	if c.context.AccessStorage(addr, slot) == ember.ColdAccess {
		costs = ColdSloadCost + WarmStorageReadCost
	}
	if err := c.useGas(costs); err != nil {
		return err
	}
	value := c.context.GetStorage(addr, slot)
	top.SetBytes32(value[:])
	return nil
}

func opSstore(c *context) error {
	if c.params.Static {
		return errStaticContextViolation
	}

	// EIP-2200 demands that at least 2300 gas is available for an SSTORE.
	if c.gas <= SstoreSentryGas {
		return errOutOfGas
	}

	key := ember.Key(c.stack.pop().Bytes32())
	value := ember.Word(c.stack.pop().Bytes32())

	cost := ember.Gas(0)
	if c.context.AccessStorage(c.params.Recipient, key) == ember.ColdAccess {
		cost += ColdSloadCost
	}

	storageStatus := c.context.SetStorage(c.params.Recipient, key, value)
	cost += getDynamicCostsForSstore(storageStatus)
	if err := c.useGas(cost); err != nil {
		return err
	}

	c.refund += getRefundForSstore(storageStatus)
	return nil
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func opLog(c *context, n int) error {
	if c.params.Static {
		return errStaticContextViolation
	}

	offset := c.stack.pop()
	size := c.stack.pop()
	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}

	topics := make([]ember.Hash, n)
	for i := 0; i < n; i++ {
		topics[i] = c.stack.pop().Bytes32()
	}

	if err := c.useGas(LogDataByteGas * ember.Gas(size.Uint64())); err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}

	// Detach the data from the memory before emitting the log.
	c.context.EmitLog(ember.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    bytes.Clone(data),
	})
	return nil
}

// ---------------------------------------------------------------------------
// Calls and contract creation
// ---------------------------------------------------------------------------

func opCreate(c *context) error {
	return genericCreate(c, ember.Create)
}

func opCreate2(c *context) error {
	return genericCreate(c, ember.Create2)
}

func genericCreate(c *context, kind ember.CallKind) error {
	if c.params.Static {
		return errStaticContextViolation
	}

	value := c.stack.pop()
	offset := c.stack.pop()
	size := c.stack.pop()
	salt := ember.Hash{}
	if kind == ember.Create2 {
		salt = c.stack.pop().Bytes32()
	}

	if err := checkSizeOffsetUint64Overflow(offset, size); err != nil {
		return err
	}

	sizeU64 := size.Uint64()
	input, err := c.memory.getSlice(offset.Uint64(), sizeU64, c)
	if err != nil {
		return err
	}

	if kind == ember.Create2 {
		// Charge for hashing the init code to compute the target address.
		words := ember.SizeInWords(sizeU64)
		if err := c.useGas(Keccak256WordGas * ember.Gas(words)); err != nil {
			return err
		}
	}

	if !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		balanceU256 := new(uint256.Int).SetBytes32(balance[:])
		if value.Gt(balanceU256) {
			c.stack.pushUndefined().Clear()
			c.returnData = nil
			return nil
		}
	}

	// All but one 64th of the remaining gas is passed to the nested creation
	// (EIP-150).
	gas := c.gas
	gas -= gas / 64
	if err := c.useGas(gas); err != nil {
		return err
	}

	res, err := c.context.Call(kind, ember.CallParameters{
		Sender: c.params.Recipient,
		Value:  ember.Value(value.Bytes32()),
		Input:  input,
		Gas:    gas,
		Salt:   salt,
	})

	success := c.stack.pushUndefined()
	if !res.Success || err != nil {
		success.Clear()
	} else {
		success.SetBytes20(res.CreatedAddress[:])
	}

	// Only a revert of the nested creation exposes return data.
	if !res.Success && err == nil {
		c.returnData = res.Output
	} else {
		c.returnData = nil
	}
	c.gas += res.GasLeft
	c.refund += res.GasRefund
	return nil
}

func opCall(c *context) error {
	value := c.stack.peekN(2)
	// In a static call, no value must be transferred.
	if c.params.Static && !value.IsZero() {
		return errStaticContextViolation
	}
	return genericCall(c, ember.Call)
}

func opCallCode(c *context) error {
	return genericCall(c, ember.CallCode)
}

func opStaticCall(c *context) error {
	return genericCall(c, ember.StaticCall)
}

func opDelegateCall(c *context) error {
	return genericCall(c, ember.DelegateCall)
}

func genericCall(c *context, kind ember.CallKind) error {
	stack := c.stack
	value := uint256.NewInt(0)

	providedGas, addr := stack.pop(), stack.pop()
	if kind == ember.Call || kind == ember.CallCode {
		value = stack.pop()
	}
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()

	toAddr := ember.Address(addr.Bytes20())

	if err := checkSizeOffsetUint64Overflow(inOffset, inSize); err != nil {
		return err
	}
	if err := checkSizeOffsetUint64Overflow(retOffset, retSize); err != nil {
		return err
	}

	// Expand the memory for both argument and result range before charging
	// for the call itself, so an out-of-gas during expansion leaves the
	// memory untouched.
	args, err := c.memory.getSlice(inOffset.Uint64(), inSize.Uint64(), c)
	if err != nil {
		return err
	}
	output, err := c.memory.getSlice(retOffset.Uint64(), retSize.Uint64(), c)
	if err != nil {
		return err
	}

	if err := c.useGas(getAccessCost(c.context.AccessAccount(toAddr))); err != nil {
		return err
	}

	// For static and delegate calls the value is always zero.
	if !value.IsZero() {
		if err := c.useGas(CallValueTransferGas); err != nil {
			return err
		}
	}

	// Non-zero value calls creating a new account are charged an additional
	// fee (EIP-158).
	if kind == ember.Call && !value.IsZero() && !c.context.AccountExists(toAddr) {
		if err := c.useGas(CallNewAccountGas); err != nil {
			return err
		}
	}

	// At most all but one 64th of the remaining gas may be passed to the
	// nested call (EIP-150).
	nestedCallGas := c.gas - c.gas/64
	if providedGas.IsUint64() && nestedCallGas >= ember.Gas(providedGas.Uint64()) {
		nestedCallGas = ember.Gas(providedGas.Uint64())
	}
	if err := c.useGas(nestedCallGas); err != nil {
		return err
	}

	// Value-transferring calls grant the callee a free stipend.
	if !value.IsZero() {
		nestedCallGas += CallStipend
	}

	// A transfer exceeding the available balance fails without consuming the
	// forwarded gas.
	if (kind == ember.Call || kind == ember.CallCode) && !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		balanceU256 := new(uint256.Int).SetBytes32(balance[:])
		if balanceU256.Lt(value) {
			c.stack.pushUndefined().Clear()
			c.returnData = nil
			c.gas += nestedCallGas
			return nil
		}
	}

	// Inside a static context, plain calls are propagated as static calls.
	if c.params.Static && kind == ember.Call {
		kind = ember.StaticCall
	}

	callParams := ember.CallParameters{
		Input: args,
		Gas:   nestedCallGas,
		Value: ember.Value(value.Bytes32()),
	}
	switch kind {
	case ember.Call, ember.StaticCall:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = toAddr
	case ember.CallCode:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr
	case ember.DelegateCall:
		// Delegate calls run the callee's code in the caller's frame,
		// inheriting sender and value.
		callParams.Sender = c.params.Sender
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr
		callParams.Value = c.params.Value
	}

	ret, err := c.context.Call(kind, callParams)
	if err == nil {
		copy(output, ret.Output)
	}

	success := stack.pushUndefined()
	if err != nil || !ret.Success {
		success.Clear()
	} else {
		success.SetOne()
	}
	c.gas += ret.GasLeft
	c.refund += ret.GasRefund
	c.returnData = ret.Output
	return nil
}

func opSelfdestruct(c *context) error {
	if c.params.Static {
		return errStaticContextViolation
	}

	beneficiary := ember.Address(c.stack.pop().Bytes20())
	cost := ember.Gas(0)
	// Warm beneficiary accesses are free for SELFDESTRUCT (EIP-2929).
	if accessStatus := c.context.AccessAccount(beneficiary); accessStatus != ember.WarmAccess {
		cost += getAccessCost(accessStatus)
	}
	cost += selfDestructNewAccountCost(c.context.AccountExists(beneficiary),
		c.context.GetBalance(c.params.Recipient))
	if err := c.useGas(cost); err != nil {
		return err
	}

	// EIP-3529 removed the refund formerly granted for a self-destruct.
	c.context.SelfDestruct(c.params.Recipient, beneficiary)
	c.status = statusSelfDestructed
	return nil
}

func checkSizeOffsetUint64Overflow(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !offset.IsUint64() || !size.IsUint64() ||
		offset.Uint64() > math.MaxUint64-size.Uint64() {
		return errOverflow
	}
	return nil
}
