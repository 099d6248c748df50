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
	"math"

	"github.com/ember-vm/ember"
	"github.com/holiman/uint256"
)

// Memory is the volatile byte-addressable scratch space of a single contract
// execution. It grows in 32-byte words and charges a quadratic expansion fee
// for the growth increment.
type Memory struct {
	store             []byte
	currentMemoryCost ember.Gas
}

func NewMemory() *Memory {
	return &Memory{}
}

// toValidMemorySize rounds the given size up to the next full word, saturating
// at the maximum uint64 value instead of overflowing.
func toValidMemorySize(size uint64) uint64 {
	fullWordsSize := ember.SizeInWords(size) * 32
	if size != 0 && fullWordsSize < size {
		return math.MaxUint64
	}
	return fullWordsSize
}

// maxMemoryExpansionSize is the largest memory size whose expansion cost still
// fits into an int64 gas value.
const maxMemoryExpansionSize = 0x1FFFFFFFE0

// getExpansionCosts computes the gas fee for growing the memory to the given
// size. The fee covers only the increment over the already paid-for size; a
// size not exceeding the current memory length is free.
func (m *Memory) getExpansionCosts(size uint64) ember.Gas {
	if m.length() >= size {
		return 0
	}
	size = toValidMemorySize(size)

	if size > maxMemoryExpansionSize {
		return ember.Gas(math.MaxInt64)
	}

	words := ember.SizeInWords(size)
	newCosts := ember.Gas((words*words)/512 + (3 * words))
	return newCosts - m.currentMemoryCost
}

// expandMemory grows the memory to cover [offset, offset+size), charging the
// expansion fee to the given context. A size of zero never expands, no matter
// the offset. An error is returned if the gas is insufficient or offset+size
// overflows.
func (m *Memory) expandMemory(offset, size uint64, c *context) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset {
		return errGasUintOverflow
	}
	if m.length() < needed {
		fee := m.getExpansionCosts(needed)
		if err := c.useGas(fee); err != nil {
			return err
		}
		needed = toValidMemorySize(needed)
		m.currentMemoryCost += fee
		m.store = append(m.store, make([]byte, needed-m.length())...)
	}
	return nil
}

func (m *Memory) length() uint64 {
	return uint64(len(m.store))
}

// setByte writes a single byte at the given offset, expanding the memory and
// charging for the expansion as needed.
func (m *Memory) setByte(offset uint64, value byte, c *context) error {
	if err := m.expandMemory(offset, 1, c); err != nil {
		return err
	}
	m.store[offset] = value
	return nil
}

// setWord writes a 32-byte word at the given offset, expanding the memory and
// charging for the expansion as needed.
func (m *Memory) setWord(offset uint64, value *uint256.Int, c *context) error {
	if err := m.expandMemory(offset, 32, c); err != nil {
		return err
	}
	bytes := value.Bytes32()
	copy(m.store[offset:offset+32], bytes[:])
	return nil
}

// set copies the given value into memory at [offset, offset+size), expanding
// the memory and charging for the expansion as needed.
func (m *Memory) set(offset, size uint64, value []byte, c *context) error {
	if err := m.expandMemory(offset, size, c); err != nil {
		return err
	}
	if size > 0 {
		copy(m.store[offset:offset+size], value)
	}
	return nil
}

// getSlice obtains a slice of size bytes from the memory at the given offset,
// expanding the memory as needed. The returned slice is backed by the memory's
// internal data; it is invalidated by any subsequent operation that may grow
// the memory.
func (m *Memory) getSlice(offset, size uint64, c *context) ([]byte, error) {
	if err := m.expandMemory(offset, size, c); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	return m.store[offset : offset+size], nil
}

// readWord reads the 32-byte word at the given offset into target, expanding
// the memory as needed.
func (m *Memory) readWord(offset uint64, target *uint256.Int, c *context) error {
	data, err := m.getSlice(offset, 32, c)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}

// copyData copies memory content starting at the given offset into the target
// slice, padding with zeros where the memory ends before the target does.
func (m *Memory) copyData(offset uint64, target []byte) {
	if m.length() < offset {
		clear(target)
		return
	}
	covered := copy(target, m.store[offset:])
	clear(target[covered:])
}
