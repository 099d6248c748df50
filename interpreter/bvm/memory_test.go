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
	"testing"

	"github.com/ember-vm/ember"
	"github.com/holiman/uint256"
)

func TestMemory_ExpansionCostsGrowQuadratically(t *testing.T) {
	tests := map[string]struct {
		size uint64
		want ember.Gas
	}{
		"empty":          {0, 0},
		"one byte":       {1, 3},
		"one word":       {32, 3},
		"two words":      {64, 6},
		"one kilobyte": {1024, 98},
		"one megabyte": {1 << 20, 2195456},
		"too large":    {maxMemoryExpansionSize + 1, math.MaxInt64},
		"overflow":     {math.MaxUint64, math.MaxInt64},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := NewMemory()
			if got := m.getExpansionCosts(test.size); got != test.want {
				t.Errorf("unexpected costs for size %d, wanted %d, got %d", test.size, test.want, got)
			}
		})
	}
}

func TestMemory_ExpansionChargesOnlyTheIncrement(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}

	if err := m.expandMemory(0, 32, c); err != nil {
		t.Fatalf("failed to expand memory: %v", err)
	}
	if want, got := ember.Gas(97), c.gas; want != got {
		t.Fatalf("unexpected gas level after first expansion, wanted %d, got %d", want, got)
	}

	if err := m.expandMemory(32, 32, c); err != nil {
		t.Fatalf("failed to expand memory: %v", err)
	}
	if want, got := ember.Gas(94), c.gas; want != got {
		t.Errorf("unexpected gas level after second expansion, wanted %d, got %d", want, got)
	}
}

func TestMemory_ExpansionRoundsUpToFullWords(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}
	if err := m.expandMemory(0, 1, c); err != nil {
		t.Fatalf("failed to expand memory: %v", err)
	}
	if want, got := uint64(32), m.length(); want != got {
		t.Errorf("unexpected memory size, wanted %d, got %d", want, got)
	}
}

func TestMemory_ZeroSizeExpansionIsForFree(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 0}
	if err := m.expandMemory(math.MaxUint64, 0, c); err != nil {
		t.Errorf("zero-sized expansion should not fail, got %v", err)
	}
	if want, got := uint64(0), m.length(); want != got {
		t.Errorf("unexpected memory size, wanted %d, got %d", want, got)
	}
}

func TestMemory_ExpansionWithInsufficientGasFailsAndKeepsMemoryUntouched(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 2}
	if err := m.expandMemory(0, 32, c); err != errOutOfGas {
		t.Fatalf("expected out-of-gas error, got %v", err)
	}
	if want, got := uint64(0), m.length(); want != got {
		t.Errorf("unexpected memory size, wanted %d, got %d", want, got)
	}
}

func TestMemory_ExpansionOffsetOverflowIsDetected(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}
	if err := m.expandMemory(math.MaxUint64, 2, c); err != errGasUintOverflow {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestMemory_WordsCanBeWrittenAndReadBack(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}

	value := uint256.NewInt(0).Lsh(uint256.NewInt(0x1234), 128)
	if err := m.setWord(32, value, c); err != nil {
		t.Fatalf("failed to write word: %v", err)
	}

	restored := new(uint256.Int)
	if err := m.readWord(32, restored, c); err != nil {
		t.Fatalf("failed to read word: %v", err)
	}
	if value.Cmp(restored) != 0 {
		t.Errorf("restored word differs, wanted %v, got %v", value, restored)
	}
}

func TestMemory_SetByteExpandsByOneWord(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}
	if err := m.setByte(40, 0xAB, c); err != nil {
		t.Fatalf("failed to write byte: %v", err)
	}
	if want, got := uint64(64), m.length(); want != got {
		t.Errorf("unexpected memory size, wanted %d, got %d", want, got)
	}
	if want, got := byte(0xAB), m.store[40]; want != got {
		t.Errorf("unexpected byte in memory, wanted %x, got %x", want, got)
	}
}

func TestMemory_GetSliceOfZeroSizeSkipsExpansion(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 0}
	data, err := m.getSlice(math.MaxUint64, 0, c)
	if err != nil {
		t.Fatalf("zero-sized slice should not fail, got %v", err)
	}
	if data != nil {
		t.Errorf("expected nil slice, got %v", data)
	}
}

func TestMemory_CopyDataPadsWithZeros(t *testing.T) {
	m := NewMemory()
	c := &context{gas: 100}
	if err := m.set(0, 4, []byte{1, 2, 3, 4}, c); err != nil {
		t.Fatalf("failed to initialize memory: %v", err)
	}

	tests := map[string]struct {
		offset uint64
		want   []byte
	}{
		"aligned":         {0, []byte{1, 2, 3, 4, 0, 0}},
		"with offset":     {2, []byte{3, 4, 0, 0, 0, 0}},
		"past data":       {4, []byte{0, 0, 0, 0, 0, 0}},
		"past memory end": {1000, []byte{0, 0, 0, 0, 0, 0}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			target := []byte{9, 9, 9, 9, 9, 9}
			m.copyData(test.offset, target)
			if !bytes.Equal(target, test.want) {
				t.Errorf("unexpected copy result, wanted %v, got %v", test.want, target)
			}
		})
	}
}
