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

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rand"
)

func TestNewValue_ArgumentsArePlacedInCorrectPosition(t *testing.T) {
	tests := map[string]struct {
		args []uint64
		want Value
	}{
		"none": {nil, Value{}},
		"one": {[]uint64{1}, Value{
			0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
		}},
		"two": {[]uint64{1, 2}, Value{
			0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
			0, 0, 0, 0, 0, 0, 0, 2,
		}},
		"four": {[]uint64{1, 2, 3, 4}, Value{
			0, 0, 0, 0, 0, 0, 0, 1,
			0, 0, 0, 0, 0, 0, 0, 2,
			0, 0, 0, 0, 0, 0, 0, 3,
			0, 0, 0, 0, 0, 0, 0, 4,
		}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := NewValue(test.args...); got != test.want {
				t.Errorf("unexpected value, wanted %v, got %v", test.want, got)
			}
		})
	}
}

func TestNewValue_TooManyArgumentsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for too many arguments")
		}
	}()
	NewValue(1, 2, 3, 4, 5)
}

func TestValue_AddMatchesUint256Addition(t *testing.T) {
	r := rand.New(0)
	for i := 0; i < 100; i++ {
		a := randomValue(r)
		b := randomValue(r)
		want := ValueFromUint256(new(uint256.Int).Add(a.ToUint256(), b.ToUint256()))
		if got := Add(a, b); got != want {
			t.Fatalf("%v + %v produced %v, wanted %v", a, b, got, want)
		}
	}
}

func TestValue_SubMatchesUint256Subtraction(t *testing.T) {
	r := rand.New(0)
	for i := 0; i < 100; i++ {
		a := randomValue(r)
		b := randomValue(r)
		want := ValueFromUint256(new(uint256.Int).Sub(a.ToUint256(), b.ToUint256()))
		if got := Sub(a, b); got != want {
			t.Fatalf("%v - %v produced %v, wanted %v", a, b, got, want)
		}
	}
}

func TestValue_AddWrapsAroundOnOverflow(t *testing.T) {
	max := Value{}
	for i := range max {
		max[i] = 0xff
	}
	if got, want := Add(max, NewValue(1)), NewValue(); got != want {
		t.Errorf("unexpected sum, wanted %v, got %v", want, got)
	}
}

func TestValue_SubWrapsAroundOnUnderflow(t *testing.T) {
	max := Value{}
	for i := range max {
		max[i] = 0xff
	}
	if got, want := Sub(NewValue(), NewValue(1)), max; got != want {
		t.Errorf("unexpected difference, wanted %v, got %v", want, got)
	}
}

func TestValue_ScaleMatchesUint256Multiplication(t *testing.T) {
	r := rand.New(0)
	for i := 0; i < 100; i++ {
		a := randomValue(r)
		s := r.Uint64()
		want := ValueFromUint256(new(uint256.Int).Mul(
			a.ToUint256(), new(uint256.Int).SetUint64(s)))
		if got := a.Scale(s); got != want {
			t.Fatalf("%v * %d produced %v, wanted %v", a, s, got, want)
		}
	}
}

func TestValue_CmpOrdersValues(t *testing.T) {
	tests := map[string]struct {
		a, b Value
		want int
	}{
		"equal":   {NewValue(12), NewValue(12), 0},
		"less":    {NewValue(1), NewValue(2), -1},
		"greater": {NewValue(2), NewValue(1), 1},
		"high-limbs-dominate": {
			NewValue(1, 0, 0, 0), NewValue(0, 1, 2, 3), 1,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := test.a.Cmp(test.b); got != test.want {
				t.Errorf("unexpected comparison result, wanted %d, got %d", test.want, got)
			}
		})
	}
}

func TestValueFromUint256_NilIsZero(t *testing.T) {
	if got, want := ValueFromUint256(nil), NewValue(); got != want {
		t.Errorf("unexpected value, wanted %v, got %v", want, got)
	}
}

func TestAddress_MarshalingRoundTrip(t *testing.T) {
	addr := Address{0x01, 0x02, 0xff}
	data, err := addr.MarshalText()
	if err != nil {
		t.Fatalf("failed to marshal address: %v", err)
	}
	restored := Address{}
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("failed to unmarshal address: %v", err)
	}
	if addr != restored {
		t.Errorf("round trip altered address, wanted %v, got %v", addr, restored)
	}
}

func TestAddress_UnmarshalingInvalidTextFails(t *testing.T) {
	tests := map[string]string{
		"missing prefix": "0102030405060708090a0b0c0d0e0f1011121314",
		"not hex":        "0xhello",
		"too short":      "0x0102",
		"too long":       "0x0102030405060708090a0b0c0d0e0f10111213141516",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			addr := Address{}
			if err := addr.UnmarshalText([]byte(input)); err == nil {
				t.Errorf("expected unmarshaling of %q to fail", input)
			}
		})
	}
}

func TestCallKind_JsonRoundTrip(t *testing.T) {
	for _, kind := range []CallKind{Call, StaticCall, DelegateCall, CallCode, Create, Create2} {
		t.Run(kind.String(), func(t *testing.T) {
			data, err := json.Marshal(kind)
			if err != nil {
				t.Fatalf("failed to marshal call kind: %v", err)
			}
			var restored CallKind
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("failed to unmarshal call kind: %v", err)
			}
			if kind != restored {
				t.Errorf("round trip altered call kind, wanted %v, got %v", kind, restored)
			}
		})
	}
}

func TestCallKind_MarshalingInvalidKindFails(t *testing.T) {
	if _, err := json.Marshal(CallKind(99)); err == nil {
		t.Errorf("expected marshaling of invalid call kind to fail")
	}
	var kind CallKind
	if err := json.Unmarshal([]byte(`"teleport"`), &kind); err == nil {
		t.Errorf("expected unmarshaling of unknown call kind to fail")
	}
}

func randomValue(r *rand.Rand) Value {
	return NewValue(r.Uint64(), r.Uint64(), r.Uint64(), r.Uint64())
}
