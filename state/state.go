// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

// Package state provides an in-memory implementation of the transaction
// context interface. All modifications are tracked in an undo journal, so any
// prefix of the changes of a transaction can be rolled back through
// snapshots. The accumulated effects are applied to the underlying world
// state by an explicit commit.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"slices"

	"github.com/ember-vm/ember"
	"github.com/ethereum/go-ethereum/crypto"
)

// ----------------------------------------------------------------------------
// WorldState
// ----------------------------------------------------------------------------

// WorldState models the state of a chain as a collection of accounts. The
// zero-valued account is treated as absent.
type WorldState map[ember.Address]Account

func (s WorldState) Equal(other WorldState) bool {
	return equalMapsIgnoringZero(s, other, func(a, b Account) bool {
		return a.Equal(&b)
	})
}

func (s WorldState) Clone() WorldState {
	if s == nil {
		return nil
	}
	res := make(WorldState, len(s))
	for k, v := range s {
		res[k] = v.Clone()
	}
	return res
}

// Diff lists the differences between this and the given world state in a
// human-readable form, mainly intended for test failure messages.
func (s WorldState) Diff(other WorldState) []string {
	return diffMaps("", s, other, func(address ember.Address, a, b Account) []string {
		if a.Equal(&b) {
			return nil
		}
		return a.Diff(fmt.Sprintf("%v/", address), &b)
	})
}

// ----------------------------------------------------------------------------
// Account
// ----------------------------------------------------------------------------

// Account represents an account in the world state. The default account is
// an empty account, that is ignored by the world state.
type Account struct {
	Balance ember.Value
	Nonce   uint64
	Code    ember.Code
	Storage Storage
}

func (a *Account) Equal(other *Account) bool {
	return a.Balance == other.Balance &&
		a.Nonce == other.Nonce &&
		bytes.Equal(a.Code, other.Code) &&
		a.Storage.Equal(other.Storage)
}

func (a *Account) Clone() Account {
	return Account{
		Balance: a.Balance,
		Nonce:   a.Nonce,
		Code:    append(ember.Code(nil), a.Code...),
		Storage: a.Storage.Clone(),
	}
}

// empty returns true if the account would be ignored by the world state.
func (a *Account) empty() bool {
	return a.Balance == (ember.Value{}) && a.Nonce == 0 && len(a.Code) == 0
}

func (a *Account) Diff(prefix string, other *Account) []string {
	var res []string
	if a.Balance != other.Balance {
		res = append(res, fmt.Sprintf("different balance: %v != %v", a.Balance, other.Balance))
	}
	if a.Nonce != other.Nonce {
		res = append(res, fmt.Sprintf("different nonce: %v != %v", a.Nonce, other.Nonce))
	}
	if !bytes.Equal(a.Code, other.Code) {
		res = append(res, fmt.Sprintf("different code: 0x%x != 0x%x", a.Code, other.Code))
	}
	res = append(res, a.Storage.Diff(prefix+"Storage/", other.Storage)...)
	for i, diff := range res {
		res[i] = prefix + diff
	}
	return res
}

// ----------------------------------------------------------------------------
// Storage
// ----------------------------------------------------------------------------

// Storage represents the storage of an account in the world state.
// Zero-valued entries are ignored in the storage.
type Storage map[ember.Key]ember.Word

func (s Storage) Equal(other Storage) bool {
	return equalMapsIgnoringZero(s, other, func(a, b ember.Word) bool {
		return a == b
	})
}

func (s Storage) Clone() Storage {
	return maps.Clone(s)
}

func (s Storage) Diff(prefix string, other Storage) []string {
	return diffMaps(prefix, s, other, func(key ember.Key, a, b ember.Word) []string {
		if a == b {
			return nil
		}
		return []string{fmt.Sprintf("%v: different value: %v != %v", key, a, b)}
	})
}

// ----------------------------------------------------------------------------
// Context
// ----------------------------------------------------------------------------

type slotID struct {
	address ember.Address
	key     ember.Key
}

// Context is an in-memory implementation of a transaction context. It buffers
// all modifications of a transaction over an initial world state, supports
// snapshots through an undo journal, and applies its effects through Commit.
//
// Warm/cold access tracking is not covered by the journal. Accesses survive a
// rollback, matching the behavior of the access lists of the chain.
type Context struct {
	original WorldState
	current  WorldState
	logs     []ember.Log
	undo     []func()

	warmAccounts map[ember.Address]struct{}
	warmSlots    map[slotID]struct{}
	destructed   map[ember.Address]struct{}

	blockHashes func(number int64) ember.Hash
}

// NewContext creates a transaction context over the given initial world
// state. The initial state is retained as the committed state of the ongoing
// transaction; the context operates on a deep copy.
func NewContext(initial WorldState) *Context {
	if initial == nil {
		initial = WorldState{}
	}
	return &Context{
		original:     initial,
		current:      initial.Clone(),
		warmAccounts: map[ember.Address]struct{}{},
		warmSlots:    map[slotID]struct{}{},
		destructed:   map[ember.Address]struct{}{},
	}
}

// WithBlockHashes sets the source of historic block hashes. Without a source,
// a deterministic pseudo-hash derived from the block number is used.
func (c *Context) WithBlockHashes(source func(number int64) ember.Hash) *Context {
	c.blockHashes = source
	return c
}

func (c *Context) AccountExists(addr ember.Address) bool {
	account := c.current[addr]
	return !account.empty()
}

func (c *Context) GetBalance(addr ember.Address) ember.Value {
	return c.current[addr].Balance
}

func (c *Context) SetBalance(addr ember.Address, value ember.Value) {
	original := c.current[addr]
	modified := original
	modified.Balance = value
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetNonce(addr ember.Address) uint64 {
	return c.current[addr].Nonce
}

func (c *Context) SetNonce(addr ember.Address, value uint64) {
	original := c.current[addr]
	modified := original
	modified.Nonce = value
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetCode(addr ember.Address) ember.Code {
	return ember.Code(bytes.Clone(c.current[addr].Code))
}

func (c *Context) GetCodeHash(addr ember.Address) ember.Hash {
	return ember.Hash(crypto.Keccak256(c.current[addr].Code))
}

func (c *Context) GetCodeSize(addr ember.Address) int {
	return len(c.current[addr].Code)
}

func (c *Context) SetCode(addr ember.Address, code ember.Code) {
	original := c.current[addr]
	modified := original
	modified.Code = ember.Code(bytes.Clone(code))
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetStorage(addr ember.Address, key ember.Key) ember.Word {
	return c.current[addr].Storage[key]
}

func (c *Context) SetStorage(addr ember.Address, key ember.Key, new ember.Word) ember.StorageStatus {
	original := c.original[addr].Storage[key]
	current := c.current[addr].Storage[key]

	account := c.current[addr]
	if account.Storage == nil {
		account.Storage = Storage{}
		c.current[addr] = account
	}

	c.current[addr].Storage[key] = new
	c.undo = append(c.undo, func() { c.current[addr].Storage[key] = current })
	return ember.GetStorageStatus(original, current, new)
}

func (c *Context) GetCommittedStorage(addr ember.Address, key ember.Key) ember.Word {
	return c.original[addr].Storage[key]
}

// SelfDestruct transfers the balance of addr to the beneficiary and schedules
// the account for removal at the end of the transaction. The result is true
// if this is the first destruction of addr in the ongoing transaction.
func (c *Context) SelfDestruct(addr ember.Address, beneficiary ember.Address) bool {
	balance := c.GetBalance(addr)
	if addr != beneficiary {
		c.SetBalance(beneficiary, ember.Add(c.GetBalance(beneficiary), balance))
		c.SetBalance(addr, ember.Value{})
	}

	if _, found := c.destructed[addr]; found {
		return false
	}
	c.destructed[addr] = struct{}{}
	c.undo = append(c.undo, func() { delete(c.destructed, addr) })
	return true
}

// HasSelfDestructed returns true if the given account is scheduled for
// removal at the end of the transaction.
func (c *Context) HasSelfDestructed(addr ember.Address) bool {
	_, found := c.destructed[addr]
	return found
}

func (c *Context) CreateSnapshot() ember.Snapshot {
	return ember.Snapshot(len(c.undo))
}

func (c *Context) RestoreSnapshot(snapshot ember.Snapshot) {
	for len(c.undo) > int(snapshot) {
		c.undo[len(c.undo)-1]()
		c.undo = c.undo[:len(c.undo)-1]
	}
}

func (c *Context) AccessAccount(address ember.Address) ember.AccessStatus {
	if _, found := c.warmAccounts[address]; found {
		return ember.WarmAccess
	}
	c.warmAccounts[address] = struct{}{}
	return ember.ColdAccess
}

func (c *Context) AccessStorage(addr ember.Address, key ember.Key) ember.AccessStatus {
	id := slotID{addr, key}
	if _, found := c.warmSlots[id]; found {
		return ember.WarmAccess
	}
	c.warmSlots[id] = struct{}{}
	// Accessing a slot also warms up the owning account.
	c.warmAccounts[addr] = struct{}{}
	return ember.ColdAccess
}

func (c *Context) EmitLog(log ember.Log) {
	size := len(c.logs)
	c.logs = append(c.logs, log)
	c.undo = append(c.undo, func() { c.logs = c.logs[:size] })
}

func (c *Context) GetLogs() []ember.Log {
	return slices.Clone(c.logs)
}

func (c *Context) GetBlockHash(number int64) ember.Hash {
	if c.blockHashes != nil {
		return c.blockHashes(number)
	}
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], uint64(number))
	return ember.Hash(crypto.Keccak256(data[:]))
}

// Commit applies the buffered effects of the transaction, removing the
// accounts destroyed during the execution, and returns the resulting world
// state. The context must not be used afterwards.
func (c *Context) Commit() WorldState {
	for addr := range c.destructed {
		delete(c.current, addr)
	}
	c.undo = nil
	return c.current
}

// ----------------------------------------------------------------------------
// Map utilities
// ----------------------------------------------------------------------------

// equalMapsIgnoringZero compares two maps while treating missing entries and
// zero-valued entries as equivalent.
func equalMapsIgnoringZero[K comparable, V any](a, b map[K]V, equal func(x, y V) bool) bool {
	var zero V
	for key, valueA := range a {
		if valueB, found := b[key]; found {
			if !equal(valueA, valueB) {
				return false
			}
		} else if !equal(valueA, zero) {
			return false
		}
	}
	for key, valueB := range b {
		if _, found := a[key]; !found && !equal(valueB, zero) {
			return false
		}
	}
	return true
}

func diffMaps[K comparable, V any](prefix string, a, b map[K]V, diff func(key K, x, y V) []string) []string {
	var res []string
	seen := map[K]struct{}{}
	for key, valueA := range a {
		seen[key] = struct{}{}
		res = append(res, diff(key, valueA, b[key])...)
	}
	for key, valueB := range b {
		if _, found := seen[key]; !found {
			var zero V
			res = append(res, diff(key, zero, valueB)...)
		}
	}
	for i, d := range res {
		res[i] = prefix + d
	}
	return res
}
