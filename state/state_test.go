// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

package state

import (
	"testing"

	"github.com/ember-vm/ember"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr1 = ember.Address{0x01}
	addr2 = ember.Address{0x02}
	key1  = ember.Key{0x01}
)

func TestContext_NilInitialStateIsTreatedAsEmpty(t *testing.T) {
	context := NewContext(nil)
	assert.False(t, context.AccountExists(addr1))
	assert.Equal(t, ember.NewValue(), context.GetBalance(addr1))
	assert.Equal(t, ember.Word{}, context.GetStorage(addr1, key1))
}

func TestContext_AccountPropertiesCanBeSetAndRetrieved(t *testing.T) {
	context := NewContext(nil)

	context.SetBalance(addr1, ember.NewValue(42))
	context.SetNonce(addr1, 7)
	context.SetCode(addr1, ember.Code{0x01, 0x02})

	assert.Equal(t, ember.NewValue(42), context.GetBalance(addr1))
	assert.Equal(t, uint64(7), context.GetNonce(addr1))
	assert.Equal(t, ember.Code{0x01, 0x02}, context.GetCode(addr1))
	assert.Equal(t, 2, context.GetCodeSize(addr1))
	assert.True(t, context.AccountExists(addr1))
}

func TestContext_SnapshotsRollBackAllJournaledChanges(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Balance: ember.NewValue(100)},
	})

	snapshot := context.CreateSnapshot()
	context.SetBalance(addr1, ember.NewValue(50))
	context.SetNonce(addr2, 1)
	context.SetStorage(addr1, key1, ember.Word{0x01})
	context.EmitLog(ember.Log{Address: addr1})

	context.RestoreSnapshot(snapshot)

	assert.Equal(t, ember.NewValue(100), context.GetBalance(addr1))
	assert.Equal(t, uint64(0), context.GetNonce(addr2))
	assert.Equal(t, ember.Word{}, context.GetStorage(addr1, key1))
	assert.Empty(t, context.GetLogs())
}

func TestContext_SnapshotsCanBeNested(t *testing.T) {
	context := NewContext(nil)

	context.SetBalance(addr1, ember.NewValue(1))
	outer := context.CreateSnapshot()

	context.SetBalance(addr1, ember.NewValue(2))
	inner := context.CreateSnapshot()

	context.SetBalance(addr1, ember.NewValue(3))

	context.RestoreSnapshot(inner)
	assert.Equal(t, ember.NewValue(2), context.GetBalance(addr1))

	context.RestoreSnapshot(outer)
	assert.Equal(t, ember.NewValue(1), context.GetBalance(addr1))
}

func TestContext_StorageStatusesReflectTheCommittedState(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Storage: Storage{key1: ember.Word{0x01}}},
	})

	// Re-assigning the committed value is a plain assignment.
	assert.Equal(t, ember.StorageAssigned, context.SetStorage(addr1, key1, ember.Word{0x01}))
	// Clearing the slot is a deletion.
	assert.Equal(t, ember.StorageDeleted, context.SetStorage(addr1, key1, ember.Word{}))
	// Bringing the value back restores the deleted slot.
	assert.Equal(t, ember.StorageDeletedRestored, context.SetStorage(addr1, key1, ember.Word{0x01}))
	// Writing to an untouched empty slot adds a new entry.
	assert.Equal(t, ember.StorageAdded, context.SetStorage(addr2, key1, ember.Word{0x02}))
}

func TestContext_CommittedStorageIsNotAffectedByUpdates(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Storage: Storage{key1: ember.Word{0x01}}},
	})

	context.SetStorage(addr1, key1, ember.Word{0x02})

	assert.Equal(t, ember.Word{0x02}, context.GetStorage(addr1, key1))
	assert.Equal(t, ember.Word{0x01}, context.GetCommittedStorage(addr1, key1))
}

func TestContext_SelfDestructTransfersTheBalance(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Balance: ember.NewValue(100)},
		addr2: {Balance: ember.NewValue(10)},
	})

	require.True(t, context.SelfDestruct(addr1, addr2))

	assert.Equal(t, ember.NewValue(), context.GetBalance(addr1))
	assert.Equal(t, ember.NewValue(110), context.GetBalance(addr2))
	assert.True(t, context.HasSelfDestructed(addr1))

	// Only the first destruction of an account is reported.
	assert.False(t, context.SelfDestruct(addr1, addr2))
}

func TestContext_SelfDestructToTheDestructedAccountBurnsTheBalance(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Balance: ember.NewValue(100)},
	})

	require.True(t, context.SelfDestruct(addr1, addr1))
	assert.Equal(t, ember.NewValue(100), context.GetBalance(addr1))

	world := context.Commit()
	_, exists := world[addr1]
	assert.False(t, exists, "the destructed account must be removed on commit")
}

func TestContext_SelfDestructIsRolledBackWithTheSnapshot(t *testing.T) {
	context := NewContext(WorldState{
		addr1: {Balance: ember.NewValue(100)},
	})

	snapshot := context.CreateSnapshot()
	context.SelfDestruct(addr1, addr2)
	context.RestoreSnapshot(snapshot)

	assert.False(t, context.HasSelfDestructed(addr1))
	assert.Equal(t, ember.NewValue(100), context.GetBalance(addr1))

	world := context.Commit()
	assert.Contains(t, world, addr1)
}

func TestContext_AccessTrackingSurvivesRollbacks(t *testing.T) {
	context := NewContext(nil)

	snapshot := context.CreateSnapshot()
	assert.Equal(t, ember.ColdAccess, context.AccessAccount(addr1))
	assert.Equal(t, ember.ColdAccess, context.AccessStorage(addr1, key1))
	context.RestoreSnapshot(snapshot)

	assert.Equal(t, ember.WarmAccess, context.AccessAccount(addr1))
	assert.Equal(t, ember.WarmAccess, context.AccessStorage(addr1, key1))
}

func TestContext_StorageAccessWarmsTheOwningAccount(t *testing.T) {
	context := NewContext(nil)
	context.AccessStorage(addr1, key1)
	assert.Equal(t, ember.WarmAccess, context.AccessAccount(addr1))
}

func TestContext_LogsAreAccumulatedInOrder(t *testing.T) {
	context := NewContext(nil)
	context.EmitLog(ember.Log{Address: addr1})
	context.EmitLog(ember.Log{Address: addr2})

	logs := context.GetLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, addr1, logs[0].Address)
	assert.Equal(t, addr2, logs[1].Address)
}

func TestContext_CommitAppliesTheBufferedChanges(t *testing.T) {
	initial := WorldState{
		addr1: {Balance: ember.NewValue(100)},
	}
	context := NewContext(initial)
	context.SetBalance(addr1, ember.NewValue(50))
	context.SetNonce(addr2, 1)

	world := context.Commit()

	assert.Equal(t, ember.NewValue(50), world[addr1].Balance)
	assert.Equal(t, uint64(1), world[addr2].Nonce)

	// The initial state is not modified by the context.
	assert.Equal(t, ember.NewValue(100), initial[addr1].Balance)
}

func TestContext_BlockHashesComeFromTheConfiguredSource(t *testing.T) {
	want := ember.Hash{0x42}
	context := NewContext(nil).WithBlockHashes(func(number int64) ember.Hash {
		assert.Equal(t, int64(12), number)
		return want
	})
	assert.Equal(t, want, context.GetBlockHash(12))
}

func TestContext_DefaultBlockHashesAreDeterministic(t *testing.T) {
	a := NewContext(nil)
	b := NewContext(nil)
	assert.Equal(t, a.GetBlockHash(7), b.GetBlockHash(7))
	assert.NotEqual(t, a.GetBlockHash(7), a.GetBlockHash(8))
}

func TestWorldState_EqualIgnoresZeroValuedEntries(t *testing.T) {
	a := WorldState{
		addr1: {Balance: ember.NewValue(1)},
		addr2: {},
	}
	b := WorldState{
		addr1: {Balance: ember.NewValue(1)},
	}
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	b[addr1] = Account{Balance: ember.NewValue(2)}
	assert.False(t, a.Equal(b))
}

func TestWorldState_CloneIsIndependentOfTheOriginal(t *testing.T) {
	original := WorldState{
		addr1: {
			Balance: ember.NewValue(1),
			Storage: Storage{key1: ember.Word{0x01}},
		},
	}
	clone := original.Clone()
	clone[addr1].Storage[key1] = ember.Word{0x02}

	assert.Equal(t, ember.Word{0x01}, original[addr1].Storage[key1])
	assert.Equal(t, ember.Word{0x02}, clone[addr1].Storage[key1])
}

func TestWorldState_DiffNamesTheDeviatingProperties(t *testing.T) {
	a := WorldState{addr1: {Balance: ember.NewValue(1)}}
	b := WorldState{addr1: {Balance: ember.NewValue(2)}}

	diff := a.Diff(b)
	require.Len(t, diff, 1)
	assert.Contains(t, diff[0], "different balance")

	assert.Empty(t, a.Diff(a.Clone()))
}
