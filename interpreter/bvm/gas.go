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

import "github.com/ember-vm/ember"

const (
	CallNewAccountGas    ember.Gas = 25000 // Paid for CALL when the destination address didn't exist prior.
	CallValueTransferGas ember.Gas = 9000  // Paid for CALL when the value transfer is non-zero.
	CallStipend          ember.Gas = 2300  // Free gas given at beginning of a value-transferring call.

	ColdSloadCost         ember.Gas = 2100 // Cost of a cold storage slot access (EIP-2929).
	ColdAccountAccessCost ember.Gas = 2600 // Cost of a cold account access (EIP-2929).
	WarmStorageReadCost   ember.Gas = 100  // Cost of a warm account or storage slot access (EIP-2929).

	SstoreSentryGas ember.Gas = 2300  // Minimum gas required to be present for an SSTORE, not consumed.
	SstoreSetGas    ember.Gas = 20000 // Once per SSTORE operation from clean zero to non-zero.

	// SstoreResetGas is charged per SSTORE operation from a clean non-zero
	// slot to any other value. EIP-2929 folded the cold slot access cost out
	// of the former 5000 gas reset charge, leaving 5000 - 2100 = 2900.
	SstoreResetGas ember.Gas = 2900

	// SstoreClearsScheduleRefund is the refund granted for clearing a storage
	// slot. EIP-3529 redefined it as
	// SSTORE_RESET_GAS + ACCESS_LIST_STORAGE_KEY_COST = 5000 - 2100 + 1900.
	SstoreClearsScheduleRefund ember.Gas = 4800

	SelfdestructGas         ember.Gas = 5000  // Gas cost of SELFDESTRUCT (EIP-150).
	CreateBySelfdestructGas ember.Gas = 25000 // Extra cost when the beneficiary account does not exist.

	CreateGas        ember.Gas = 32000 // Cost of a CREATE or CREATE2 operation before init code execution.
	Keccak256WordGas ember.Gas = 6     // Cost per word hashed by SHA3 and CREATE2 address derivation.
	CopyWordGas      ember.Gas = 3     // Cost per word copied by the *COPY operations.
	ExpByteGas       ember.Gas = 50    // Cost per byte of the EXP exponent.
	LogTopicGas      ember.Gas = 375   // Cost per topic of a LOG operation.
	LogDataByteGas   ember.Gas = 8     // Cost per byte of LOG data.
)

// getAccessCost obtains the gas cost associated with an account or storage
// slot access of the given temperature, as defined by EIP-2929.
func getAccessCost(accessStatus ember.AccessStatus) ember.Gas {
	if accessStatus == ember.ColdAccess {
		return ColdAccountAccessCost
	}
	return WarmStorageReadCost
}

// getDynamicCostsForSstore obtains the gas costs of an SSTORE operation
// causing the given effect on its storage slot. The cold slot access
// surcharge is not included.
func getDynamicCostsForSstore(storageStatus ember.StorageStatus) ember.Gas {
	switch storageStatus {
	case ember.StorageAdded:
		return SstoreSetGas
	case ember.StorageDeleted, ember.StorageModified:
		return SstoreResetGas
	default:
		// All writes to a dirty slot are priced like a warm read.
		return WarmStorageReadCost
	}
}

// getRefundForSstore obtains the gas refund granted or revoked by an SSTORE
// operation causing the given effect on its storage slot, following the
// EIP-3529 refund schedule.
func getRefundForSstore(storageStatus ember.StorageStatus) ember.Gas {
	switch storageStatus {
	case ember.StorageDeleted:
		return SstoreClearsScheduleRefund
	case ember.StorageDeletedAdded:
		return -SstoreClearsScheduleRefund
	case ember.StorageModifiedDeleted:
		return SstoreClearsScheduleRefund
	case ember.StorageDeletedRestored:
		return -SstoreClearsScheduleRefund + SstoreResetGas - WarmStorageReadCost
	case ember.StorageAddedDeleted:
		return SstoreSetGas - WarmStorageReadCost
	case ember.StorageModifiedRestored:
		return SstoreResetGas - WarmStorageReadCost
	default:
		return 0
	}
}

// selfDestructNewAccountCost obtains the surcharge of a SELFDESTRUCT moving a
// non-zero balance to a beneficiary account that does not exist yet.
func selfDestructNewAccountCost(accountExists bool, balance ember.Value) ember.Gas {
	if !accountExists && balance != (ember.Value{}) {
		return CreateBySelfdestructGas
	}
	return 0
}
