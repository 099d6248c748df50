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
	"sync"

	"github.com/ember-vm/ember"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak-256 hash of the given data. Hasher instances
// are pooled since allocating the sponge state dominates the cost of hashing
// small inputs.
func Keccak256(data []byte) ember.Hash {
	if len(data) == 0 {
		return emptyKeccak256Hash
	}
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res ember.Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

var emptyKeccak256Hash = func() ember.Hash {
	hasher := sha3.NewLegacyKeccak256().(keccakHasher)
	var res ember.Hash
	hasher.Read(res[:])
	return res
}()
