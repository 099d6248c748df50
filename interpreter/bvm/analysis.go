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
	"github.com/ember-vm/ember"
	lru "github.com/hashicorp/golang-lru/v2"
)

// destinations is a bit vector marking the positions in a contract code that
// are valid jump destinations. A position is valid if it holds a JUMPDEST
// instruction that is not part of the immediate data of a preceding PUSH.
type destinations []byte

// analyzeCode scans the given code and produces its jump destination bit
// vector. The scan decodes instruction boundaries once, so the execution loop
// can validate jumps with a single bit test.
func analyzeCode(code ember.Code) destinations {
	dests := make(destinations, len(code)/8+1)
	for i := 0; i < len(code); i++ {
		op := OpCode(code[i])
		if op == JUMPDEST {
			dests[i/8] |= 1 << (i % 8)
		} else if isPush(op) {
			i += pushSize(op)
		}
	}
	return dests
}

func (d destinations) isValidJumpdest(pos uint64) bool {
	if pos/8 >= uint64(len(d)) {
		return false
	}
	return d[pos/8]&(1<<(pos%8)) != 0
}

// maxCachedCodeLength is the maximum length of a code in bytes whose analysis
// is retained in the cache. The defined limit is the current limit for codes
// stored on the chain. Only initialization codes can be longer; those are not
// cached due to the expected limited re-use and the missing code hash.
const maxCachedCodeLength = 1<<14 + 1<<13 // = 24_576 bytes

// analyzer computes jump destination bit vectors and caches them by code
// hash, so repeated executions of the same contract skip the code scan.
type analyzer struct {
	cache *lru.Cache[ember.Hash, destinations]
}

// newAnalyzer creates an analyzer maintaining a cache of up to the given
// number of code analysis results. A non-positive capacity disables caching.
func newAnalyzer(capacity int) (*analyzer, error) {
	if capacity <= 0 {
		return &analyzer{}, nil
	}
	cache, err := lru.New[ember.Hash, destinations](capacity)
	if err != nil {
		return nil, err
	}
	return &analyzer{cache: cache}, nil
}

// analyze obtains the jump destination bit vector for the given code. If the
// provided code hash is not nil, it is assumed to be a valid hash of the code
// and is used to cache the analysis result.
func (a *analyzer) analyze(code ember.Code, codeHash *ember.Hash) destinations {
	if a.cache == nil || codeHash == nil || len(code) > maxCachedCodeLength {
		return analyzeCode(code)
	}
	if res, exists := a.cache.Get(*codeHash); exists {
		return res
	}
	res := analyzeCode(code)
	a.cache.Add(*codeHash, res)
	return res
}
