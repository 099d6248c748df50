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

// ConstError is reexported from the ember package to keep error definitions
// in this package concise.
type ConstError = ember.ConstError

const (
	errOutOfGas               = ConstError("out of gas")
	errStackOverflow          = ConstError("stack overflow")
	errStackUnderflow         = ConstError("stack underflow")
	errInvalidJump            = ConstError("invalid jump destination")
	errInvalidOpCode          = ConstError("invalid instruction")
	errOverflow               = ConstError("offset or size overflow")
	errGasUintOverflow        = ConstError("gas uint64 overflow")
	errReturnDataOutOfBounds  = ConstError("return data out of bounds")
	errStaticContextViolation = ConstError("write attempt in static context")
)
