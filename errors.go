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

// ConstError is an error type that can be declared as a constant, making
// error values comparable and immune to accidental mutation.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}
