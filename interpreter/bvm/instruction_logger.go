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
	"fmt"
	"io"
	"os"
)

// loggingRunner is a runner that logs the execution of the contract code to
// an io.Writer. If no writer is provided with newLogger, the log will be
// written to os.Stderr.
type loggingRunner struct {
	log io.Writer
}

// newLogger creates a new logging runner that writes to the provided
// io.Writer.
func newLogger(writer io.Writer) loggingRunner {
	return loggingRunner{log: writer}
}

func (l loggingRunner) run(c *context) (status, error) {
	out := l.log
	if out == nil {
		out = os.Stderr
	}
	status := statusRunning
	var err error
	for status == statusRunning {
		// log format: <op>, <gas>, <top-of-stack>\n
		if int(c.pc) < len(c.code) {
			top := "-empty-"
			if c.stack.len() > 0 {
				top = c.stack.peek().ToBig().String()
			}
			_, err = fmt.Fprintf(out, "%v, %d, %v\n", OpCode(c.code[c.pc]), c.gas, top)
			if err != nil {
				return status, err
			}
		}
		status, err = step(c)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}
