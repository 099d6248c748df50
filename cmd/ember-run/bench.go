// Copyright (c) 2024 The ember-vm Authors
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public Licence v3.

package main

import (
	"fmt"
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/ember-vm/ember"
	"github.com/urfave/cli/v2"
)

var BenchCmd = cli.Command{
	Action:    doBench,
	Name:      "bench",
	Usage:     "Measure the transaction throughput for the given bytecode",
	ArgsUsage: "<code-hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "interpreter",
			Usage: "the interpreter configuration to run the code on",
			Value: "bvm",
		},
		&cli.IntFlag{
			Name:  "iterations",
			Usage: "number of transactions to execute",
			Value: 10_000,
		},
		&cli.Uint64Flag{
			Name:  "gas",
			Usage: "gas limit of each transaction",
			Value: 1_000_000,
		},
	},
}

func doBench(context *cli.Context) error {
	if context.Args().Len() < 1 {
		return fmt.Errorf("missing bytecode argument")
	}
	code, err := decodeHex(context.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid bytecode: %w", err)
	}

	interpreterName := context.String("interpreter")
	iterations := context.Int("iterations")
	gasLimit := ember.Gas(context.Uint64("gas"))

	// One warm-up run, also validating that the code executes at all.
	receipt, err := runTransaction(interpreterName, code, nil, gasLimit)
	if err != nil {
		return err
	}
	if !receipt.Success {
		return fmt.Errorf("bytecode does not execute successfully, %d gas used", receipt.GasUsed)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := runTransaction(interpreterName, code, nil, gasLimit); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	rate := float64(iterations) / elapsed.Seconds()
	fmt.Printf("%d transactions in %v, ~%s transactions per second, %d gas each\n",
		iterations, elapsed.Round(time.Millisecond),
		unitconv.FormatPrefix(rate, unitconv.SI, 1), receipt.GasUsed,
	)
	return nil
}
