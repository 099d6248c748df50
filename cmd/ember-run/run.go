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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ember-vm/ember"
	"github.com/ember-vm/ember/interpreter/bvm"
	"github.com/ember-vm/ember/state"
	"github.com/urfave/cli/v2"

	_ "github.com/ember-vm/ember/processor/tephra"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Run the given bytecode as a transaction on a fresh state",
	ArgsUsage: "<code-hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "interpreter",
			Usage: "the interpreter configuration to run the code on",
			Value: "bvm",
		},
		&cli.StringFlag{
			Name:  "input",
			Usage: "hex-encoded input data passed to the contract",
		},
		&cli.Uint64Flag{
			Name:  "gas",
			Usage: "gas limit of the transaction",
			Value: 1_000_000,
		},
	},
}

var (
	senderAddress   = ember.Address{0x01}
	contractAddress = ember.Address{0x42}
)

func doRun(context *cli.Context) error {
	bvm.RegisterExperimentalInterpreterConfigurations()

	if context.Args().Len() < 1 {
		return fmt.Errorf("missing bytecode argument")
	}
	code, err := decodeHex(context.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid bytecode: %w", err)
	}
	input, err := decodeHex(context.String("input"))
	if err != nil {
		return fmt.Errorf("invalid input data: %w", err)
	}

	receipt, err := runTransaction(
		context.String("interpreter"),
		code, input,
		ember.Gas(context.Uint64("gas")),
	)
	if err != nil {
		return err
	}

	fmt.Printf("success:  %t\n", receipt.Success)
	fmt.Printf("gas used: %d\n", receipt.GasUsed)
	if len(receipt.Output) > 0 {
		fmt.Printf("output:   0x%x\n", receipt.Output)
	}
	for i, log := range receipt.Logs {
		fmt.Printf("log %d:    %v %v 0x%x\n", i, log.Address, log.Topics, log.Data)
	}
	return nil
}

// runTransaction executes the given code as the recipient of a transaction
// over a single-purpose in-memory state.
func runTransaction(
	interpreterName string,
	code []byte,
	input []byte,
	gasLimit ember.Gas,
) (ember.Receipt, error) {
	interpreter, err := ember.NewInterpreter(interpreterName)
	if err != nil {
		return ember.Receipt{}, err
	}
	factory := ember.GetProcessorFactory("tephra")
	if factory == nil {
		return ember.Receipt{}, fmt.Errorf("transaction processor not registered")
	}
	processor := factory(interpreter)

	stateContext := state.NewContext(state.WorldState{
		senderAddress:   {Balance: maxBalance()},
		contractAddress: {Code: code},
	})

	return processor.Run(
		ember.BlockParameters{
			BlockNumber: 1,
			GasLimit:    gasLimit,
		},
		ember.Transaction{
			Sender:    senderAddress,
			Recipient: &contractAddress,
			Input:     input,
			GasLimit:  gasLimit,
			GasPrice:  ember.NewValue(1),
		},
		stateContext,
	)
}

func maxBalance() ember.Value {
	return ember.NewValue(1, 0, 0) // 2^128, plenty for any gas purchase
}

func decodeHex(data string) ([]byte, error) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "0x")
	if data == "" {
		return nil, nil
	}
	return hex.DecodeString(data)
}
