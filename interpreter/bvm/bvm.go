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

	"github.com/ember-vm/ember"
)

// Registers the byte-code EVM as a possible interpreter implementation.
func init() {
	ember.RegisterInterpreter("bvm", func(any) (ember.Interpreter, error) {
		return NewVm(Config{})
	})
}

// RegisterExperimentalInterpreterConfigurations registers all experimental
// interpreter configurations of this package to the interpreter registry.
// This function should not be called in production code, as the resulting
// VMs are not officially supported.
func RegisterExperimentalInterpreterConfigurations() {
	ember.RegisterInterpreter("bvm-logging", func(any) (ember.Interpreter, error) {
		return NewVm(Config{runner: loggingRunner{}})
	})
	ember.RegisterInterpreter("bvm-no-analysis-cache", func(any) (ember.Interpreter, error) {
		return NewVm(Config{AnalysisCacheCapacity: -1})
	})
}

// Config contains a set of configuration options for a VM instance.
type Config struct {
	// AnalysisCacheCapacity is the maximum number of code analysis results
	// retained by the VM. If set to 0, a default capacity is used. If
	// negative, no cache is used.
	AnalysisCacheCapacity int
	runner                runner
}

type bvm struct {
	config   Config
	analyzer *analyzer
}

// defaultAnalysisCacheCapacity bounds the analysis cache to roughly 100 MiB
// of bit vectors for codes of maximum cached length.
const defaultAnalysisCacheCapacity = 1 << 15

// NewVm creates a new VM instance with the provided configuration.
func NewVm(config Config) (*bvm, error) {
	capacity := config.AnalysisCacheCapacity
	if capacity == 0 {
		capacity = defaultAnalysisCacheCapacity
	}
	analyzer, err := newAnalyzer(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create code analyzer: %v", err)
	}
	return &bvm{config: config, analyzer: analyzer}, nil
}

func (v *bvm) Run(params ember.Parameters) (ember.Result, error) {
	dests := v.analyzer.analyze(params.Code, params.CodeHash)
	return run(v.config, params, dests)
}
