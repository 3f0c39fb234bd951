// elgeno: a high-performance tool for converting genotype files.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elgeno/blob/master/LICENSE.txt>.

package utils

import (
	"log"
	"runtime"
	"sync/atomic"
)

// RuntimeContext supplies the worker count of a top-level operation
// and receives its progress reports.
//
// OnProgress may be called concurrently from several workers.
type RuntimeContext interface {
	WorkerCount(requested int) int
	OnProgress(step int)
}

// DefaultWorkerCount returns requested if positive, and otherwise the
// number of available cores minus one, but at least 1.
func DefaultWorkerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := runtime.NumCPU() - 1; n > 0 {
		return n
	}
	return 1
}

// Runtime is the RuntimeContext used by the elgeno commands. When
// Verbose is set, it logs the worker count, and logs progress each time
// another tenth of Total steps is completed.
type Runtime struct {
	Verbose bool
	Total   int
	Message string

	done     int64
	reported int64
}

// NewRuntime returns a Runtime expecting total steps.
func NewRuntime(verbose bool, total int, message string) *Runtime {
	return &Runtime{Verbose: verbose, Total: total, Message: message}
}

// WorkerCount implements RuntimeContext.
func (rt *Runtime) WorkerCount(requested int) int {
	n := DefaultWorkerCount(requested)
	if rt.Verbose {
		log.Println("Number of threads:", n)
	}
	return n
}

// OnProgress implements RuntimeContext.
func (rt *Runtime) OnProgress(step int) {
	done := atomic.AddInt64(&rt.done, int64(step))
	if !rt.Verbose || rt.Total <= 0 {
		return
	}
	tenth := done * 10 / int64(rt.Total)
	for {
		reported := atomic.LoadInt64(&rt.reported)
		if tenth <= reported {
			return
		}
		if atomic.CompareAndSwapInt64(&rt.reported, reported, tenth) {
			log.Printf("%v%v%% (%v of %v)\n", rt.Message, tenth*10, done, rt.Total)
			return
		}
	}
}

// Done returns the number of steps reported so far.
func (rt *Runtime) Done() int {
	return int(atomic.LoadInt64(&rt.done))
}

type quietRuntime struct{}

func (quietRuntime) WorkerCount(requested int) int { return DefaultWorkerCount(requested) }

func (quietRuntime) OnProgress(int) {}

// OrDefault returns rt, or a quiet RuntimeContext if rt is nil.
func OrDefault(rt RuntimeContext) RuntimeContext {
	if rt == nil {
		return quietRuntime{}
	}
	return rt
}
