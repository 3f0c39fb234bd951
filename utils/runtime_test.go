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
	"sync"
	"testing"
)

func TestDefaultWorkerCount(t *testing.T) {
	if DefaultWorkerCount(3) != 3 {
		t.Error("requested worker count ignored")
	}
	if DefaultWorkerCount(0) < 1 || DefaultWorkerCount(-2) < 1 {
		t.Error("default worker count below 1")
	}
}

func TestRuntimeProgress(t *testing.T) {
	rt := NewRuntime(false, 100, "test ")
	var wait sync.WaitGroup
	for i := 0; i < 10; i++ {
		wait.Add(1)
		go func() {
			defer wait.Done()
			for j := 0; j < 10; j++ {
				rt.OnProgress(1)
			}
		}()
	}
	wait.Wait()
	if rt.Done() != 100 {
		t.Errorf("Done() = %v", rt.Done())
	}
}

func TestOrDefault(t *testing.T) {
	rt := OrDefault(nil)
	if rt.WorkerCount(2) != 2 {
		t.Error("quiet runtime ignored requested worker count")
	}
	rt.OnProgress(1)
	r := NewRuntime(false, 0, "")
	if OrDefault(r) != RuntimeContext(r) {
		t.Error("OrDefault replaced a non-nil runtime")
	}
}
