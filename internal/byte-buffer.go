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

package internal

import "sync"

// Pointers to slices avoid an allocation on every Put.
var bufPool = sync.Pool{New: func() interface{} {
	return new([]byte)
}}

// ReserveByteBuffer returns a slice of bytes of length n, reusing the
// storage of a released buffer if it is large enough. The contents are
// undefined.
func ReserveByteBuffer(n int) []byte {
	buf := bufPool.Get().(*[]byte)
	if cap(*buf) < n {
		return make([]byte, n)
	}
	return (*buf)[:n]
}

// ReleaseByteBuffer makes the storage of buf available to later
// ReserveByteBuffer calls. buf must not be used afterwards.
func ReleaseByteBuffer(buf []byte) {
	buf = buf[:0]
	bufPool.Put(&buf)
}
