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

package genotype

// A StringScanner can be used to scan/parse strings representing
// lines in genotype files.
//
// The zero StringScanner is valid and empty.
type StringScanner struct {
	index int
	data  string
}

// Reset resets the scanner, and initializes it with the given string.
func (sc *StringScanner) Reset(s string) {
	sc.index = 0
	sc.data = s
}

// Len returns the number of ASCII characters that still need to be
// scanned/parsed.
func (sc *StringScanner) Len() int {
	return len(sc.data) - sc.index
}

// SkipSpace skips ' ' runes
func (sc *StringScanner) SkipSpace() {
	for end := sc.index; end < len(sc.data); end++ {
		if sc.data[end] != ' ' {
			sc.index = end
			return
		}
	}
	sc.index = len(sc.data)
}

func (sc *StringScanner) readUntilByte(c byte) (s string, found bool) {
	start := sc.index
	for end := sc.index; end < len(sc.data); end++ {
		if sc.data[end] == c {
			sc.index = end + 1
			return sc.data[start:end], true
		}
	}
	sc.index = len(sc.data)
	return sc.data[start:], false
}

// ReadField returns the next tab-separated field.
func (sc *StringScanner) ReadField() string {
	s, _ := sc.readUntilByte('\t')
	return s
}

// SkipFields skips n tab-separated fields, and returns the number of
// fields actually skipped.
func (sc *StringScanner) SkipFields(n int) int {
	for i := 0; i < n; i++ {
		if sc.Len() == 0 {
			return i
		}
		_, _ = sc.readUntilByte('\t')
	}
	return n
}

// ReadToken returns the next field separated by delimiter. When the
// delimiter is a space, runs of spaces count as one separator.
func (sc *StringScanner) ReadToken(delimiter byte) string {
	if delimiter == ' ' {
		sc.SkipSpace()
		s, _ := sc.readUntilByte(' ')
		sc.SkipSpace()
		return s
	}
	s, _ := sc.readUntilByte(delimiter)
	return s
}
