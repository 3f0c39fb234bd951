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

// Package dosage maps textual genotype calls to dosage codes, the
// number of non-reference alleles a sample carries at a biallelic site.
//
// All parsers in this package are total: every input yields a Code,
// and calls that cannot be interpreted yield Missing.
package dosage

import (
	"strconv"
	"strings"
)

// Code is a dosage code: HomRef, Het, HomAlt, or Missing.
type Code int8

const (
	// HomRef is a homozygous reference call.
	HomRef Code = 0

	// Het is a heterozygous call.
	Het Code = 1

	// HomAlt is a homozygous alternate call.
	HomAlt Code = 2

	// Missing marks a call that could not be interpreted.
	Missing Code = -1
)

// IsMissing returns true if c is not one of 0, 1, or 2.
func (c Code) IsMissing() bool {
	return c < HomRef || c > HomAlt
}

// String returns "0", "1", "2", or "NA".
func (c Code) String() string {
	if c.IsMissing() {
		return "NA"
	}
	return strconv.Itoa(int(c))
}

func allele(c byte) Code {
	switch c {
	case '0':
		return 0
	case '1':
		return 1
	default:
		return Missing
	}
}

// ParseDiploidPair parses the two alleles of a VCF-style a/b or a|b
// genotype. Only reference (0) and first alternate (1) alleles are
// counted. Any other allele index, including '.', yields Missing, so
// multi-allelic calls are coded as missing.
func ParseDiploidPair(a, b byte) Code {
	x, y := allele(a), allele(b)
	if x == Missing || y == Missing {
		return Missing
	}
	return x + y
}

// ParseVCFToken parses a VCF sample column. The GT subfield must come
// first, with the separator at index 1; trailing FORMAT data is ignored.
func ParseVCFToken(token string) Code {
	if len(token) < 3 {
		return Missing
	}
	return ParseDiploidPair(token[0], token[2])
}

func isBase(c byte) bool {
	switch c {
	case 'A', 'T', 'G', 'C':
		return true
	default:
		return false
	}
}

// MajorAllele returns the zero-dosage anchor of a HapMap line, given
// its alleles field: the first character, or 'N' when the field is
// longer than 3 characters (or empty).
func MajorAllele(alleles string) byte {
	if len(alleles) == 0 || len(alleles) > 3 {
		return 'N'
	}
	return alleles[0]
}

// ParseHaplotypeCall parses a HapMap call, which is either a single
// base or IUPAC ambiguity code, or a pair of bases.
func ParseHaplotypeCall(token string, major byte) Code {
	switch len(token) {
	case 1:
		c := token[0]
		switch {
		case c == '+' || c == '0' || c == '-' || c == 'N':
			return Missing
		case c == major:
			return HomRef
		}
		switch c {
		case 'R', 'Y', 'S', 'W', 'K', 'M':
			return Het
		case 'A', 'T', 'G', 'C':
			return HomAlt
		}
		return Missing
	case 2:
		a, b := token[0], token[1]
		if !isBase(a) || !isBase(b) {
			return Missing
		}
		var result Code
		if a != major {
			result++
		}
		if b != major {
			result++
		}
		return result
	default:
		return Missing
	}
}

// ParseNumeric parses a cell of a numeric genotype table. Cells that
// denote exactly 0, 1, or 2 (such as "1" or "1.0") are accepted;
// everything else is Missing.
func ParseNumeric(token string) Code {
	token = strings.TrimSpace(token)
	switch token {
	case "0":
		return HomRef
	case "1":
		return Het
	case "2":
		return HomAlt
	case "", "NA", ".":
		return Missing
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return Missing
	}
	switch value {
	case 0:
		return HomRef
	case 1:
		return Het
	case 2:
		return HomAlt
	default:
		return Missing
	}
}
