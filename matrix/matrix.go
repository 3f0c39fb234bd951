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

// Package matrix defines the genotype matrix abstraction: a fixed-size
// two-dimensional array of dosage codes, backed by one of four numeric
// element types, each with its own missing-value sentinel.
//
// Rows are variants and columns are samples.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/exascience/elgeno/dosage"
)

// ElementType identifies the numeric type backing a matrix. Its value
// is the width of one element in bytes.
type ElementType int

// The supported element types.
const (
	Char    ElementType = 1 // int8
	Short   ElementType = 2 // int16
	Integer ElementType = 4 // int32
	Double  ElementType = 8 // float64
)

// ErrUnsupportedElementType is returned for matrices whose element type
// is not one of Char, Short, Integer, or Double.
var ErrUnsupportedElementType = errors.New("unsupported matrix element type")

// Width returns the number of bytes needed to store one element.
func (t ElementType) Width() int {
	return int(t)
}

// Check returns an error wrapping ErrUnsupportedElementType if t is not
// a supported element type.
func (t ElementType) Check() error {
	switch t {
	case Char, Short, Integer, Double:
		return nil
	default:
		return fmt.Errorf("%w: width %d", ErrUnsupportedElementType, int(t))
	}
}

func (t ElementType) String() string {
	switch t {
	case Char:
		return "char"
	case Short:
		return "short"
	case Integer:
		return "integer"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseElementType parses the names returned by ElementType.String.
func ParseElementType(s string) (ElementType, error) {
	switch strings.ToLower(s) {
	case "char":
		return Char, nil
	case "short":
		return Short, nil
	case "integer", "int":
		return Integer, nil
	case "double":
		return Double, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedElementType, s)
	}
}

// Element is the set of Go types that can back a matrix.
type Element interface {
	int8 | int16 | int32 | float64
}

// TypeOf returns the element type corresponding to T.
func TypeOf[T Element]() ElementType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Char
	case int16:
		return Short
	case int32:
		return Integer
	default:
		return Double
	}
}

var (
	missingChar    int8  = math.MinInt8
	missingShort   int16 = math.MinInt16
	missingInteger int32 = math.MinInt32

	// NaN with payload 1954, as used by R for NA_real_.
	missingDouble = math.Float64frombits(0x7FF00000000007A2)
)

// Missing returns the missing-value sentinel for T.
func Missing[T Element]() T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return T(missingChar)
	case int16:
		return T(missingShort)
	case int32:
		return T(missingInteger)
	default:
		return T(missingDouble)
	}
}

// IsSentinel reports whether v is the given sentinel. For float64, the
// sentinel is a NaN, and every NaN matches it.
func IsSentinel[T Element](v, sentinel T) bool {
	return v == sentinel || v != v
}

// IsMissing reports whether v is the missing-value sentinel of T.
func IsMissing[T Element](v T) bool {
	return IsSentinel(v, Missing[T]())
}

// FromCode converts a dosage code into an element, mapping
// dosage.Missing to the given sentinel.
func FromCode[T Element](c dosage.Code, sentinel T) T {
	if c.IsMissing() {
		return sentinel
	}
	return T(c)
}

// ToCode converts an element into a dosage code. Values other than
// 0, 1, and 2 map to dosage.Missing.
func ToCode[T Element](v T) dosage.Code {
	switch v {
	case 0:
		return dosage.HomRef
	case 1:
		return dosage.Het
	case 2:
		return dosage.HomAlt
	default:
		return dosage.Missing
	}
}

// Matrix is the untyped view of a genotype matrix. Its element type is
// fixed at creation.
type Matrix interface {
	Rows() int
	Cols() int
	Type() ElementType
}

// Typed is a Matrix with element access. Implementations must allow
// concurrent Set calls on distinct cells.
type Typed[T Element] interface {
	Matrix
	At(row, col int) T
	Set(row, col int, value T)
}

// As returns the typed view of m for T.
func As[T Element](m Matrix) (Typed[T], error) {
	if mapped, ok := m.(*Mapped); ok {
		m = mapped.Matrix
	}
	if err := m.Type().Check(); err != nil {
		return nil, err
	}
	if typed, ok := m.(Typed[T]); ok && m.Type() == TypeOf[T]() {
		return typed, nil
	}
	return nil, fmt.Errorf("%w: %v matrix accessed as %v", ErrUnsupportedElementType, m.Type(), TypeOf[T]())
}
