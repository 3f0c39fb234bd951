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

// Package stats computes summaries of genotype matrices.
package stats

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elgeno/matrix"
	"github.com/exascience/elgeno/utils"
)

// ErrRowOutOfRange is returned for row numbers outside the matrix.
var ErrRowOutOfRange = errors.New("row out of range")

// AlleleCounts tallies the dosage codes of one variant.
type AlleleCounts struct {
	Count0, Count1, Count2 int
}

func countRow[T matrix.Element](m matrix.Typed[T], row int) (counts AlleleCounts) {
	for col, cols := 0, m.Cols(); col < cols; col++ {
		switch m.At(row, col) {
		case 0:
			counts.Count0++
		case 1:
			counts.Count1++
		case 2:
			counts.Count2++
		}
	}
	return counts
}

func countTyped[T matrix.Element](m matrix.Matrix, row int) (AlleleCounts, error) {
	typed, err := matrix.As[T](m)
	if err != nil {
		return AlleleCounts{}, err
	}
	return countRow(typed, row), nil
}

// CountAlleleCodes tallies the values 0, 1, and 2 in the given row,
// which is numbered from 1. Other values, including the missing
// sentinel, are not counted.
func CountAlleleCodes(m matrix.Matrix, row int) (AlleleCounts, error) {
	if err := m.Type().Check(); err != nil {
		return AlleleCounts{}, err
	}
	if row < 1 || row > m.Rows() {
		return AlleleCounts{}, fmt.Errorf("%w: row %v of %v", ErrRowOutOfRange, row, m.Rows())
	}
	switch m.Type() {
	case matrix.Char:
		return countTyped[int8](m, row-1)
	case matrix.Short:
		return countTyped[int16](m, row-1)
	case matrix.Integer:
		return countTyped[int32](m, row-1)
	default:
		return countTyped[float64](m, row-1)
	}
}

func rowHasMissing[T matrix.Element](m matrix.Typed[T], row int, missing T) bool {
	for col, cols := 0, m.Cols(); col < cols; col++ {
		if matrix.IsSentinel(m.At(row, col), missing) {
			return true
		}
	}
	return false
}

func hasMissing[T matrix.Element](m matrix.Matrix, workers int) (bool, error) {
	typed, err := matrix.As[T](m)
	if err != nil {
		return false, err
	}
	if typed.Rows() == 0 {
		return false, nil
	}
	missing := matrix.Missing[T]()
	return parallel.RangeOr(0, typed.Rows(), workers, func(low, high int) bool {
		for row := low; row < high; row++ {
			if rowHasMissing(typed, row, missing) {
				return true
			}
		}
		return false
	}), nil
}

// HasMissing reports whether any element of m is the missing sentinel
// of its element type.
func HasMissing(m matrix.Matrix, threads int) (bool, error) {
	if err := m.Type().Check(); err != nil {
		return false, err
	}
	workers := utils.DefaultWorkerCount(threads)
	switch m.Type() {
	case matrix.Char:
		return hasMissing[int8](m, workers)
	case matrix.Short:
		return hasMissing[int16](m, workers)
	case matrix.Integer:
		return hasMissing[int32](m, workers)
	default:
		return hasMissing[float64](m, workers)
	}
}

func missingVariants[T matrix.Element](m matrix.Matrix, workers int) (*bitset.BitSet, error) {
	typed, err := matrix.As[T](m)
	if err != nil {
		return nil, err
	}
	rows := typed.Rows()
	if rows == 0 {
		return bitset.New(0), nil
	}
	missing := matrix.Missing[T]()
	result := parallel.RangeReduce(0, rows, workers, func(low, high int) interface{} {
		set := bitset.New(uint(rows))
		for row := low; row < high; row++ {
			if rowHasMissing(typed, row, missing) {
				set.Set(uint(row))
			}
		}
		return set
	}, func(x, y interface{}) interface{} {
		set := x.(*bitset.BitSet)
		set.InPlaceUnion(y.(*bitset.BitSet))
		return set
	})
	return result.(*bitset.BitSet), nil
}

// MissingVariants returns the set of rows of m that contain at least
// one missing element.
func MissingVariants(m matrix.Matrix, threads int) (*bitset.BitSet, error) {
	if err := m.Type().Check(); err != nil {
		return nil, err
	}
	workers := utils.DefaultWorkerCount(threads)
	switch m.Type() {
	case matrix.Char:
		return missingVariants[int8](m, workers)
	case matrix.Short:
		return missingVariants[int16](m, workers)
	case matrix.Integer:
		return missingVariants[int32](m, workers)
	default:
		return missingVariants[float64](m, workers)
	}
}
