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

package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type gonumMatrix struct {
	*mat.Dense
}

func (g gonumMatrix) Rows() int {
	r, _ := g.Dims()
	return r
}

func (g gonumMatrix) Cols() int {
	_, c := g.Dims()
	return c
}

func (g gonumMatrix) Type() ElementType {
	return Double
}

// FromGonum returns a Double matrix view of a gonum dense matrix.
// Missing values are stored as NaN.
func FromGonum(d *mat.Dense) Typed[float64] {
	return gonumMatrix{d}
}

// ToGonum copies m into a new gonum dense matrix, converting missing
// values to NaN.
func ToGonum(m Matrix) (*mat.Dense, error) {
	switch m.Type() {
	case Char:
		return toGonum[int8](m)
	case Short:
		return toGonum[int16](m)
	case Integer:
		return toGonum[int32](m)
	case Double:
		return toGonum[float64](m)
	default:
		return nil, m.Type().Check()
	}
}

func toGonum[T Element](m Matrix) (*mat.Dense, error) {
	typed, err := As[T](m)
	if err != nil {
		return nil, err
	}
	rows, cols := typed.Rows(), typed.Cols()
	if rows == 0 || cols == 0 {
		return &mat.Dense{}, nil
	}
	sentinel := Missing[T]()
	result := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := typed.At(i, j); IsSentinel(v, sentinel) {
				result.Set(i, j, math.NaN())
			} else {
				result.Set(i, j, float64(v))
			}
		}
	}
	return result, nil
}
