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

// Dense is an in-memory matrix in column-major order.
type Dense[T Element] struct {
	rows, cols int
	data       []T
}

// NewDense allocates a rows x cols matrix of zeros.
func NewDense[T Element](rows, cols int) *Dense[T] {
	return &Dense[T]{
		rows: rows,
		cols: cols,
		data: make([]T, rows*cols),
	}
}

// New allocates a rows x cols matrix with the given element type.
func New(t ElementType, rows, cols int) (Matrix, error) {
	switch t {
	case Char:
		return NewDense[int8](rows, cols), nil
	case Short:
		return NewDense[int16](rows, cols), nil
	case Integer:
		return NewDense[int32](rows, cols), nil
	case Double:
		return NewDense[float64](rows, cols), nil
	default:
		return nil, t.Check()
	}
}

// Rows implements Matrix.
func (d *Dense[T]) Rows() int { return d.rows }

// Cols implements Matrix.
func (d *Dense[T]) Cols() int { return d.cols }

// Type implements Matrix.
func (d *Dense[T]) Type() ElementType { return TypeOf[T]() }

// At returns the element at row, col.
func (d *Dense[T]) At(row, col int) T {
	return d.data[col*d.rows+row]
}

// Set stores value at row, col.
func (d *Dense[T]) Set(row, col int, value T) {
	d.data[col*d.rows+row] = value
}
