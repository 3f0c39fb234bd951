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
	"io"

	"github.com/kshedden/gonpy"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// WriteNpy writes m as a rows x cols numpy array of its element type,
// in column-major (Fortran) order. Missing elements keep their
// sentinel values.
func WriteNpy(w io.Writer, m Matrix) error {
	if mapped, ok := m.(*Mapped); ok {
		m = mapped.Matrix
	}
	if err := m.Type().Check(); err != nil {
		return err
	}
	npw, err := gonpy.NewWriter(nopCloser{w})
	if err != nil {
		return err
	}
	npw.Shape = []int{m.Rows(), m.Cols()}
	npw.ColumnMajor = true
	switch d := m.(type) {
	case *Dense[int8]:
		return npw.WriteInt8(d.data)
	case *Dense[int16]:
		return npw.WriteInt16(d.data)
	case *Dense[int32]:
		return npw.WriteInt32(d.data)
	case *Dense[float64]:
		return npw.WriteFloat64(d.data)
	}
	return writeNpyCopy(npw, m)
}

func columnMajor[T Element](m Matrix) ([]T, error) {
	typed, err := As[T](m)
	if err != nil {
		return nil, err
	}
	rows, cols := typed.Rows(), typed.Cols()
	data := make([]T, 0, rows*cols)
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			data = append(data, typed.At(row, col))
		}
	}
	return data, nil
}

func writeNpyCopy(npw *gonpy.NpyWriter, m Matrix) error {
	switch m.Type() {
	case Char:
		data, err := columnMajor[int8](m)
		if err != nil {
			return err
		}
		return npw.WriteInt8(data)
	case Short:
		data, err := columnMajor[int16](m)
		if err != nil {
			return err
		}
		return npw.WriteInt16(data)
	case Integer:
		data, err := columnMajor[int32](m)
		if err != nil {
			return err
		}
		return npw.WriteInt32(data)
	default:
		data, err := columnMajor[float64](m)
		if err != nil {
			return err
		}
		return npw.WriteFloat64(data)
	}
}
