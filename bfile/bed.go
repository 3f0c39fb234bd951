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

// Package bfile reads and writes PLINK binary genotype files: the
// packed .bed matrix and its .bim and .fam side-cars.
package bfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/carbocation/pfx"
	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elgeno/dosage"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/matrix"
	"github.com/exascience/elgeno/utils"
)

// Magic is the header of a variant-major .bed file.
var Magic = [3]byte{0x6C, 0x1B, 0x01}

// ErrTruncated is returned when a .bed file is too short for the
// dimensions of the target matrix.
var ErrTruncated = errors.New("truncated bed file")

// writeBlockSize bounds the number of packed bytes buffered by WriteBed.
const writeBlockSize = 1 << 22

// RowBytes returns the number of bytes of a packed row of cols samples.
func RowBytes(cols int) int {
	return (cols + 3) / 4
}

// EncodeCode returns the 2-bit .bed code of a dosage code.
func EncodeCode(c dosage.Code) byte {
	switch c {
	case dosage.HomRef:
		return 3
	case dosage.Het:
		return 2
	case dosage.HomAlt:
		return 0
	default:
		return 1
	}
}

// DecodeCode returns the dosage code of the low two bits of b.
func DecodeCode(b byte) dosage.Code {
	switch b & 3 {
	case 3:
		return dosage.HomRef
	case 2:
		return dosage.Het
	case 0:
		return dosage.HomAlt
	default:
		return dosage.Missing
	}
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// packGroup packs the four samples of the given column group. The first
// sample goes in the least significant bit pair, and unused pairs of
// the last group are zero.
func packGroup[T matrix.Element](m matrix.Typed[T], row, group int) (b byte) {
	col := group * 4
	end := minInt(col+4, m.Cols())
	for shift := 0; col < end; col, shift = col+1, shift+2 {
		b |= EncodeCode(matrix.ToCode(m.At(row, col))) << shift
	}
	return b
}

func writeBed[T matrix.Element](w io.Writer, m matrix.Typed[T], workers int, rt utils.RuntimeContext) error {
	rows, n := m.Rows(), RowBytes(m.Cols())
	if n == 0 {
		return nil
	}
	block := writeBlockSize / n
	if block < 1 {
		block = 1
	}
	block = minInt(block, rows)
	if block == 0 {
		return nil
	}
	buf := internal.ReserveByteBuffer(block * n)
	defer internal.ReleaseByteBuffer(buf)
	for base := 0; base < rows; base += block {
		count := minInt(block, rows-base)
		data := buf[:count*n]
		parallel.Range(0, len(data), workers, func(low, high int) {
			for i := low; i < high; i++ {
				data[i] = packGroup(m, base+i/n, i%n)
			}
		})
		if _, err := w.Write(data); err != nil {
			return pfx.Err(err)
		}
		rt.OnProgress(count)
	}
	return nil
}

// WriteBed writes m as a .bed image: the magic header followed by one
// packed row per variant. Rows are packed in parallel, but written in
// order, so the output does not depend on the number of workers.
func WriteBed(w io.Writer, m matrix.Matrix, threads int, rt utils.RuntimeContext) error {
	if err := m.Type().Check(); err != nil {
		return err
	}
	rt = utils.OrDefault(rt)
	if _, err := w.Write(Magic[:]); err != nil {
		return pfx.Err(err)
	}
	workers := rt.WorkerCount(threads)
	switch m.Type() {
	case matrix.Char:
		return writeTyped[int8](w, m, workers, rt)
	case matrix.Short:
		return writeTyped[int16](w, m, workers, rt)
	case matrix.Integer:
		return writeTyped[int32](w, m, workers, rt)
	default:
		return writeTyped[float64](w, m, workers, rt)
	}
}

func writeTyped[T matrix.Element](w io.Writer, m matrix.Matrix, workers int, rt utils.RuntimeContext) error {
	typed, err := matrix.As[T](m)
	if err != nil {
		return err
	}
	return writeBed(w, typed, workers, rt)
}

func readBed[T matrix.Element](r io.ReaderAt, m matrix.Typed[T], maxLines, workers int, rt utils.RuntimeContext) error {
	rows, cols := m.Rows(), m.Cols()
	n := RowBytes(cols)
	if rows == 0 || n == 0 {
		return nil
	}
	block := rows
	if maxLines > 0 && maxLines < rows {
		block = maxLines
	}
	buf := internal.ReserveByteBuffer(block * n)
	defer internal.ReleaseByteBuffer(buf)
	missing := matrix.Missing[T]()
	for base := 0; base < rows; base += block {
		count := minInt(block, rows-base)
		data := buf[:count*n]
		if k, err := r.ReadAt(data, int64(len(Magic))+int64(base)*int64(n)); k < len(data) {
			if err == nil || err == io.EOF {
				return fmt.Errorf("%w: row %v is incomplete", ErrTruncated, base+k/n)
			}
			return pfx.Err(err)
		}
		parallel.Range(0, len(data), workers, func(low, high int) {
			for i := low; i < high; i++ {
				row, col := base+i/n, (i%n)*4
				b := data[i]
				for end := minInt(col+4, cols); col < end; col++ {
					m.Set(row, col, matrix.FromCode(DecodeCode(b), missing))
					b >>= 2
				}
			}
		})
		rt.OnProgress(count)
	}
	return nil
}

// ReadBed decodes a .bed image of the given size into m. The dimensions
// come from m, not from the image. The image is read in blocks of at
// most maxLines rows, or in one block when maxLines <= 0, and each
// block is decoded in parallel.
func ReadBed(r io.ReaderAt, size int64, m matrix.Matrix, maxLines, threads int, rt utils.RuntimeContext) error {
	if err := m.Type().Check(); err != nil {
		return err
	}
	rt = utils.OrDefault(rt)
	if size < int64(len(Magic)) {
		return fmt.Errorf("%w: %v bytes", ErrTruncated, size)
	}
	var magic [3]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil && err != io.EOF {
		return pfx.Err(err)
	}
	if !bytes.Equal(magic[:], Magic[:]) {
		log.Printf("Warning: unexpected bed magic number %x.", magic)
	}
	body := int64(m.Rows()) * int64(RowBytes(m.Cols()))
	switch available := size - int64(len(Magic)); {
	case available < body:
		return fmt.Errorf("%w: %v rows of %v samples need %v bytes, but only %v are available", ErrTruncated, m.Rows(), m.Cols(), body, available)
	case available > body:
		log.Printf("Warning: ignoring %v trailing bytes in bed file.", available-body)
	}
	workers := rt.WorkerCount(threads)
	switch m.Type() {
	case matrix.Char:
		return readTyped[int8](r, m, maxLines, workers, rt)
	case matrix.Short:
		return readTyped[int16](r, m, maxLines, workers, rt)
	case matrix.Integer:
		return readTyped[int32](r, m, maxLines, workers, rt)
	default:
		return readTyped[float64](r, m, maxLines, workers, rt)
	}
}

func readTyped[T matrix.Element](r io.ReaderAt, m matrix.Matrix, maxLines, workers int, rt utils.RuntimeContext) error {
	typed, err := matrix.As[T](m)
	if err != nil {
		return err
	}
	return readBed(r, typed, maxLines, workers, rt)
}
