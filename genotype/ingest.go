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

import (
	"bufio"
	"fmt"
	"io"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elgeno/dosage"
	"github.com/exascience/elgeno/matrix"
	"github.com/exascience/elgeno/utils"
)

// lineParser stores the dosage codes of one data line in the given row.
type lineParser[T matrix.Element] func(sc *StringScanner, row int, m matrix.Typed[T], missing T)

func fillMissing[T matrix.Element](m matrix.Typed[T], row, col int, missing T) {
	for cols := m.Cols(); col < cols; col++ {
		m.Set(row, col, missing)
	}
}

func parseVCFLine[T matrix.Element](sc *StringScanner, row int, m matrix.Typed[T], missing T) {
	sc.SkipFields(vcfFixedColumns)
	col, cols := 0, m.Cols()
	for ; col < cols && sc.Len() > 0; col++ {
		m.Set(row, col, matrix.FromCode(dosage.ParseVCFToken(sc.ReadField()), missing))
	}
	fillMissing(m, row, col, missing)
}

func parseHapMapLine[T matrix.Element](sc *StringScanner, row int, m matrix.Typed[T], missing T) {
	sc.SkipFields(1)
	major := dosage.MajorAllele(sc.ReadField())
	sc.SkipFields(hapmapFixedColumns - 2)
	col, cols := 0, m.Cols()
	for ; col < cols && sc.Len() > 0; col++ {
		m.Set(row, col, matrix.FromCode(dosage.ParseHaplotypeCall(sc.ReadField(), major), missing))
	}
	fillMissing(m, row, col, missing)
}

func numericParser[T matrix.Element](delimiter byte) lineParser[T] {
	return func(sc *StringScanner, row int, m matrix.Typed[T], missing T) {
		if delimiter == ' ' {
			sc.SkipSpace()
		}
		col, cols := 0, m.Cols()
		for ; col < cols && sc.Len() > 0; col++ {
			m.Set(row, col, matrix.FromCode(dosage.ParseNumeric(sc.ReadToken(delimiter)), missing))
		}
		fillMissing(m, row, col, missing)
	}
}

func parserFor[T matrix.Element](f Format, delimiter byte) lineParser[T] {
	switch f {
	case VCF:
		return parseVCFLine[T]
	case HapMap:
		return parseHapMapLine[T]
	default:
		return numericParser[T](delimiter)
	}
}

// ingest reads batches of at most maxLines lines, and parses the lines
// of each batch in parallel. Line i of a batch starting at base is
// stored in row base+i, so the result does not depend on the number of
// workers.
func ingest[T matrix.Element](reader *bufio.Reader, m matrix.Matrix, f Format, maxLines, threads int, rt utils.RuntimeContext, parse lineParser[T]) error {
	typed, err := matrix.As[T](m)
	if err != nil {
		return err
	}
	workers := rt.WorkerCount(threads)
	missing := matrix.Missing[T]()
	rows := typed.Rows()
	for base := 0; ; {
		batch, err := readBatch(reader, f, maxLines)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if base+len(batch) > rows {
			return fmt.Errorf("%w: more than %v variant lines", ErrDimensionMismatch, rows)
		}
		batchBase := base
		parallel.Range(0, len(batch), workers, func(low, high int) {
			var sc StringScanner
			for i := low; i < high; i++ {
				sc.Reset(batch[i])
				parse(&sc, batchBase+i, typed, missing)
				rt.OnProgress(1)
			}
		})
		base += len(batch)
	}
}

func ingestAny(reader *bufio.Reader, m matrix.Matrix, f Format, delimiter byte, maxLines, threads int, rt utils.RuntimeContext) error {
	rt = utils.OrDefault(rt)
	switch m.Type() {
	case matrix.Char:
		return ingest(reader, m, f, maxLines, threads, rt, parserFor[int8](f, delimiter))
	case matrix.Short:
		return ingest(reader, m, f, maxLines, threads, rt, parserFor[int16](f, delimiter))
	case matrix.Integer:
		return ingest(reader, m, f, maxLines, threads, rt, parserFor[int32](f, delimiter))
	case matrix.Double:
		return ingest(reader, m, f, maxLines, threads, rt, parserFor[float64](f, delimiter))
	default:
		return m.Type().Check()
	}
}

func ingestWithHeader(r io.Reader, m matrix.Matrix, f Format, maxLines, threads int, rt utils.RuntimeContext) error {
	if err := m.Type().Check(); err != nil {
		return err
	}
	reader := bufferedReader(r)
	if _, err := FindHeader(reader, f); err != nil {
		return err
	}
	return ingestAny(reader, m, f, 0, maxLines, threads, rt)
}

// IngestVCF stores the genotype calls of a VCF stream in m, one row
// per variant line and one column per sample. At most maxLines lines
// are held in memory at a time; maxLines <= 0 reads the whole file in
// one batch.
func IngestVCF(r io.Reader, m matrix.Matrix, maxLines, threads int, rt utils.RuntimeContext) error {
	return ingestWithHeader(r, m, VCF, maxLines, threads, rt)
}

// IngestHapMap stores the genotype calls of a HapMap stream in m, one
// row per variant line and one column per sample. The major allele of
// each line is derived from its alleles field.
func IngestHapMap(r io.Reader, m matrix.Matrix, maxLines, threads int, rt utils.RuntimeContext) error {
	return ingestWithHeader(r, m, HapMap, maxLines, threads, rt)
}

// IngestNumeric stores a numeric table of 0/1/2 dosages in m, one row
// per line and one column per field. The table has no header.
func IngestNumeric(r io.Reader, m matrix.Matrix, delimiter byte, maxLines, threads int, rt utils.RuntimeContext) error {
	if err := m.Type().Check(); err != nil {
		return err
	}
	return ingestAny(bufferedReader(r), m, Numeric, delimiter, maxLines, threads, rt)
}
