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

// Package genotype reads variant files in VCF, HapMap, and numeric
// table formats. It extracts variant annotations and sample lists, and
// ingests genotype calls as dosage codes into a genotype matrix.
package genotype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformedHeader is returned when a file lacks its header line.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrDimensionMismatch is returned when a file holds more variant
	// lines than the target matrix has rows.
	ErrDimensionMismatch = errors.New("matrix dimensions do not match the input")
)

// Format identifies an input grammar.
type Format int

// The supported formats.
const (
	VCF Format = iota
	HapMap
	Numeric
)

const (
	vcfFixedColumns    = 9
	hapmapFixedColumns = 11
)

func (f Format) String() string {
	switch f {
	case VCF:
		return "VCF"
	case HapMap:
		return "HapMap"
	case Numeric:
		return "numeric"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// HeaderPrefix returns the prefix of the header line, which is empty
// for numeric tables.
func (f Format) HeaderPrefix() string {
	switch f {
	case VCF:
		return "#CHROM"
	case HapMap:
		return "rs#"
	default:
		return ""
	}
}

// FixedColumns returns the number of columns that precede the sample
// columns.
func (f Format) FixedColumns() int {
	switch f {
	case VCF:
		return vcfFixedColumns
	case HapMap:
		return hapmapFixedColumns
	default:
		return 0
	}
}

// getLine reads the next line without its line terminator. It returns
// io.EOF only when no more data is available.
func getLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
		line = line[:len(line)-1]
	case err == io.EOF:
		if line == "" {
			return "", io.EOF
		}
		err = nil
	default:
		return "", err
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, err
}

// FindHeader skips lines until it finds the header line of the given
// format, and returns it. The header must appear before the end of the
// stream, otherwise ErrMalformedHeader is returned.
func FindHeader(reader *bufio.Reader, f Format) (string, error) {
	prefix := f.HeaderPrefix()
	if prefix == "" {
		return "", fmt.Errorf("%v files have no header line", f)
	}
	for {
		line, err := getLine(reader)
		if err == io.EOF {
			return "", fmt.Errorf("%w: no line begins with %q in %v file", ErrMalformedHeader, prefix, f)
		} else if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

// SampleIDs returns the sample identifiers of a header line.
func SampleIDs(header string, f Format) []string {
	var sc StringScanner
	sc.Reset(header)
	if sc.SkipFields(f.FixedColumns()) < f.FixedColumns() {
		return nil
	}
	var samples []string
	for sc.Len() > 0 {
		samples = append(samples, sc.ReadField())
	}
	return samples
}

// isDataLine reports whether a line holds a variant. VCF and HapMap
// lines of at most one character are stray whitespace and are skipped.
func (f Format) isDataLine(line string) bool {
	if f == Numeric {
		return line != ""
	}
	return len(line) > 1
}

// readBatch reads up to maxLines data lines, or all remaining lines
// when maxLines <= 0.
func readBatch(reader *bufio.Reader, f Format, maxLines int) (batch []string, err error) {
	for maxLines <= 0 || len(batch) < maxLines {
		line, err := getLine(reader)
		if err == io.EOF {
			return batch, nil
		} else if err != nil {
			return nil, err
		}
		if f.isDataLine(line) {
			batch = append(batch, line)
		}
	}
	return batch, nil
}

func bufferedReader(r io.Reader) *bufio.Reader {
	if reader, ok := r.(*bufio.Reader); ok {
		return reader
	}
	return bufio.NewReaderSize(r, 1<<20)
}
