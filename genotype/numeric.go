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
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetectDelimiter returns the most likely field delimiter of a sample
// of a numeric table. It returns a tab when no candidate is found.
func DetectDelimiter(sample []byte) byte {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')
	if len(delimiters) > 0 && len(delimiters[0]) == 1 {
		return delimiters[0][0]
	}
	if bytes.IndexByte(sample, '\t') < 0 && bytes.IndexByte(sample, ' ') >= 0 {
		return ' '
	}
	return '\t'
}

// ScanNumeric returns the dimensions of a numeric table: the number of
// fields on its first non-empty line, and the number of non-empty
// lines.
func ScanNumeric(r io.Reader, delimiter byte) (cols, rows int, err error) {
	reader := bufferedReader(r)
	var sc StringScanner
	for {
		line, err := getLine(reader)
		if err == io.EOF {
			return cols, rows, nil
		} else if err != nil {
			return 0, 0, err
		}
		if line == "" {
			continue
		}
		if rows == 0 {
			sc.Reset(line)
			if delimiter == ' ' {
				sc.SkipSpace()
			}
			for sc.Len() > 0 {
				sc.ReadToken(delimiter)
				cols++
			}
		}
		rows++
	}
}
