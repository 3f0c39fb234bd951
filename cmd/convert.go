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

package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/exascience/elgeno/genotype"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/matrix"
)

const numericSampleSize = 1 << 16

func matrixFilenames(prefix string) (descriptor, mapFile, indFile string) {
	mapFile, indFile = genotype.MapFilenames(prefix)
	return prefix + ".desc", mapFile, indFile
}

// createMatrix creates the file-backed matrix of an output prefix, and
// passes it to f. The matrix files are removed when f fails.
func createMatrix(t matrix.ElementType, rows, cols int, output string, f func(m *matrix.Mapped) error) (err error) {
	descriptor, _, _ := matrixFilenames(output)
	m, err := matrix.Create(t, rows, cols, "", descriptor)
	if err != nil {
		return err
	}
	defer internal.RemoveOnError(&err, descriptor, m.Descriptor.BackingFile)
	defer func() {
		if nerr := m.Close(); err == nil {
			err = nerr
		}
	}()
	if err = f(m); err != nil {
		return err
	}
	return m.Flush()
}

func ingestFile(ctx context.Context, input string, threads int, f func(r io.Reader) error) (err error) {
	in, err := internal.OpenInput(ctx, input, threads)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := in.Close(); err == nil {
			err = nerr
		}
	}()
	return f(in)
}

const genotypeToMatrixFlags = "[--type char|short|integer|double]\n" +
	"[--max-lines nr]\n" +
	"[--nthreads nr]\n" +
	"[--verbose]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// VcfToMatrixHelp is the help string for this command.
const VcfToMatrixHelp = "vcf-to-matrix parameters:\n" +
	"elgeno vcf-to-matrix vcf-file output-prefix\n" +
	"[--index sqlite-file]\n" +
	genotypeToMatrixFlags

// HapmapToMatrixHelp is the help string for this command.
const HapmapToMatrixHelp = "hapmap-to-matrix parameters:\n" +
	"elgeno hapmap-to-matrix hapmap-file output-prefix\n" +
	"[--index sqlite-file]\n" +
	genotypeToMatrixFlags

// NumericToMatrixHelp is the help string for this command.
const NumericToMatrixHelp = "numeric-to-matrix parameters:\n" +
	"elgeno numeric-to-matrix numeric-file output-prefix\n" +
	"[--delimiter tab|space|comma|char]\n" +
	genotypeToMatrixFlags

// VcfToMatrix implements the elgeno vcf-to-matrix command.
func VcfToMatrix() error {
	return genotypeToMatrix(genotype.VCF, VcfToMatrixHelp)
}

// HapmapToMatrix implements the elgeno hapmap-to-matrix command.
func HapmapToMatrix() error {
	return genotypeToMatrix(genotype.HapMap, HapmapToMatrixHelp)
}

func genotypeToMatrix(f genotype.Format, help string) error {
	var (
		common      commonFlags
		elementType string
		maxLines    int
		index       string
	)

	var flags flag.FlagSet
	common.register(&flags)
	flags.StringVar(&elementType, "type", "char", "element type of the output matrix")
	flags.IntVar(&maxLines, "max-lines", 0, "maximum number of lines processed in one batch")
	flags.StringVar(&index, "index", "", "write a SQLite variant index")
	parseFlags(flags, 4, help)

	input := getFilename(os.Args[2], help)
	output := getFilename(os.Args[3], help)

	t, ok := parseElementType(elementType)
	descriptor, _, _ := matrixFilenames(output)
	if !ok || !checkExist("", input) || !checkCreate("", descriptor) ||
		(index != "" && !checkCreate("--index", index)) {
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Converting "+input+".", func() (err error) {
		ctx := context.Background()
		info, err := genotype.ExtractMapFiles(ctx, input, output, f, index, common.nrOfThreads)
		if err != nil {
			return err
		}
		log.Printf("Found %v variants of %v samples.\n", info.Variants, len(info.Samples))
		_, mapFile, indFile := matrixFilenames(output)
		defer internal.RemoveOnError(&err, mapFile, indFile)
		rt := common.newRuntime(info.Variants, "Ingested ")
		return createMatrix(t, info.Variants, len(info.Samples), output, func(m *matrix.Mapped) error {
			return ingestFile(ctx, input, common.nrOfThreads, func(r io.Reader) error {
				if f == genotype.VCF {
					return genotype.IngestVCF(r, m, maxLines, common.nrOfThreads, rt)
				}
				return genotype.IngestHapMap(r, m, maxLines, common.nrOfThreads, rt)
			})
		})
	})
}

func parseDelimiter(s string) (byte, bool) {
	switch s {
	case "":
		return 0, true
	case "tab", "\\t":
		return '\t', true
	case "space":
		return ' ', true
	case "comma":
		return ',', true
	}
	if len(s) == 1 && s[0] != '\n' && s[0] != '\r' {
		return s[0], true
	}
	log.Printf("Error: Invalid delimiter %q.\n", s)
	return 0, false
}

// scanNumericFile determines the delimiter, if not given, and the
// dimensions of a numeric table.
func scanNumericFile(ctx context.Context, input string, delimiter byte, threads int) (d byte, cols, rows int, err error) {
	err = ingestFile(ctx, input, threads, func(r io.Reader) error {
		sample := make([]byte, numericSampleSize)
		n, err := io.ReadFull(r, sample)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return err
		}
		sample = sample[:n]
		d = delimiter
		if d == 0 {
			lines := sample
			if i := bytes.LastIndexByte(lines, '\n'); i >= 0 {
				lines = lines[:i+1]
			}
			d = genotype.DetectDelimiter(lines)
			log.Printf("Detected delimiter %q.\n", d)
		}
		cols, rows, err = genotype.ScanNumeric(io.MultiReader(bytes.NewReader(sample), r), d)
		return err
	})
	return d, cols, rows, err
}

// NumericToMatrix implements the elgeno numeric-to-matrix command.
func NumericToMatrix() error {
	var (
		common      commonFlags
		elementType string
		maxLines    int
		delimiter   string
	)

	var flags flag.FlagSet
	common.register(&flags)
	flags.StringVar(&elementType, "type", "char", "element type of the output matrix")
	flags.IntVar(&maxLines, "max-lines", 0, "maximum number of lines processed in one batch")
	flags.StringVar(&delimiter, "delimiter", "", "field delimiter, detected when absent")
	parseFlags(flags, 4, NumericToMatrixHelp)

	input := getFilename(os.Args[2], NumericToMatrixHelp)
	output := getFilename(os.Args[3], NumericToMatrixHelp)

	t, ok := parseElementType(elementType)
	d, dok := parseDelimiter(delimiter)
	descriptor, _, _ := matrixFilenames(output)
	if !ok || !dok || !checkExist("", input) || !checkCreate("", descriptor) {
		fmt.Fprint(os.Stderr, NumericToMatrixHelp)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Converting "+input+".", func() error {
		ctx := context.Background()
		delim, cols, rows, err := scanNumericFile(ctx, input, d, common.nrOfThreads)
		if err != nil {
			return err
		}
		log.Printf("Found %v variants of %v samples.\n", rows, cols)
		rt := common.newRuntime(rows, "Ingested ")
		return createMatrix(t, rows, cols, output, func(m *matrix.Mapped) error {
			return ingestFile(ctx, input, common.nrOfThreads, func(r io.Reader) error {
				return genotype.IngestNumeric(r, m, delim, maxLines, common.nrOfThreads, rt)
			})
		})
	})
}
