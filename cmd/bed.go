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
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/carbocation/pfx"

	"github.com/exascience/elgeno/bfile"
	"github.com/exascience/elgeno/genotype"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/matrix"
)

// MatrixToBedHelp is the help string for this command.
const MatrixToBedHelp = "matrix-to-bed parameters:\n" +
	"elgeno matrix-to-bed matrix-prefix bed-prefix\n" +
	"[--map map-file]\n" +
	"[--ind sample-file]\n" +
	"[--index sqlite-file]\n" +
	"[--nthreads nr]\n" +
	"[--verbose]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// BedToMatrixHelp is the help string for this command.
const BedToMatrixHelp = "bed-to-matrix parameters:\n" +
	"elgeno bed-to-matrix bed-prefix matrix-prefix\n" +
	genotypeToMatrixFlags

func readSideCar[T any](filename string, read func(*os.File) (T, error)) (result T, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return result, pfx.Err(err)
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			err = pfx.Err(nerr)
		}
	}()
	return read(file)
}

// annotations returns the variants and samples of a matrix, from a
// SQLite index if given, and otherwise from its side-cars.
func annotations(mapFile, indFile, index string) (variants []genotype.Variant, samples []string, err error) {
	if index != "" {
		samples, variants, err = genotype.ReadIndex(index)
		return variants, samples, err
	}
	variants, err = readSideCar(mapFile, func(f *os.File) ([]genotype.Variant, error) {
		return genotype.ReadMap(f)
	})
	if err != nil {
		return nil, nil, err
	}
	samples, err = readSideCar(indFile, func(f *os.File) ([]string, error) {
		return genotype.ReadSamples(f)
	})
	return variants, samples, err
}

func writePlinkSideCars(output string, variants []genotype.Variant, samples []string) (err error) {
	_, bim, fam := bfile.Filenames(output)
	defer internal.RemoveOnError(&err, bim, fam)
	write := func(filename string, f func(*os.File) error) (err error) {
		file, err := os.Create(filename)
		if err != nil {
			return pfx.Err(err)
		}
		defer func() {
			if nerr := file.Close(); err == nil && nerr != nil {
				err = pfx.Err(nerr)
			}
		}()
		return f(file)
	}
	if err = write(bim, func(file *os.File) error { return bfile.WriteBim(file, variants) }); err != nil {
		return err
	}
	return write(fam, func(file *os.File) error { return bfile.WriteFam(file, samples) })
}

// MatrixToBed implements the elgeno matrix-to-bed command.
func MatrixToBed() error {
	var (
		common           commonFlags
		mapFile, indFile string
		index            string
	)

	var flags flag.FlagSet
	common.register(&flags)
	flags.StringVar(&mapFile, "map", "", "map side-car of the matrix")
	flags.StringVar(&indFile, "ind", "", "sample-list side-car of the matrix")
	flags.StringVar(&index, "index", "", "SQLite variant index of the matrix")
	parseFlags(flags, 4, MatrixToBedHelp)

	input := getFilename(os.Args[2], MatrixToBedHelp)
	output := getFilename(os.Args[3], MatrixToBedHelp)

	descriptor, defaultMap, defaultInd := matrixFilenames(input)
	if mapFile == "" {
		mapFile = defaultMap
	}
	if indFile == "" {
		indFile = defaultInd
	}
	bed, _, _ := bfile.Filenames(output)
	if !checkExist("", descriptor) || !checkCreate("", bed) ||
		(index != "" && !checkExist("--index", index)) {
		fmt.Fprint(os.Stderr, MatrixToBedHelp)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Writing "+bed+".", func() (err error) {
		m, err := matrix.Attach(descriptor)
		if err != nil {
			return err
		}
		defer func() {
			if nerr := m.Close(); err == nil {
				err = nerr
			}
		}()
		variants, samples, err := annotations(mapFile, indFile, index)
		if err != nil {
			log.Println("Warning: No variant annotations found, .bim and .fam files are not written:", err)
			variants, samples = nil, nil
		} else if len(variants) != m.Rows() || len(samples) != m.Cols() {
			return fmt.Errorf("%w: %v variants and %v samples for a %v x %v matrix", genotype.ErrDimensionMismatch, len(variants), len(samples), m.Rows(), m.Cols())
		}
		if err = bfile.WriteBedFile(m, bed, common.nrOfThreads, common.newRuntime(m.Rows(), "Packed ")); err != nil {
			return err
		}
		if variants == nil && samples == nil {
			return nil
		}
		return writePlinkSideCars(output, variants, samples)
	})
}

// BedToMatrix implements the elgeno bed-to-matrix command.
func BedToMatrix() error {
	var (
		common      commonFlags
		elementType string
		maxLines    int
	)

	var flags flag.FlagSet
	common.register(&flags)
	flags.StringVar(&elementType, "type", "char", "element type of the output matrix")
	flags.IntVar(&maxLines, "max-lines", 0, "maximum number of rows decoded in one block")
	parseFlags(flags, 4, BedToMatrixHelp)

	input := getFilename(os.Args[2], BedToMatrixHelp)
	output := getFilename(os.Args[3], BedToMatrixHelp)

	t, ok := parseElementType(elementType)
	bed, bim, fam := bfile.Filenames(input)
	descriptor, mapFile, indFile := matrixFilenames(output)
	if !ok || !checkExist("", bed) || !checkExist("", bim) || !checkExist("", fam) || !checkCreate("", descriptor) {
		fmt.Fprint(os.Stderr, BedToMatrixHelp)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Reading "+bed+".", func() (err error) {
		variants, err := bfile.ReadBimFile(bim)
		if err != nil {
			return err
		}
		samples, err := bfile.ReadFamFile(fam)
		if err != nil {
			return err
		}
		log.Printf("Found %v variants of %v samples.\n", len(variants), len(samples))
		err = createMatrix(t, len(variants), len(samples), output, func(m *matrix.Mapped) error {
			return bfile.ReadBedFile(bed, m, maxLines, common.nrOfThreads, common.newRuntime(len(variants), "Unpacked "))
		})
		if err != nil {
			return err
		}
		return writeMapSideCars(mapFile, indFile, variants, samples)
	})
}

func writeMapSideCars(mapFile, indFile string, variants []genotype.Variant, samples []string) (err error) {
	defer internal.RemoveOnError(&err, mapFile, indFile)
	mapOut, err := os.Create(mapFile)
	if err != nil {
		return pfx.Err(err)
	}
	indOut, err := os.Create(indFile)
	if err != nil {
		_ = mapOut.Close()
		return pfx.Err(err)
	}
	sink := genotype.NewTSVSink(mapOut, indOut)
	err = sink.WriteSamples(samples)
	for i := 0; err == nil && i < len(variants); i++ {
		err = sink.WriteVariant(variants[i])
	}
	if nerr := sink.Close(); err == nil {
		err = nerr
	}
	if nerr := mapOut.Close(); err == nil && nerr != nil {
		err = pfx.Err(nerr)
	}
	if nerr := indOut.Close(); err == nil && nerr != nil {
		err = pfx.Err(nerr)
	}
	return err
}
