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
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/carbocation/pfx"

	"github.com/exascience/elgeno/genotype"
	"github.com/exascience/elgeno/matrix"
	"github.com/exascience/elgeno/stats"
)

// CountAllelesHelp is the help string for this command.
const CountAllelesHelp = "count-alleles parameters:\n" +
	"elgeno count-alleles matrix-prefix row\n" +
	"[--index path]\n" +
	"[--log-path path]\n"

// HasMissingHelp is the help string for this command.
const HasMissingHelp = "has-missing parameters:\n" +
	"elgeno has-missing matrix-prefix\n" +
	"[--list]\n" +
	"[--nthreads nr]\n" +
	"[--timed]\n" +
	"[--log-path path]\n"

func attachMatrix(prefix string, f func(m *matrix.Mapped) error) (err error) {
	descriptor, _, _ := matrixFilenames(prefix)
	m, err := matrix.Attach(descriptor)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := m.Close(); err == nil {
			err = nerr
		}
	}()
	return f(m)
}

// CountAlleles implements the elgeno count-alleles command. It prints
// the number of 0, 1, and 2 codes of a row, numbered from 1. With
// --index, the row is given as a variant id and looked up in the
// variant index.
func CountAlleles() error {
	var logPath, indexPath string

	var flags flag.FlagSet
	flags.StringVar(&indexPath, "index", "", "look up the row as a variant id in this index")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, CountAllelesHelp)

	input := getFilename(os.Args[2], CountAllelesHelp)
	descriptor, _, _ := matrixFilenames(input)
	if !checkExist("", descriptor) || (indexPath != "" && !checkExist("--index", indexPath)) {
		fmt.Fprint(os.Stderr, CountAllelesHelp)
		os.Exit(1)
	}
	row, err := resolveRow(os.Args[3], indexPath)
	if err != nil {
		return err
	}
	if row < 1 {
		fmt.Fprintln(os.Stderr, "Invalid row", os.Args[3])
		fmt.Fprint(os.Stderr, CountAllelesHelp)
		os.Exit(1)
	}

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	return attachMatrix(input, func(m *matrix.Mapped) error {
		counts, err := stats.CountAlleleCodes(m, row)
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%v\t%v\t%v\n", counts.Count0, counts.Count1, counts.Count2)
		return pfx.Err(err)
	})
}

// resolveRow returns the 1-based row named by arg, or 0 if arg does
// not name a row. Without an index, arg is a row number; with an
// index, it is a variant id.
func resolveRow(arg, indexPath string) (int, error) {
	if indexPath == "" {
		row, err := strconv.Atoi(arg)
		if err != nil {
			return 0, nil
		}
		return row, nil
	}
	row, err := genotype.LookupVariant(indexPath, arg)
	if err != nil {
		return 0, err
	}
	return row + 1, nil
}

// HasMissing implements the elgeno has-missing command. It prints true
// or false, or with --list, the rows holding missing values.
func HasMissing() error {
	var (
		common commonFlags
		list   bool
	)

	var flags flag.FlagSet
	common.register(&flags)
	flags.BoolVar(&list, "list", false, "list the rows holding missing values")
	parseFlags(flags, 3, HasMissingHelp)

	input := getFilename(os.Args[2], HasMissingHelp)
	descriptor, _, _ := matrixFilenames(input)
	if !checkExist("", descriptor) {
		fmt.Fprint(os.Stderr, HasMissingHelp)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Scanning "+descriptor+".", func() error {
		return attachMatrix(input, func(m *matrix.Mapped) error {
			if !list {
				missing, err := stats.HasMissing(m, common.nrOfThreads)
				if err != nil {
					return err
				}
				_, err = fmt.Println(missing)
				return pfx.Err(err)
			}
			rows, err := stats.MissingVariants(m, common.nrOfThreads)
			if err != nil {
				return err
			}
			out := bufio.NewWriter(os.Stdout)
			for row, ok := rows.NextSet(0); ok; row, ok = rows.NextSet(row + 1) {
				fmt.Fprintln(out, row+1)
			}
			return pfx.Err(out.Flush())
		})
	})
}
