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

	"github.com/carbocation/pfx"

	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/matrix"
)

// MatrixToNpyHelp is the help string for this command.
const MatrixToNpyHelp = "matrix-to-npy parameters:\n" +
	"elgeno matrix-to-npy matrix-prefix npy-file\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// MatrixToNpy implements the elgeno matrix-to-npy command.
func MatrixToNpy() error {
	var common commonFlags

	var flags flag.FlagSet
	common.register(&flags)
	parseFlags(flags, 4, MatrixToNpyHelp)

	input := getFilename(os.Args[2], MatrixToNpyHelp)
	output := getFilename(os.Args[3], MatrixToNpyHelp)

	descriptor, _, _ := matrixFilenames(input)
	if !checkExist("", descriptor) || !checkCreate("", output) {
		fmt.Fprint(os.Stderr, MatrixToNpyHelp)
		os.Exit(1)
	}

	if err := setLogOutput(common.logPath); err != nil {
		return err
	}

	return timedRun(common.timed, common.profile, "Writing "+output+".", func() error {
		return attachMatrix(input, func(m *matrix.Mapped) (err error) {
			file, err := os.Create(output)
			if err != nil {
				return pfx.Err(err)
			}
			defer internal.RemoveOnError(&err, output)
			defer func() {
				if nerr := file.Close(); err == nil && nerr != nil {
					err = pfx.Err(nerr)
				}
			}()
			out := bufio.NewWriterSize(file, 1<<20)
			if err = matrix.WriteNpy(out, m); err != nil {
				return err
			}
			return pfx.Err(out.Flush())
		})
	})
}
