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

// elgeno is a tool for converting genotype files into memory-mapped
// genotype matrices, and between such matrices and PLINK .bed files.
//
// Please see https://github.com/exascience/elgeno for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elgeno/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: vcf-to-matrix, hapmap-to-matrix, numeric-to-matrix, matrix-to-bed, bed-to-matrix, matrix-to-npy, count-alleles, has-missing")
	fmt.Fprint(os.Stderr, "\n", cmd.VcfToMatrixHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.HapmapToMatrixHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.NumericToMatrixHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.MatrixToBedHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BedToMatrixHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.MatrixToNpyHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.CountAllelesHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.HasMissingHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "vcf-to-matrix":
		err = cmd.VcfToMatrix()
	case "hapmap-to-matrix":
		err = cmd.HapmapToMatrix()
	case "numeric-to-matrix":
		err = cmd.NumericToMatrix()
	case "matrix-to-bed":
		err = cmd.MatrixToBed()
	case "bed-to-matrix":
		err = cmd.BedToMatrix()
	case "matrix-to-npy":
		err = cmd.MatrixToNpy()
	case "count-alleles":
		err = cmd.CountAlleles()
	case "has-missing":
		err = cmd.HasMissing()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
