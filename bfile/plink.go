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

package bfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/exascience/elgeno/genotype"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/matrix"
	"github.com/exascience/elgeno/utils"
)

// Columns of a .bim line.
const (
	bimChromosome = iota
	bimVariantID
	bimMorgans
	bimCoordinate
	bimAllele1
	bimAllele2
)

// Columns of a .fam line.
const (
	famFamilyID = iota
	famSampleID
	famFather
	famMother
	famSex
	famPhenotype
)

// Filenames returns the names of the .bed, .bim, and .fam files of a
// PLINK fileset prefix. A trailing .bed extension is ignored.
func Filenames(prefix string) (bed, bim, fam string) {
	prefix = strings.TrimSuffix(prefix, ".bed")
	return prefix + ".bed", prefix + ".bim", prefix + ".fam"
}

// WriteFam writes one .fam line per sample. Each sample is its own
// family, with unknown parents, sex, and phenotype.
func WriteFam(w io.Writer, samples []string) error {
	out := bufio.NewWriter(w)
	for _, sample := range samples {
		if _, err := fmt.Fprintf(out, "%v\t%v\t0\t0\t0\t-9\n", sample, sample); err != nil {
			return pfx.Err(err)
		}
	}
	return pfx.Err(out.Flush())
}

// WriteBim writes one .bim line per variant. Alleles are unknown, and
// are written as 0.
func WriteBim(w io.Writer, variants []genotype.Variant) error {
	out := bufio.NewWriter(w)
	for _, v := range variants {
		chrom, pos := v.Chrom, v.Pos
		if chrom == "" {
			chrom = "0"
		}
		if pos == "" {
			pos = "0"
		}
		if _, err := fmt.Fprintf(out, "%v\t%v\t0\t%v\t0\t0\n", chrom, v.ID, pos); err != nil {
			return pfx.Err(err)
		}
	}
	return pfx.Err(out.Flush())
}

func readFields(r io.Reader, minFields int, line func(fields []string)) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < minFields {
			return fmt.Errorf("line %v has %v fields, expected %v", n, len(fields), minFields)
		}
		line(fields)
	}
	return pfx.Err(scanner.Err())
}

// ReadFam returns the sample ids of a .fam file.
func ReadFam(r io.Reader) (samples []string, err error) {
	err = readFields(r, famPhenotype+1, func(fields []string) {
		samples = append(samples, fields[famSampleID])
	})
	return samples, err
}

// ReadBim returns the variants of a .bim file.
func ReadBim(r io.Reader) (variants []genotype.Variant, err error) {
	err = readFields(r, bimAllele2+1, func(fields []string) {
		variants = append(variants, genotype.Variant{
			ID:    fields[bimVariantID],
			Chrom: fields[bimChromosome],
			Pos:   fields[bimCoordinate],
		})
	})
	return variants, err
}

func readFile[T any](filename string, read func(io.Reader) (T, error)) (result T, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return result, pfx.Err(err)
	}
	defer func() {
		if nerr := file.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
	}()
	return read(file)
}

// ReadFamFile returns the sample ids of the named .fam file.
func ReadFamFile(filename string) ([]string, error) {
	return readFile(filename, ReadFam)
}

// ReadBimFile returns the variants of the named .bim file.
func ReadBimFile(filename string) ([]genotype.Variant, error) {
	return readFile(filename, ReadBim)
}

// WriteBedFile writes m to the named .bed file, appending the .bed
// extension when it is missing. The file is removed when writing fails.
func WriteBedFile(m matrix.Matrix, filename string, threads int, rt utils.RuntimeContext) (err error) {
	filename, _, _ = Filenames(filename)
	file, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer internal.RemoveOnError(&err, filename)
	defer func() {
		if nerr := file.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
	}()
	out := bufio.NewWriterSize(file, 1<<20)
	if err = WriteBed(out, m, threads, rt); err != nil {
		return err
	}
	return pfx.Err(out.Flush())
}

// ReadBedFile decodes the named .bed file into m, appending the .bed
// extension when it is missing.
func ReadBedFile(filename string, m matrix.Matrix, maxLines, threads int, rt utils.RuntimeContext) (err error) {
	filename, _, _ = Filenames(filename)
	file, err := os.Open(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if nerr := file.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
	}()
	info, err := file.Stat()
	if err != nil {
		return pfx.Err(err)
	}
	return ReadBed(file, info.Size(), m, maxLines, threads, rt)
}
