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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/utils"
)

// Variant is the annotation of one variant line.
type Variant struct {
	ID, Chrom, Pos string
}

// MapInfo summarizes a map extraction.
type MapInfo struct {
	Samples  []string
	Variants int
}

// MapSink receives the sample list and the variants of a file, in file
// order.
type MapSink interface {
	WriteSamples(samples []string) error
	WriteVariant(v Variant) error
	Close() error
}

// parseVariant extracts the annotation from a data line. Only the
// leading fields are scanned. Absent fields are left empty, and an
// unspecified id defaults to chrom-pos.
func (f Format) parseVariant(sc *StringScanner) (v Variant) {
	switch f {
	case VCF:
		v.Chrom = sc.ReadField()
		v.Pos = sc.ReadField()
		v.ID = sc.ReadField()
	case HapMap:
		v.ID = sc.ReadField()
		sc.SkipFields(1)
		v.Chrom = sc.ReadField()
		v.Pos = sc.ReadField()
	}
	if v.ID == "." || v.ID == "" {
		v.ID = v.Chrom + "-" + v.Pos
	}
	return v
}

const defaultLineBatchSize = 1024

// lineSource is a pipeline.Source of batches of lines.
type lineSource struct {
	reader *bufio.Reader
	data   []string
	err    error
}

// Err implements the corresponding method of pipeline.Source
func (src *lineSource) Err() error {
	if src.err != io.EOF {
		return src.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source
func (src *lineSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *lineSource) Fetch(size int) (fetched int) {
	if src.err != nil {
		return 0
	}
	if size <= 0 {
		size = defaultLineBatchSize
	}
	data := make([]string, 0, size)
	for fetched < size {
		line, err := getLine(src.reader)
		if err != nil {
			src.err = err
			break
		}
		data = append(data, line)
		fetched++
	}
	src.data = data
	return fetched
}

// Data implements the corresponding method of pipeline.Source
func (src *lineSource) Data() interface{} {
	return src.data
}

// ExtractMap locates the header of a VCF or HapMap stream, passes the
// sample list to the sink, and then passes one Variant per non-empty
// data line, in file order. Lines are parsed by up to threads workers;
// threads <= 0 uses all available cores.
func ExtractMap(r io.Reader, f Format, sink MapSink, threads int) (*MapInfo, error) {
	if f != VCF && f != HapMap {
		return nil, fmt.Errorf("%v files carry no variant annotations", f)
	}
	reader := bufferedReader(r)
	header, err := FindHeader(reader, f)
	if err != nil {
		return nil, err
	}
	info := &MapInfo{Samples: SampleIDs(header, f)}
	if err = sink.WriteSamples(info.Samples); err != nil {
		return nil, err
	}
	var p pipeline.Pipeline
	p.Source(&lineSource{reader: reader})
	p.Add(pipeline.LimitedPar(utils.DefaultWorkerCount(threads), pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines := data.([]string)
		variants := make([]Variant, 0, len(lines))
		var sc StringScanner
		for _, line := range lines {
			if !f.isDataLine(line) {
				continue
			}
			sc.Reset(line)
			variants = append(variants, f.parseVariant(&sc))
		}
		return variants
	})))
	p.Add(pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, v := range data.([]Variant) {
			if err := sink.WriteVariant(v); err != nil {
				p.SetErr(err)
				return data
			}
			info.Variants++
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return info, nil
}

// TSVSink writes the map side-car (SNP, CHROM, and POS columns) and
// the sample-list side-car (one sample per line).
type TSVSink struct {
	mapOut, indOut *bufio.Writer
}

// NewTSVSink returns a TSVSink writing to the given writers.
func NewTSVSink(mapWriter, indWriter io.Writer) *TSVSink {
	return &TSVSink{
		mapOut: bufio.NewWriter(mapWriter),
		indOut: bufio.NewWriter(indWriter),
	}
}

// MapHeader is the first line of a map side-car.
const MapHeader = "SNP\tCHROM\tPOS\n"

// WriteSamples implements MapSink.
func (sink *TSVSink) WriteSamples(samples []string) error {
	for _, sample := range samples {
		_, _ = sink.indOut.WriteString(sample)
		if err := sink.indOut.WriteByte('\n'); err != nil {
			return err
		}
	}
	_, err := sink.mapOut.WriteString(MapHeader)
	return err
}

// WriteVariant implements MapSink.
func (sink *TSVSink) WriteVariant(v Variant) error {
	_, _ = sink.mapOut.WriteString(v.ID)
	_ = sink.mapOut.WriteByte('\t')
	_, _ = sink.mapOut.WriteString(v.Chrom)
	_ = sink.mapOut.WriteByte('\t')
	_, _ = sink.mapOut.WriteString(v.Pos)
	return sink.mapOut.WriteByte('\n')
}

// Close flushes the side-cars. It does not close the underlying writers.
func (sink *TSVSink) Close() error {
	err := sink.mapOut.Flush()
	if nerr := sink.indOut.Flush(); err == nil {
		err = nerr
	}
	return err
}

// MultiSink passes everything to all of its sinks.
type MultiSink []MapSink

// WriteSamples implements MapSink.
func (sinks MultiSink) WriteSamples(samples []string) error {
	for _, sink := range sinks {
		if err := sink.WriteSamples(samples); err != nil {
			return err
		}
	}
	return nil
}

// WriteVariant implements MapSink.
func (sinks MultiSink) WriteVariant(v Variant) error {
	for _, sink := range sinks {
		if err := sink.WriteVariant(v); err != nil {
			return err
		}
	}
	return nil
}

// Close implements MapSink.
func (sinks MultiSink) Close() (err error) {
	for _, sink := range sinks {
		if nerr := sink.Close(); err == nil {
			err = nerr
		}
	}
	return err
}

// MapFilenames returns the names of the map and sample-list side-cars
// for an output prefix.
func MapFilenames(out string) (mapFile, indFile string) {
	return out + ".map", out + ".geno.ind"
}

// ExtractMapFiles extracts the variant annotations and sample list of
// the given input into the side-car files of the out prefix, and into
// a SQLite variant index if indexPath is not empty. On failure, no
// side-car files are left behind.
func ExtractMapFiles(ctx context.Context, filename, out string, f Format, indexPath string, threads int) (info *MapInfo, err error) {
	input, err := internal.OpenInput(ctx, filename, threads)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := input.Close(); nerr != nil {
			if err == nil {
				info = nil
				err = pfx.Err(nerr)
			}
		}
	}()

	mapFilename, indFilename := MapFilenames(out)
	outputs := []string{mapFilename, indFilename}
	if indexPath != "" {
		outputs = append(outputs, indexPath)
	}
	defer internal.RemoveOnError(&err, outputs...)

	mapFile, err := os.Create(mapFilename)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer func() {
		if nerr := mapFile.Close(); nerr != nil && err == nil {
			info = nil
			err = pfx.Err(nerr)
		}
	}()
	indFile, err := os.Create(indFilename)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer func() {
		if nerr := indFile.Close(); nerr != nil && err == nil {
			info = nil
			err = pfx.Err(nerr)
		}
	}()

	sinks := MultiSink{NewTSVSink(mapFile, indFile)}
	if indexPath != "" {
		index, err := CreateIndex(indexPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, index)
	}
	info, err = ExtractMap(input, f, sinks, threads)
	if nerr := sinks.Close(); err == nil && nerr != nil {
		info = nil
		err = nerr
	}
	return info, err
}

// ReadMap reads the variants of a map side-car.
func ReadMap(r io.Reader) (variants []Variant, err error) {
	reader := bufferedReader(r)
	header, err := getLine(reader)
	if err == io.EOF || (err == nil && header+"\n" != MapHeader) {
		return nil, fmt.Errorf("%w: map side-car does not start with %q", ErrMalformedHeader, MapHeader)
	} else if err != nil {
		return nil, pfx.Err(err)
	}
	var sc StringScanner
	for {
		line, err := getLine(reader)
		if err == io.EOF {
			return variants, nil
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		if line == "" {
			continue
		}
		sc.Reset(line)
		var v Variant
		v.ID = sc.ReadField()
		v.Chrom = sc.ReadField()
		v.Pos = sc.ReadField()
		variants = append(variants, v)
	}
}

// ReadSamples reads a sample-list side-car.
func ReadSamples(r io.Reader) (samples []string, err error) {
	reader := bufferedReader(r)
	for {
		line, err := getLine(reader)
		if err == io.EOF {
			return samples, nil
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		if line != "" {
			samples = append(samples, line)
		}
	}
}
