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
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/elgeno/matrix"
)

const testVCF = `##fileformat=VCFv4.2
##source=test
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	s1	s2	s3
1	100	rs1	A	G	.	PASS	.	GT	0|0	0|1	1|1

1	200	.	C	T	.	PASS	.	GT:DP	./.:3	1/0:7	0/0:2
2	300	rs3	G	A	.	PASS	.	GT	1|1	0|2
`

const testHapMap = `rs#	alleles	chrom	pos	strand	assembly#	center	protLSID	assayLSID	panelLSID	QCcode	NA1	NA2	NA3
rs10	A/G	1	1000	+	ncbi_b36	bcm	urn	urn	urn	QC+	AA	AG	GG
rs11	CTAG/T	1	2000	+	ncbi_b36	bcm	urn	urn	urn	QC+	CC	NN	TT
rs12	T/C	2	3000	+	ncbi_b36	bcm	urn	urn	urn	QC+	TT	CT	C
`

const testNumeric = "0\t1\t2\n2\tNA\t1.0\n\n1\t1\t0\n"

type memorySink struct {
	samples  []string
	variants []Variant
	closed   bool
}

func (sink *memorySink) WriteSamples(samples []string) error {
	sink.samples = samples
	return nil
}

func (sink *memorySink) WriteVariant(v Variant) error {
	sink.variants = append(sink.variants, v)
	return nil
}

func (sink *memorySink) Close() error {
	sink.closed = true
	return nil
}

func TestExtractMapVCF(t *testing.T) {
	var sink memorySink
	info, err := ExtractMap(strings.NewReader(testVCF), VCF, &sink, 0)
	if err != nil {
		t.Fatal(err)
	}
	if info.Variants != 3 || len(info.Samples) != 3 {
		t.Errorf("unexpected map info %+v", info)
	}
	if strings.Join(sink.samples, ",") != "s1,s2,s3" {
		t.Errorf("unexpected samples %v", sink.samples)
	}
	expected := []Variant{
		{ID: "rs1", Chrom: "1", Pos: "100"},
		{ID: "1-200", Chrom: "1", Pos: "200"},
		{ID: "rs3", Chrom: "2", Pos: "300"},
	}
	if len(sink.variants) != len(expected) {
		t.Fatalf("unexpected variants %v", sink.variants)
	}
	for i, v := range expected {
		if sink.variants[i] != v {
			t.Errorf("variant %v is %+v, expected %+v", i, sink.variants[i], v)
		}
	}
}

func TestExtractMapHapMap(t *testing.T) {
	var sink memorySink
	info, err := ExtractMap(strings.NewReader(testHapMap), HapMap, &sink, 2)
	if err != nil {
		t.Fatal(err)
	}
	if info.Variants != 3 {
		t.Errorf("unexpected variant count %v", info.Variants)
	}
	if strings.Join(sink.samples, ",") != "NA1,NA2,NA3" {
		t.Errorf("unexpected samples %v", sink.samples)
	}
	if v := sink.variants[1]; v != (Variant{ID: "rs11", Chrom: "1", Pos: "2000"}) {
		t.Errorf("unexpected variant %+v", v)
	}
}

func TestExtractMapShortLine(t *testing.T) {
	var sink memorySink
	_, err := ExtractMap(strings.NewReader("#CHROM\tPOS\tID\n17\n"), VCF, &sink, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sink.variants) != 1 || sink.variants[0] != (Variant{ID: "17-", Chrom: "17"}) {
		t.Errorf("unexpected variants %v", sink.variants)
	}
}

func TestExtractMapMissingHeader(t *testing.T) {
	var sink memorySink
	_, err := ExtractMap(strings.NewReader("1\t100\trs1\n"), VCF, &sink, 0)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestExtractMapFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.vcf")
	if err := os.WriteFile(input, []byte(testVCF), 0666); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	index := filepath.Join(dir, "out.db")
	if _, err := ExtractMapFiles(context.Background(), input, out, VCF, index, 2); err != nil {
		t.Fatal(err)
	}
	mapFile, indFile := MapFilenames(out)
	data, err := os.ReadFile(mapFile)
	if err != nil {
		t.Fatal(err)
	}
	expected := MapHeader + "rs1\t1\t100\n1-200\t1\t200\nrs3\t2\t300\n"
	if string(data) != expected {
		t.Errorf("map side-car is %q", data)
	}
	if data, err = os.ReadFile(indFile); err != nil {
		t.Fatal(err)
	}
	if string(data) != "s1\ns2\ns3\n" {
		t.Errorf("sample side-car is %q", data)
	}

	mapped, err := os.Open(mapFile)
	if err != nil {
		t.Fatal(err)
	}
	defer mapped.Close()
	mapVariants, err := ReadMap(mapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(mapVariants) != 3 || mapVariants[1] != (Variant{ID: "1-200", Chrom: "1", Pos: "200"}) {
		t.Errorf("unexpected map side-car variants %v", mapVariants)
	}
	sampleList, err := ReadSamples(strings.NewReader(string(data)))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(sampleList, ",") != "s1,s2,s3" {
		t.Errorf("unexpected sample list %v", sampleList)
	}

	samples, variants, err := ReadIndex(index)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 || len(variants) != 3 || variants[2].ID != "rs3" {
		t.Errorf("unexpected index contents %v %v", samples, variants)
	}
	row, err := LookupVariant(index, "1-200")
	if err != nil {
		t.Fatal(err)
	}
	if row != 1 {
		t.Errorf("LookupVariant returned row %v", row)
	}
	if row, err = LookupVariant(index, "rs99"); err != nil || row != -1 {
		t.Errorf("LookupVariant of an unknown id returned %v, %v", row, err)
	}
}

func TestExtractMapFilesCleanup(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.vcf")
	if err := os.WriteFile(input, []byte("no header\n"), 0666); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	_, err := ExtractMapFiles(context.Background(), input, out, VCF, "", 1)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
	mapFile, indFile := MapFilenames(out)
	for _, name := range []string{mapFile, indFile} {
		if _, err := os.Stat(name); !os.IsNotExist(err) {
			t.Errorf("%v was left behind", name)
		}
	}
}

func ingestInt8(t *testing.T, f Format, content string, rows, cols, maxLines, threads int) *matrix.Dense[int8] {
	m := matrix.NewDense[int8](rows, cols)
	var err error
	switch f {
	case VCF:
		err = IngestVCF(strings.NewReader(content), m, maxLines, threads, nil)
	case HapMap:
		err = IngestHapMap(strings.NewReader(content), m, maxLines, threads, nil)
	default:
		err = IngestNumeric(strings.NewReader(content), m, '\t', maxLines, threads, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func checkRows(t *testing.T, m *matrix.Dense[int8], expected [][]int8) {
	t.Helper()
	for row, values := range expected {
		for col, v := range values {
			if got := m.At(row, col); got != v {
				t.Errorf("element (%v, %v) is %v, expected %v", row, col, got, v)
			}
		}
	}
}

func TestIngestVCF(t *testing.T) {
	const miss = math.MinInt8
	m := ingestInt8(t, VCF, testVCF, 3, 3, 0, 2)
	checkRows(t, m, [][]int8{
		{0, 1, 2},
		{miss, 1, 0},
		{2, miss, miss},
	})
}

func TestIngestHapMap(t *testing.T) {
	const miss = math.MinInt8
	m := ingestInt8(t, HapMap, testHapMap, 3, 3, 0, 2)
	checkRows(t, m, [][]int8{
		{0, 1, 2},
		{2, miss, 2},
		{0, 1, 2},
	})
}

func TestIngestNumeric(t *testing.T) {
	const miss = math.MinInt8
	m := ingestInt8(t, Numeric, testNumeric, 3, 3, 0, 2)
	checkRows(t, m, [][]int8{
		{0, 1, 2},
		{2, miss, 1},
		{1, 1, 0},
	})
}

func TestIngestDeterministic(t *testing.T) {
	var content strings.Builder
	content.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for s := 0; s < 7; s++ {
		content.WriteString("\ts")
	}
	content.WriteByte('\n')
	calls := []string{"0|0", "0|1", "1|1", "./.", "1|0"}
	for v := 0; v < 23; v++ {
		content.WriteString("1\t100\t.\tA\tC\t.\t.\t.\tGT")
		for s := 0; s < 7; s++ {
			content.WriteString("\t" + calls[(v*3+s)%len(calls)])
		}
		content.WriteByte('\n')
	}
	reference := ingestInt8(t, VCF, content.String(), 23, 7, 0, 1)
	for _, threads := range []int{1, 2, 8} {
		for _, maxLines := range []int{1, 3, 0} {
			m := ingestInt8(t, VCF, content.String(), 23, 7, maxLines, threads)
			for row := 0; row < 23; row++ {
				for col := 0; col < 7; col++ {
					if m.At(row, col) != reference.At(row, col) {
						t.Fatalf("threads %v, maxLines %v: element (%v, %v) differs", threads, maxLines, row, col)
					}
				}
			}
		}
	}
}

func TestIngestElementTypes(t *testing.T) {
	for _, et := range []matrix.ElementType{matrix.Char, matrix.Short, matrix.Integer, matrix.Double} {
		m, err := matrix.New(et, 3, 3)
		if err != nil {
			t.Fatal(err)
		}
		if err = IngestVCF(strings.NewReader(testVCF), m, 2, 2, nil); err != nil {
			t.Fatal(err)
		}
		switch et {
		case matrix.Char:
			checkTyped[int8](t, m)
		case matrix.Short:
			checkTyped[int16](t, m)
		case matrix.Integer:
			checkTyped[int32](t, m)
		case matrix.Double:
			checkTyped[float64](t, m)
		}
	}
}

func checkTyped[T matrix.Element](t *testing.T, m matrix.Matrix) {
	t.Helper()
	typed, err := matrix.As[T](m)
	if err != nil {
		t.Fatal(err)
	}
	if v := typed.At(0, 2); v != 2 {
		t.Errorf("%v: element (0, 2) is %v", m.Type(), v)
	}
	if v := typed.At(1, 0); !matrix.IsMissing(v) {
		t.Errorf("%v: element (1, 0) is %v, expected missing", m.Type(), v)
	}
}

func TestIngestDimensionMismatch(t *testing.T) {
	m := matrix.NewDense[int8](2, 3)
	err := IngestVCF(strings.NewReader(testVCF), m, 0, 1, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStrayLines(t *testing.T) {
	const content = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n" +
		" \n1\t100\trs1\tA\tG\t.\t.\t.\tGT\t1|1\n\t\n"
	var sink memorySink
	info, err := ExtractMap(strings.NewReader(content), VCF, &sink, 1)
	if err != nil {
		t.Fatal(err)
	}
	if info.Variants != 1 {
		t.Errorf("expected 1 variant, got %v", info.Variants)
	}
	m := matrix.NewDense[int8](1, 1)
	if err = IngestVCF(strings.NewReader(content), m, 1, 1, nil); err != nil {
		t.Fatal(err)
	}
	if m.At(0, 0) != 2 {
		t.Errorf("element (0, 0) is %v, expected 2", m.At(0, 0))
	}
	n := matrix.NewDense[int8](2, 1)
	if err = IngestNumeric(strings.NewReader("2\n\n1\n"), n, '\t', 0, 1, nil); err != nil {
		t.Fatal(err)
	}
	if n.At(0, 0) != 2 || n.At(1, 0) != 1 {
		t.Error("single-column numeric lines must be kept")
	}
}

type unsupportedMatrix struct{}

func (unsupportedMatrix) Rows() int                { return 1 }
func (unsupportedMatrix) Cols() int                { return 3 }
func (unsupportedMatrix) Type() matrix.ElementType { return 3 }

func TestIngestUnsupportedElementType(t *testing.T) {
	r := strings.NewReader(testVCF)
	if err := IngestVCF(r, unsupportedMatrix{}, 0, 1, nil); !errors.Is(err, matrix.ErrUnsupportedElementType) {
		t.Errorf("IngestVCF: expected ErrUnsupportedElementType, got %v", err)
	}
	if r.Len() != len(testVCF) {
		t.Errorf("IngestVCF consumed %v bytes", len(testVCF)-r.Len())
	}
	if err := IngestHapMap(strings.NewReader(testHapMap), unsupportedMatrix{}, 0, 1, nil); !errors.Is(err, matrix.ErrUnsupportedElementType) {
		t.Errorf("IngestHapMap: expected ErrUnsupportedElementType, got %v", err)
	}
	if err := IngestNumeric(strings.NewReader(testNumeric), unsupportedMatrix{}, '\t', 0, 1, nil); !errors.Is(err, matrix.ErrUnsupportedElementType) {
		t.Errorf("IngestNumeric: expected ErrUnsupportedElementType, got %v", err)
	}
}

func TestIngestMalformedHeader(t *testing.T) {
	m := matrix.NewDense[int8](3, 3)
	err := IngestHapMap(strings.NewReader(testVCF), m, 0, 1, nil)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestScanNumeric(t *testing.T) {
	cols, rows, err := ScanNumeric(strings.NewReader(testNumeric), '\t')
	if err != nil {
		t.Fatal(err)
	}
	if cols != 3 || rows != 3 {
		t.Errorf("ScanNumeric returned %v columns, %v rows", cols, rows)
	}
	cols, rows, err = ScanNumeric(strings.NewReader("  0  1 2\n1 1 1\n"), ' ')
	if err != nil {
		t.Fatal(err)
	}
	if cols != 3 || rows != 2 {
		t.Errorf("ScanNumeric with spaces returned %v columns, %v rows", cols, rows)
	}
}

func TestDetectDelimiter(t *testing.T) {
	if d := DetectDelimiter([]byte("0,1,2\n1,1,0\n2,2,2\n")); d != ',' {
		t.Errorf("DetectDelimiter returned %q", d)
	}
}
