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

package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const testContent = "#CHROM\tPOS\tID\n1\t100\trs1\n"

func readAll(t *testing.T, filename string) string {
	input, err := OpenInput(context.Background(), filename, 2)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(input)
	if err != nil {
		t.Fatal(err)
	}
	if err = input.Close(); err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestOpenInputPlain(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "plain.vcf")
	if err := os.WriteFile(filename, []byte(testContent), 0666); err != nil {
		t.Fatal(err)
	}
	if s := readAll(t, filename); s != testContent {
		t.Errorf("plain input read as %q", s)
	}
}

func TestOpenInputGzip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "input.vcf.gz")
	file, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(file)
	if _, err = gz.Write([]byte(testContent)); err != nil {
		t.Fatal(err)
	}
	if err = gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err = file.Close(); err != nil {
		t.Fatal(err)
	}
	if s := readAll(t, filename); s != testContent {
		t.Errorf("gzip input read as %q", s)
	}
}

func TestOpenInputZstd(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "input.vcf.zst")
	file, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(file)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = enc.Write([]byte(testContent)); err != nil {
		t.Fatal(err)
	}
	if err = enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err = file.Close(); err != nil {
		t.Fatal(err)
	}
	if s := readAll(t, filename); s != testContent {
		t.Errorf("zstd input read as %q", s)
	}
}

func TestOpenInputMissing(t *testing.T) {
	if _, err := OpenInput(context.Background(), filepath.Join(t.TempDir(), "missing.vcf"), 1); err == nil {
		t.Error("missing file opened")
	}
	if _, err := OpenInput(context.Background(), "gs://bucket-only", 1); err == nil {
		t.Error("invalid gs path accepted")
	}
}

func TestDetectCompression(t *testing.T) {
	bgzfHead := []byte{0x1f, 0x8b, 0x08, 0x04, 0, 0, 0, 0, 0, 0xff, 0x06, 0, 'B', 'C', 0x02, 0}
	if c := DetectCompression(bgzfHead); c != BGZF {
		t.Errorf("BGZF detected as %v", c)
	}
	if c := DetectCompression([]byte{0x1f, 0x8b, 0x08, 0x00}); c != Gzip {
		t.Errorf("gzip detected as %v", c)
	}
	if c := DetectCompression([]byte("BZh91AY")); c != BZip2 {
		t.Errorf("bzip2 detected as %v", c)
	}
	if c := DetectCompression([]byte("#CHROM")); c != NoCompression {
		t.Errorf("plain text detected as %v", c)
	}
	if c := DetectCompression(nil); c != NoCompression {
		t.Errorf("empty input detected as %v", c)
	}
}

func TestRemoveOnError(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "partial")
	if err := os.WriteFile(filename, nil, 0666); err != nil {
		t.Fatal(err)
	}
	var err error
	RemoveOnError(&err, filename)
	if _, serr := os.Stat(filename); serr != nil {
		t.Error("file removed without error")
	}
	err = errors.New("failure")
	RemoveOnError(&err, filename)
	if _, serr := os.Stat(filename); !os.IsNotExist(serr) {
		t.Error("file not removed after error")
	}
}

func TestFullPathname(t *testing.T) {
	name, err := FullPathname("x/y.desc")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(name) || filepath.Base(name) != "y.desc" {
		t.Errorf("FullPathname returned %v", name)
	}
	if name, _ = FullPathname("/tmp/z"); name != "/tmp/z" {
		t.Errorf("FullPathname changed an absolute path into %v", name)
	}
}

func TestByteBuffer(t *testing.T) {
	buf := ReserveByteBuffer(100)
	if len(buf) != 100 {
		t.Fatalf("reserved %v bytes", len(buf))
	}
	ReleaseByteBuffer(buf)
	if buf = ReserveByteBuffer(10); len(buf) != 10 {
		t.Errorf("reserved %v bytes", len(buf))
	}
}
