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
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/biogo/hts/bgzf"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

const (
	inputBufferSize = 1 << 20
	gzipBlockSize   = 1 << 18
)

// Compression identifies the compression of an input stream.
type Compression byte

// The compressions recognized by OpenInput.
const (
	NoCompression Compression = iota
	Gzip
	BGZF
	Zstd
	XZ
	Zip
	BZip2
)

var magicBytes = []struct {
	compression Compression
	magic       []byte
}{
	{Gzip, []byte{0x1f, 0x8b, 0x08}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{XZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{Zip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{BZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectCompression determines the compression of a stream from its
// initial bytes. BGZF is gzip with a BC extra subfield.
func DetectCompression(head []byte) Compression {
	for _, entry := range magicBytes {
		if bytes.HasPrefix(head, entry.magic) {
			if entry.compression == Gzip && len(head) >= 14 && head[3]&0x04 != 0 && head[12] == 'B' && head[13] == 'C' {
				return BGZF
			}
			return entry.compression
		}
	}
	return NoCompression
}

// Input is an opened, possibly decompressed input stream.
type Input struct {
	io.Reader
	closers []io.Closer
}

// Close closes the decompressor and the underlying source.
func (input *Input) Close() (err error) {
	for i := len(input.closers) - 1; i >= 0; i-- {
		if nerr := input.closers[i].Close(); nerr != nil && err == nil {
			err = nerr
		}
	}
	input.closers = nil
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func openSource(ctx context.Context, name string) (io.Reader, []io.Closer, error) {
	if strings.HasPrefix(name, "gs://") {
		path := strings.TrimPrefix(name, "gs://")
		slash := strings.IndexByte(path, '/')
		if slash <= 0 || slash == len(path)-1 {
			return nil, nil, fmt.Errorf("invalid Google Storage path %v", name)
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, pfx.Err(err)
		}
		reader, err := client.Bucket(path[:slash]).Object(path[slash+1:]).NewReader(ctx)
		if err != nil {
			_ = client.Close()
			return nil, nil, pfx.Err(err)
		}
		return reader, []io.Closer{client, reader}, nil
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	return file, []io.Closer{file}, nil
}

// OpenInput opens a local file or a gs://bucket/object path, and
// transparently decompresses gzip, BGZF, zstd, xz, zip, and bzip2
// streams. BGZF streams are decompressed with the given number of
// threads, and plain gzip streams are decompressed ahead of the reader.
func OpenInput(ctx context.Context, name string, threads int) (*Input, error) {
	source, closers, err := openSource(ctx, name)
	if err != nil {
		return nil, err
	}
	input := &Input{closers: closers}
	buffered := bufio.NewReaderSize(source, inputBufferSize)
	head, _ := buffered.Peek(18)
	switch DetectCompression(head) {
	case BGZF:
		if threads < 1 {
			threads = 1
		}
		r, err := bgzf.NewReader(buffered, threads)
		if err != nil {
			_ = input.Close()
			return nil, pfx.Err(err)
		}
		input.Reader = r
		input.closers = append(input.closers, r)
	case Gzip:
		if threads < 1 {
			threads = 1
		}
		r, err := pgzip.NewReaderN(buffered, gzipBlockSize, 2*threads)
		if err != nil {
			_ = input.Close()
			return nil, pfx.Err(err)
		}
		input.Reader = r
		input.closers = append(input.closers, r)
	case Zstd:
		r, err := zstd.NewReader(buffered)
		if err != nil {
			_ = input.Close()
			return nil, pfx.Err(err)
		}
		input.Reader = r
		input.closers = append(input.closers, closerFunc(func() error {
			r.Close()
			return nil
		}))
	case XZ:
		r, err := xz.NewReader(buffered, 0)
		if err != nil {
			_ = input.Close()
			return nil, pfx.Err(err)
		}
		input.Reader = r
	case Zip:
		r := zipstream.NewReader(buffered)
		if _, err := r.Next(); err != nil {
			_ = input.Close()
			return nil, pfx.Err(err)
		}
		input.Reader = r
	case BZip2:
		input.Reader = bzip2.NewReader(buffered)
	default:
		input.Reader = buffered
	}
	return input, nil
}

// RemoveOnError removes the given files if *err is not nil. It is
// intended to be deferred by functions that create output files.
func RemoveOnError(err *error, filenames ...string) {
	if *err == nil {
		return
	}
	for _, filename := range filenames {
		_ = os.Remove(filename)
	}
}

// FullPathname returns an absolute version of filename.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}
