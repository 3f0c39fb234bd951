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

package matrix

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/carbocation/pfx"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/exascience/elgeno/internal"
)

// DescriptorHeader is the header line that every matrix descriptor
// file starts with.
const DescriptorHeader = "# elgeno matrix descriptor version 1.0\n"

// Descriptor describes the layout of a file-backed matrix.
type Descriptor struct {
	Type        ElementType
	Rows, Cols  int
	BackingFile string
}

// Size returns the number of bytes of the backing file.
func (d Descriptor) Size() int64 {
	return int64(d.Rows) * int64(d.Cols) * int64(d.Type.Width())
}

// WriteFile stores the descriptor in filename. A backing file in the
// same directory as the descriptor is recorded by its base name, and
// any other backing file by its absolute path.
func (d Descriptor) WriteFile(filename string) (err error) {
	backing, err := internal.FullPathname(d.BackingFile)
	if err != nil {
		return pfx.Err(err)
	}
	dir, err := internal.FullPathname(filepath.Dir(filename))
	if err != nil {
		return pfx.Err(err)
	}
	if filepath.Dir(backing) == dir {
		backing = filepath.Base(backing)
	}
	output, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = pfx.Err(nerr)
			}
		}
	}()
	var buf []byte
	buf = append(buf, DescriptorHeader...)
	buf = append(buf, "type\t"...)
	buf = append(buf, d.Type.String()...)
	buf = append(buf, "\nrows\t"...)
	buf = strconv.AppendInt(buf, int64(d.Rows), 10)
	buf = append(buf, "\ncols\t"...)
	buf = strconv.AppendInt(buf, int64(d.Cols), 10)
	buf = append(buf, "\nbacking\t"...)
	buf = append(buf, backing...)
	buf = append(buf, '\n')
	_, err = output.Write(buf)
	return err
}

// ReadDescriptor loads a descriptor file. A relative backing file name
// is resolved against the directory of the descriptor.
func ReadDescriptor(filename string) (d Descriptor, err error) {
	input, err := os.Open(filename)
	if err != nil {
		return d, pfx.Err(err)
	}
	defer func() {
		if nerr := input.Close(); nerr != nil {
			if err == nil {
				err = pfx.Err(nerr)
			}
		}
	}()
	reader := bufio.NewReader(input)
	header, err := reader.ReadString('\n')
	if err != nil || header != DescriptorHeader {
		return d, fmt.Errorf("%v is not a matrix descriptor - invalid header", filename)
	}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return d, fmt.Errorf("invalid descriptor line %v in %v", line, filename)
		}
		key, value := line[:tab], line[tab+1:]
		switch key {
		case "type":
			if d.Type, err = ParseElementType(value); err != nil {
				return d, err
			}
		case "rows":
			if d.Rows, err = strconv.Atoi(value); err != nil {
				return d, fmt.Errorf("%v, while parsing rows in %v", err, filename)
			}
		case "cols":
			if d.Cols, err = strconv.Atoi(value); err != nil {
				return d, fmt.Errorf("%v, while parsing cols in %v", err, filename)
			}
		case "backing":
			d.BackingFile = value
		default:
			return d, fmt.Errorf("unknown descriptor key %v in %v", key, filename)
		}
	}
	if err = scanner.Err(); err != nil {
		return d, pfx.Err(err)
	}
	if d.BackingFile == "" {
		return d, fmt.Errorf("missing backing file in %v", filename)
	}
	if !filepath.IsAbs(d.BackingFile) {
		d.BackingFile = filepath.Join(filepath.Dir(filename), d.BackingFile)
	}
	return d, nil
}

// Mapped is a matrix stored in a memory-mapped backing file, in
// column-major order. Pass the embedded Matrix to the operations of
// other packages.
type Mapped struct {
	Matrix
	Descriptor Descriptor
	file       *os.File
	data       []byte
}

func castSlice[T Element](data []byte) []T {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), len(data)/int(unsafe.Sizeof(zero)))
}

func view(t ElementType, rows, cols int, data []byte) Matrix {
	switch t {
	case Char:
		return &Dense[int8]{rows: rows, cols: cols, data: castSlice[int8](data)}
	case Short:
		return &Dense[int16]{rows: rows, cols: cols, data: castSlice[int16](data)}
	case Integer:
		return &Dense[int32]{rows: rows, cols: cols, data: castSlice[int32](data)}
	default:
		return &Dense[float64]{rows: rows, cols: cols, data: castSlice[float64](data)}
	}
}

func mapFile(file *os.File, d Descriptor) (*Mapped, error) {
	var data []byte
	if size := d.Size(); size > 0 {
		var err error
		data, err = unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return nil, pfx.Err(err)
		}
	}
	return &Mapped{
		Matrix:     view(d.Type, d.Rows, d.Cols, data),
		Descriptor: d,
		file:       file,
		data:       data,
	}, nil
}

// Create makes a new zero-filled file-backed matrix, and stores its
// descriptor in descriptor. If backing is empty, a unique backing file
// name is chosen in the directory of the descriptor.
func Create(t ElementType, rows, cols int, backing, descriptor string) (*Mapped, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid matrix dimensions %v x %v", rows, cols)
	}
	if backing == "" {
		backing = filepath.Join(filepath.Dir(descriptor), "elgeno-"+uuid.NewString()+".bin")
	}
	d := Descriptor{Type: t, Rows: rows, Cols: cols, BackingFile: backing}
	file, err := os.Create(backing)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if err = file.Truncate(d.Size()); err != nil {
		_ = file.Close()
		return nil, pfx.Err(err)
	}
	if err = d.WriteFile(descriptor); err != nil {
		_ = file.Close()
		return nil, err
	}
	m, err := mapFile(file, d)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return m, nil
}

// Attach opens an existing file-backed matrix through its descriptor.
func Attach(descriptor string) (*Mapped, error) {
	d, err := ReadDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	if err = d.Type.Check(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(d.BackingFile, os.O_RDWR, 0)
	if err != nil {
		return nil, pfx.Err(err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, pfx.Err(err)
	}
	if stat.Size() != d.Size() {
		_ = file.Close()
		return nil, fmt.Errorf("backing file %v has %v bytes, expected %v", d.BackingFile, stat.Size(), d.Size())
	}
	m, err := mapFile(file, d)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return m, nil
}

// Flush writes the mapped memory back to the backing file.
func (m *Mapped) Flush() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// Close unmaps the matrix and closes its backing file.
func (m *Mapped) Close() (err error) {
	if m.data != nil {
		err = unix.Munmap(m.data)
		m.data = nil
	}
	if m.file != nil {
		if nerr := m.file.Close(); err == nil {
			err = nerr
		}
		m.file = nil
	}
	m.Matrix = nil
	if err != nil {
		return pfx.Err(err)
	}
	return nil
}
