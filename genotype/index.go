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
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const sqliteDriver = "sqlite"

const indexSchema = `
DROP TABLE IF EXISTS Sample;
DROP TABLE IF EXISTS Variant;
CREATE TABLE Sample (
	idx INTEGER PRIMARY KEY,
	id TEXT NOT NULL
);
CREATE TABLE Variant (
	variant_row INTEGER PRIMARY KEY,
	snp TEXT NOT NULL,
	chrom TEXT NOT NULL,
	pos TEXT NOT NULL
);
`

// IndexSink stores the sample list and the variants in a SQLite
// database. Variant rows are numbered from 0, in file order, so that
// they match the rows of the genotype matrix.
type IndexSink struct {
	db   *sqlx.DB
	tx   *sqlx.Tx
	stmt *sqlx.Stmt
	row  int
}

func connectIndex(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	db, err := sqlx.Connect(sqliteDriver, path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return db, nil
}

// CreateIndex creates (or overwrites) a variant index at path.
func CreateIndex(path string) (*IndexSink, error) {
	db, err := connectIndex(path)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(`
	PRAGMA journal_mode = OFF;
	PRAGMA synchronous = OFF;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to set pragmas: %w", err)
	}
	if _, err = db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, pfx.Err(err)
	}
	tx, err := db.Beginx()
	if err != nil {
		_ = db.Close()
		return nil, pfx.Err(err)
	}
	stmt, err := tx.Preparex("INSERT INTO Variant (variant_row, snp, chrom, pos) VALUES (?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, pfx.Err(err)
	}
	return &IndexSink{db: db, tx: tx, stmt: stmt}, nil
}

// WriteSamples implements MapSink.
func (index *IndexSink) WriteSamples(samples []string) error {
	for i, sample := range samples {
		if _, err := index.tx.Exec("INSERT INTO Sample (idx, id) VALUES (?, ?)", i, sample); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

// WriteVariant implements MapSink.
func (index *IndexSink) WriteVariant(v Variant) error {
	if _, err := index.stmt.Exec(index.row, v.ID, v.Chrom, v.Pos); err != nil {
		return pfx.Err(err)
	}
	index.row++
	return nil
}

// Close commits the index and closes the database.
func (index *IndexSink) Close() (err error) {
	if index.db == nil {
		return nil
	}
	defer func() {
		if nerr := index.db.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
		index.db = nil
	}()
	if err = index.stmt.Close(); err != nil {
		_ = index.tx.Rollback()
		return pfx.Err(err)
	}
	if err = index.tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	if _, err = index.db.Exec("CREATE INDEX IF NOT EXISTS variant_snp ON Variant (snp)"); err != nil {
		return pfx.Err(err)
	}
	return nil
}

type indexedVariant struct {
	Row   int    `db:"variant_row"`
	SNP   string `db:"snp"`
	Chrom string `db:"chrom"`
	Pos   string `db:"pos"`
}

// ReadIndex loads the sample list and the variants from an index
// created by CreateIndex.
func ReadIndex(path string) (samples []string, variants []Variant, err error) {
	db, err := connectIndex(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if nerr := db.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
	}()
	if err = db.Select(&samples, "SELECT id FROM Sample ORDER BY idx"); err != nil {
		return nil, nil, pfx.Err(err)
	}
	var rows []indexedVariant
	if err = db.Select(&rows, "SELECT variant_row, snp, chrom, pos FROM Variant ORDER BY variant_row"); err != nil {
		return nil, nil, pfx.Err(err)
	}
	variants = make([]Variant, len(rows))
	for i, row := range rows {
		variants[i] = Variant{ID: row.SNP, Chrom: row.Chrom, Pos: row.Pos}
	}
	return samples, variants, nil
}

// LookupVariant returns the 0-based matrix row of the variant with the
// given id, or -1 if the index does not contain it.
func LookupVariant(path, id string) (row int, err error) {
	db, err := connectIndex(path)
	if err != nil {
		return -1, err
	}
	defer func() {
		if nerr := db.Close(); nerr != nil && err == nil {
			err = pfx.Err(nerr)
		}
	}()
	var rows []int
	if err = db.Select(&rows, "SELECT variant_row FROM Variant WHERE snp = ? ORDER BY variant_row LIMIT 1", id); err != nil {
		return -1, pfx.Err(err)
	}
	if len(rows) == 0 {
		return -1, nil
	}
	return rows[0], nil
}
