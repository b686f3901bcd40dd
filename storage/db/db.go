// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores aggregated benchmark datasets in a SQL database.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/smkbench/smkbench/benchagg"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// DB is a high-level interface to a database of stored runs. It's
// safe for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun    *sql.Stmt
	insertColumn *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
//
// Each column of a run is a label or a statistic. Labels are stored
// in RowLabels and statistics in RowStats; a value a row lacks has no
// entry.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Root VARCHAR(4096),
	Pattern VARCHAR(4096),
	Created BIGINT
);
CREATE TABLE IF NOT EXISTS RunColumns (
	RunID BIGINT UNSIGNED,
	ColumnIndex INTEGER,
	Name VARCHAR(255),
	IsStat BOOLEAN,
	PRIMARY KEY (RunID, ColumnIndex),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RunRows (
	RunID BIGINT UNSIGNED,
	RowID BIGINT UNSIGNED,
	Path VARCHAR(4096),
	PRIMARY KEY (RunID, RowID),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RowLabels (
	RunID BIGINT UNSIGNED,
	RowID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (RunID, RowID) REFERENCES RunRows(RunID, RowID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RowStats (
	RunID BIGINT UNSIGNED,
	RowID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value DOUBLE,
	FOREIGN KEY (RunID, RowID) REFERENCES RunRows(RunID, RowID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RowLabelsNameValue ON RowLabels(Name, Value);
CREATE INDEX IF NOT EXISTS RowLabelsRun ON RowLabels(RunID, RowID);
CREATE INDEX IF NOT EXISTS RowStatsRun ON RowStats(RunID, RowID);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Root, Pattern, Created) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertColumn, err = db.sql.Prepare("INSERT INTO RunColumns(RunID, ColumnIndex, Name, IsStat) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// A Run describes one stored Dataset.
type Run struct {
	// ID is the run's key, assigned by Store.
	ID int64

	// Root and Pattern record where the Dataset came from.
	// Either may be empty.
	Root    string
	Pattern string

	// Created is the time the run was stored. Store fills it in
	// if it is zero. It has a resolution of one second.
	Created time.Time

	// Rows is the number of rows in the run. It is set by Runs
	// and ignored by Store.
	Rows int
}

// maxBatch is the number of value tuples inserted per statement.
const maxBatch = 200

// Store stores ds as a new run and returns the run's ID. The ID of
// run is ignored.
//
// Statistics that are NaN or infinite are not stored, so they load
// as NaN.
func (db *DB) Store(ctx context.Context, run Run, ds *benchagg.Dataset) (id int64, err error) {
	if run.Created.IsZero() {
		run.Created = now()
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, run.Root, run.Pattern, run.Created.Unix())
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	insertColumn := tx.StmtContext(ctx, db.insertColumn)
	for i, name := range ds.Labels {
		if _, err := insertColumn.ExecContext(ctx, id, i, name, false); err != nil {
			return 0, err
		}
	}
	for i, name := range ds.Stats {
		if _, err := insertColumn.ExecContext(ctx, id, len(ds.Labels)+i, name, true); err != nil {
			return 0, err
		}
	}

	rows := newBatch(tx, "INSERT INTO RunRows(RunID, RowID, Path) VALUES ", 3)
	labels := newBatch(tx, "INSERT INTO RowLabels(RunID, RowID, Name, Value) VALUES ", 4)
	stats := newBatch(tx, "INSERT INTO RowStats(RunID, RowID, Name, Value) VALUES ", 4)
	for i, row := range ds.Rows {
		if err := rows.add(ctx, id, i, row.Path); err != nil {
			return 0, err
		}
	}
	if err := rows.flush(ctx); err != nil {
		return 0, err
	}
	for i, row := range ds.Rows {
		for _, name := range ds.Labels {
			v, ok := row.Labels[name]
			if !ok {
				continue
			}
			if err := labels.add(ctx, id, i, name, v); err != nil {
				return 0, err
			}
		}
		for _, name := range ds.Stats {
			v, ok := row.Stats[name]
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if err := stats.add(ctx, id, i, name, v); err != nil {
				return 0, err
			}
		}
	}
	if err := labels.flush(ctx); err != nil {
		return 0, err
	}
	if err := stats.flush(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// A batch accumulates rows for a multi-row INSERT.
type batch struct {
	tx     *sql.Tx
	prefix string
	width  int
	args   []interface{}
}

func newBatch(tx *sql.Tx, prefix string, width int) *batch {
	return &batch{tx: tx, prefix: prefix, width: width}
}

func (b *batch) add(ctx context.Context, vals ...interface{}) error {
	b.args = append(b.args, vals...)
	if len(b.args) >= maxBatch*b.width {
		return b.flush(ctx)
	}
	return nil
}

func (b *batch) flush(ctx context.Context) error {
	if len(b.args) == 0 {
		return nil
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", b.width), ", ") + ")"
	query := b.prefix + strings.Repeat(tuple+", ", len(b.args)/b.width)
	query = strings.TrimSuffix(query, ", ")
	_, err := b.tx.ExecContext(ctx, query, b.args...)
	b.args = b.args[:0]
	return err
}

// Load returns the Dataset of run id. It returns ErrNotFound if there
// is no such run.
func (db *DB) Load(ctx context.Context, id int64) (*benchagg.Dataset, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM Runs WHERE RunID = ?", id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	ds := new(benchagg.Dataset)
	err = query(ctx, tx, "SELECT Name, IsStat FROM RunColumns WHERE RunID = ? ORDER BY ColumnIndex", []interface{}{id}, func(rows *sql.Rows) error {
		var name string
		var isStat bool
		if err := rows.Scan(&name, &isStat); err != nil {
			return err
		}
		if isStat {
			ds.Stats = append(ds.Stats, name)
		} else {
			ds.Labels = append(ds.Labels, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = query(ctx, tx, "SELECT RowID, Path FROM RunRows WHERE RunID = ? ORDER BY RowID", []interface{}{id}, func(rows *sql.Rows) error {
		var rowID int64
		var path string
		if err := rows.Scan(&rowID, &path); err != nil {
			return err
		}
		if rowID != int64(len(ds.Rows)) {
			return fmt.Errorf("run %d: missing row %d", id, len(ds.Rows))
		}
		ds.Rows = append(ds.Rows, benchagg.Row{
			Path:   path,
			Labels: make(map[string]string),
			Stats:  make(map[string]float64),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := func(rowID int64) (*benchagg.Row, error) {
		if rowID < 0 || rowID >= int64(len(ds.Rows)) {
			return nil, fmt.Errorf("run %d: value for unknown row %d", id, rowID)
		}
		return &ds.Rows[rowID], nil
	}
	err = query(ctx, tx, "SELECT RowID, Name, Value FROM RowLabels WHERE RunID = ?", []interface{}{id}, func(rows *sql.Rows) error {
		var rowID int64
		var name, value string
		if err := rows.Scan(&rowID, &name, &value); err != nil {
			return err
		}
		r, err := row(rowID)
		if err != nil {
			return err
		}
		r.Labels[name] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = query(ctx, tx, "SELECT RowID, Name, Value FROM RowStats WHERE RunID = ?", []interface{}{id}, func(rows *sql.Rows) error {
		var rowID int64
		var name string
		var value float64
		if err := rows.Scan(&rowID, &name, &value); err != nil {
			return err
		}
		r, err := row(rowID)
		if err != nil {
			return err
		}
		r.Stats[name] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// query runs q and calls f for each resulting row.
func query(ctx context.Context, tx *sql.Tx, q string, args []interface{}, f func(*sql.Rows) error) error {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := f(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Runs returns every stored run, oldest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT r.RunID, r.Root, r.Pattern, r.Created, COUNT(w.RowID)
FROM Runs r LEFT JOIN RunRows w ON w.RunID = r.RunID
GROUP BY r.RunID, r.Root, r.Pattern, r.Created
ORDER BY r.RunID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Root, &r.Pattern, &created, &r.Rows); err != nil {
			return nil, err
		}
		r.Created = time.Unix(created, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes run id and all of its rows.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.sql.ExecContext(ctx, "DELETE FROM Runs WHERE RunID = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.insertColumn.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
