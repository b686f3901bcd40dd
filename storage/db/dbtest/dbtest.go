// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens empty databases for storage tests.
package dbtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"path/filepath"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/smkbench/smkbench/storage/db"
	_ "github.com/smkbench/smkbench/storage/db/sqlite3"
)

var mysqlServer = flag.String("mysql", "", "run storage tests on the MySQL server with this DSN prefix (e.g. root:@tcp(localhost:3306)/) instead of SQLite")

// NewDB returns an empty database for the test, closed when the test
// finishes.
//
// By default the database is an SQLite file in a temporary directory,
// so every connection of the pool sees the same data. With -mysql, it
// is a new database on that server, dropped when the test finishes.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	driver, dsn := "sqlite3", filepath.Join(t.TempDir(), "test.db")
	if *mysqlServer != "" {
		driver, dsn = "mysql", mysqlDatabase(t, *mysqlServer)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		t.Fatalf("open %s database: %v", driver, err)
	}
	t.Cleanup(func() { d.Close() })

	runs, err := d.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("new database has %d run(s), want 0", len(runs))
	}
	return d
}

// mysqlDatabase creates a randomly named database on the server
// reached by DSN prefix and returns the DSN of the new database.
func mysqlDatabase(t *testing.T, prefix string) string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		t.Fatal(err)
	}
	name := "smkbench-test-" + base64.RawURLEncoding.EncodeToString(buf[:])

	server, err := sql.Open("mysql", prefix)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := server.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		server.Close()
		t.Fatal(err)
	}
	t.Logf("using MySQL database %q", name)

	// Cleanups run last-in first-out, so the database is dropped
	// after the test's connection to it is closed.
	t.Cleanup(func() {
		if _, err := server.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Error(err)
		}
		server.Close()
	})
	return prefix + name
}
