// Package db provides the embedded catalog mirror schema.
package db

import _ "embed"

// Schema contains the DDL statements for the catalog mirror tables.
//
//go:embed migrations/001_catalog.sql
var Schema string
