// Package catalog exports normalized records to a SQLite database.
//
// The database is derived data: every export drops and recreates the record
// tables inside a single transaction, so reruns leave exactly one
// generation of rows. catalog_meta records the schema version and the run
// id that produced the rows. When you change schema.sql, bump
// schemaVersion.
package catalog
