// Package catalog persists categories, recordings, and processed-file markers
// in SQLite.
//
// The Store manages database connections, schema initialization, and typed
// access to the three record sets. Categories hold the centroid embedding and
// optional spoken-name audio path; recordings reference exactly one category;
// processed-file markers guarantee an archival file is ingested at most once
// (membership is tested on the lower-cased filename).
//
// Treat this package as the single source of truth for catalog semantics;
// schema changes bump the version in schema.go and require clearing the
// database.
package catalog
