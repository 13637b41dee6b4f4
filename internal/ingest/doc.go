// Package ingest runs the background sweep that turns staged captures into
// cataloged, categorized library recordings.
package ingest
