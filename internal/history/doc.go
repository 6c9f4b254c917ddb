// Package history persists pipeline run records in SQLite so completed and
// failed runs can be inspected after the fact.
package history
