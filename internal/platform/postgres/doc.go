// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles query execution over pgx, mapping between domain entities and
// database records, and the embedded goose migrations that create the schema.
package postgres
