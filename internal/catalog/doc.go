// Package catalog holds the static table of AI models and providers the
// pipeline knows about. The table is validated once at startup and is
// read-only afterwards; lookups are pure and never fall back to a default.
package catalog
