// Package dataset parses and supplies the labeled reference shapes the
// classifier compares against.
//
// # Row Format
//
// One row per line:
//
//	label,h1,h2,h3,h4,h5,h6,h7
//
// where h1..h7 are raw Hu invariants. Rows that do not yield a non-empty
// label and exactly seven finite values are skipped, never reported as
// errors. Every kept row is log-transformed and normalized at parse time, so
// entries are ready for distance comparison.
//
// # Sources
//
// A Supplier produces the dataset bytes: StaticSupplier for in-memory data,
// FileSupplier for local files, AzureBlobSupplier for Azure Blob Storage.
// Supplier failures are reported as dataset unavailable errors.
//
// # Caching
//
// Cache keeps parsed datasets keyed by content hash. It is safe for
// concurrent use.
package dataset
