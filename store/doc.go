// Package store provides the type-safe key-value record threaded between
// dialog steps.
//
// The store is the unit of "passover" and overlay data: handlers read the
// data a previous step produced, write the data the next step will receive,
// and the series engine merges overlay records into it at fixed positions.
// Values keep their concrete Go types; retrieval is generic and fails with
// ErrTypeMismatch rather than silently coercing.
//
// Merging and cloning are deep-copy operations so that two steps never share
// references through the threaded record.
package store
