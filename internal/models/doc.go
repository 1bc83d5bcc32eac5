// Package models defines the domain entities shared by the ingestion pipeline, the lookup proxy and the deck formatter.
//
//   - [Track] : a playlist entry after title normalization and year reconciliation
//   - [Year] : a 4-digit release year, or [UnknownYear]
//   - [Card] : a [Track] placed on a printable deck page together with its scannable code payload
//
// Years are fixed-width strings, so lexical order equals chronological order.
// [EarliestYear] relies on this and never synthesizes a value that was not one of its inputs.
package models
