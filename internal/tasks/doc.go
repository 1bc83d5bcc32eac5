// Package tasks runs the playlist ingestion pipeline with real-time progress reporting.
//
// # Pipeline
//
// [Ingester.Ingest] turns a Spotify playlist link into an ordered list of [models.Track]:
//
//  1. Validate the link and extract the playlist id (no request is made for a bad link)
//  2. Fetch pages of playlist items in cursor order until the cursor is exhausted
//  3. Drop items without a track or without a name
//  4. Clean the title with [normalize.Title]
//  5. Reconcile the release year with [Reconciler.Reconcile]
//
// Tracks are processed strictly one after another. A failed page fetch aborts the run without a
// partial result; a failed metadata lookup only degrades that track to its fallback year.
//
// # Year Reconciliation
//
// [Reconciler] asks the primary source (Spotify's per-track endpoint) for the album release date,
// pauses for the configured pacing interval, and merges the result with the fallback date that came
// with the playlist item by taking the earliest year. When MusicBrainz is enabled, a Found answer
// can only move the year earlier. Every other answer keeps the baseline.
//
// # Batches
//
// [Ingester.IngestMany] runs several ingestions on a small worker pool, writes one deck per
// playlist and a manifest.json next to them.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
