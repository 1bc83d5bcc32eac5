package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// BatchOpts contains configuration for ingesting several playlists into separate decks.
type BatchOpts struct {
	Format        formatter.Format      // Export format: json, csv, markdown, txt
	OutputDir     string                // Base output directory (default: tunequest_decks_{epoch})
	NumWorkers    int                   // Concurrent ingestions (default: 2)
	StartInterval time.Duration         // Minimum gap between ingestion starts (default: 1s)
	Deck          formatter.DeckOptions // Owner and code type applied to every deck
}

// PlaylistResult is the outcome of one playlist in a batch.
type PlaylistResult struct {
	PlaylistURL string `json:"playlist_url"`
	PlaylistID  string `json:"playlist_id,omitempty"`
	Cards       int    `json:"cards"`
	File        string `json:"file,omitempty"`
	Error       error  `json:"-"`
	Message     string `json:"error,omitempty"`
}

// BatchResult summarizes a batch and points at the manifest written next to the decks.
type BatchResult struct {
	TotalPlaylists  int              `json:"total_playlists"`
	Succeeded       int              `json:"succeeded"`
	Failed          int              `json:"failed"`
	OutputDirectory string           `json:"output_directory"`
	ManifestPath    string           `json:"-"`
	Results         []PlaylistResult `json:"results"`
}

type batchJob struct {
	index int
	url   string
}

type batchResult struct {
	index int
	res   PlaylistResult
}

// IngestMany ingests several playlists concurrently and writes one deck file per playlist.
//
// Tracks inside a playlist are still processed strictly in order; only whole playlists run in
// parallel, sharing the reconciler and therefore the MusicBrainz queue. A failed playlist is
// recorded in the result and does not stop the others. A manifest.json summarizing the batch
// is written to the output directory.
func (i *Ingester) IngestMany(ctx context.Context, prog chan<- ProgressUpdate, urls []string, opts BatchOpts) (*BatchResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no playlist URLs given", shared.ErrMissingArgument)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tunequest_decks_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 4 {
		opts.NumWorkers = 4
	}
	if opts.StartInterval <= 0 {
		opts.StartInterval = time.Second
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		TotalPlaylists:  len(urls),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistResult, len(urls)),
	}

	limiter := rate.NewLimiter(rate.Every(opts.StartInterval), 1)
	jobs := make(chan batchJob, len(urls))
	results := make(chan batchResult, len(urls))

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go i.batchWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for idx, u := range urls {
		jobs <- batchJob{index: idx, url: u}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for r := range results {
		completed++
		result.Results[r.index] = r.res
		if r.res.Error != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		sendProgress(prog, batchPlaylistUpdate(completed, len(urls), r.res))
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	f, err := os.Create(manifestPath)
	if err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	defer f.Close()
	if err := shared.WriteJSON(f, result); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// batchWorker ingests playlists from the jobs channel until it is drained.
func (i *Ingester) batchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan batchJob,
	results chan<- batchResult,
	opts BatchOpts,
) {
	defer wg.Done()

	for j := range jobs {
		res := PlaylistResult{PlaylistURL: j.url}
		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
		} else {
			res = i.ingestOne(ctx, j.url, opts)
		}
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		results <- batchResult{index: j.index, res: res}
	}
}

// ingestOne ingests a single playlist and writes its deck.
func (i *Ingester) ingestOne(ctx context.Context, url string, opts BatchOpts) PlaylistResult {
	res := PlaylistResult{PlaylistURL: url}

	id, err := PlaylistID(url)
	if err != nil {
		res.Error = err
		return res
	}
	res.PlaylistID = id

	tracks, err := i.Ingest(ctx, url, nil)
	if err != nil {
		res.Error = err
		return res
	}

	deckOpts := opts.Deck
	deckOpts.PlaylistID = id
	deck := formatter.BuildDeck(tracks, deckOpts)

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_deck.%s", id, opts.Format.Extension()))
	file, err := formatter.WriteDeck(deck, opts.Format, path)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}

	res.Cards = len(deck.Cards)
	res.File = file
	return res
}
