package tasks

import (
	"fmt"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	ReconcileTrack
	SkipTrack
	IngestDone
	IngestFailed
	BatchPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case ReconcileTrack:
		return "reconcile_track"
	case SkipTrack:
		return "skip_track"
	case IngestDone:
		return "ingest_done"
	case IngestFailed:
		return "ingest_failed"
	case BatchPlaylist:
		return "batch_playlist"
	default:
		return ""
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func fetchPageUpdate(page, offset int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Message: fmt.Sprintf("Fetching playlist page %d (offset %d)...", page, offset),
	}
}

func reconcileTrackUpdate(step int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileTrack,
		Step:    step,
		Message: fmt.Sprintf("[%d] %s - %s (%s)", step, tr.ArtistLine(), tr.Title, tr.Year),
		Data:    tr,
	}
}

func skipTrackUpdate(step, position int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipTrack,
		Step:    step,
		Message: fmt.Sprintf("Skipping playlist item %d without a playable track", position),
	}
}

func ingestDoneUpdate(tracks []models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IngestDone,
		Step:    len(tracks),
		Total:   len(tracks),
		Message: fmt.Sprintf("Ingested %d tracks", len(tracks)),
		Data:    tracks,
	}
}

func ingestFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IngestFailed,
		Message: fmt.Sprintf("✗ %v", err),
		Data:    err,
	}
}

func batchPlaylistUpdate(step, total int, res PlaylistResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   BatchPlaylist,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.PlaylistID, res.Error),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   BatchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d cards)", step, total, res.PlaylistID, res.Cards),
		Data:    res,
	}
}
