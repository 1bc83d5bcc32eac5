package musicbrainz

import (
	"fmt"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
)

// Outcome tags a lookup [Result].
type Outcome int

const (
	// Found means at least one candidate carried a usable first release date.
	Found Outcome = iota
	// NotFound means the search succeeded but no candidate had a year.
	NotFound
	// TransientFailure means the retry budget ran out, or the lookup was cancelled.
	TransientFailure
	// HardFailure means MusicBrainz answered with a non-retryable status or an unreadable body.
	HardFailure
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case TransientFailure:
		return "transient_failure"
	case HardFailure:
		return "hard_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the tagged outcome of a single lookup.
//
// Year is only set for [Found]. Status holds the upstream HTTP status of the last
// attempt, or 0 when no response arrived.
type Result struct {
	Outcome  Outcome     `json:"outcome"`
	Year     models.Year `json:"year,omitempty"`
	Status   int         `json:"status,omitempty"`
	Attempts int         `json:"attempts"`
	Err      error       `json:"-"`
}

// Succeeded reports whether the lookup reached MusicBrainz and got an answer, with or without a year.
func (r Result) Succeeded() bool {
	return r.Outcome == Found || r.Outcome == NotFound
}

func found(year models.Year, attempts int) Result {
	return Result{Outcome: Found, Year: year, Status: 200, Attempts: attempts}
}

func notFound(attempts int) Result {
	return Result{Outcome: NotFound, Status: 200, Attempts: attempts}
}

func transient(status, attempts int, err error) Result {
	return Result{Outcome: TransientFailure, Status: status, Attempts: attempts, Err: err}
}

func hard(status, attempts int, err error) Result {
	return Result{Outcome: HardFailure, Status: status, Attempts: attempts, Err: err}
}
