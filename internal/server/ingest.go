package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// IngestMessage is one frame of an ingestion stream.
//
// The last frame has phase ingest_done with the finished deck, or ingest_failed with an error.
type IngestMessage struct {
	Phase   tasks.Phase     `json:"phase"`
	Step    int             `json:"step"`
	Total   int             `json:"total,omitempty"`
	Message string          `json:"message"`
	Track   *models.Track   `json:"track,omitempty"`
	Deck    *formatter.Deck `json:"deck,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// IngestHandler streams a playlist ingestion over a websocket: GET /ingest/ws?url=<playlist>.
//
// The ingestion is cancelled when the client goes away.
type IngestHandler struct {
	ingester tasks.PlaylistIngester
	deck     formatter.DeckOptions
	metrics  *Metrics
	logger   *log.Logger
}

// NewIngestHandler creates an IngestHandler building decks with deck.
func NewIngestHandler(ingester tasks.PlaylistIngester, deck formatter.DeckOptions, metrics *Metrics, logger *log.Logger) *IngestHandler {
	return &IngestHandler{ingester: ingester, deck: deck, metrics: metrics, logger: logger}
}

func (h *IngestHandler) Routes() []string {
	return []string{"/ingest/ws"}
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playlistURL := r.URL.Query().Get("url")
	if playlistURL == "" {
		writeError(w, http.StatusBadRequest, "Missing url query parameter.")
		return
	}
	id, err := tasks.PlaylistID(playlistURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Spotify playlist URL.")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	h.metrics.ingestStreams.Inc()
	defer h.metrics.ingestStreams.Dec()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go discardReads(conn, cancel)

	progress := make(chan tasks.ProgressUpdate, 64)
	type outcome struct {
		tracks []models.Track
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		tracks, err := h.ingester.Ingest(ctx, playlistURL, progress)
		close(progress)
		done <- outcome{tracks, err}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	logger := h.logger.With("playlist", id)
	logger.Info("ingest stream opened")

	for progress != nil {
		select {
		case u, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			if u.Phase == tasks.IngestDone || u.Phase == tasks.IngestFailed {
				continue
			}
			if err := h.write(conn, progressMessage(u)); err != nil {
				logger.Warn("client went away", "err", err)
				cancel()
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
			}
		}
	}

	res := <-done
	final := IngestMessage{Phase: tasks.IngestFailed}
	if res.err != nil {
		final.Message = "Ingestion failed."
		final.Error = res.err.Error()
		logger.Warn("ingest stream failed", "err", res.err)
	} else {
		opts := h.deck
		opts.PlaylistID = id
		final.Phase = tasks.IngestDone
		final.Deck = formatter.BuildDeck(res.tracks, opts)
		final.Step, final.Total = len(res.tracks), len(res.tracks)
		final.Message = "Deck ready."
		logger.Info("ingest stream finished", "tracks", len(res.tracks))
	}

	if err := h.write(conn, final); err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *IngestHandler) write(conn *websocket.Conn, msg IngestMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func progressMessage(u tasks.ProgressUpdate) IngestMessage {
	msg := IngestMessage{Phase: u.Phase, Step: u.Step, Total: u.Total, Message: u.Message}
	if tr, ok := u.Data.(models.Track); ok {
		msg.Track = &tr
	}
	return msg
}

// discardReads consumes control frames and cancels the stream once the peer disconnects.
func discardReads(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
