package sink

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"socialsim/internal/logging"
	"socialsim/internal/model"
)

const writeWait = 10 * time.Second

// Frame is one generation as sent to replay clients.
type Frame struct {
	Generation     int                        `json:"generation"`
	PopulationSize int                        `json:"population_size"`
	Proportions    map[model.Behavior]float64 `json:"proportions"`
}

// ReplayHandler upgrades each request to a WebSocket and replays Series one
// generation per frame, waiting Interval between frames, then closes.
type ReplayHandler struct {
	Series   model.MetricsSeries
	Interval time.Duration
	Logger   *slog.Logger

	upgrader websocket.Upgrader
}

func NewReplayHandler(series model.MetricsSeries, interval time.Duration, logger *slog.Logger) *ReplayHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReplayHandler{
		Series:   series,
		Interval: interval,
		Logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func FrameFor(m model.GenerationMetrics) Frame {
	return Frame{Generation: m.Generation, PopulationSize: m.PopulationSize, Proportions: m.Proportions}
}

func (h *ReplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var ticker *time.Ticker
	if h.Interval > 0 {
		ticker = time.NewTicker(h.Interval)
		defer ticker.Stop()
	}

	for i, m := range h.Series {
		if i > 0 && ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
		data, err := json.Marshal(FrameFor(m))
		if err != nil {
			h.Logger.Error("encode frame", "generation", m.Generation, "error", err)
			return
		}
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.Logger.Debug("replay client gone", "remote", r.RemoteAddr, "generation", m.Generation, "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Logger.Debug("replay client gone", "remote", r.RemoteAddr, "generation", m.Generation, "error", err)
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay complete")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	h.Logger.Debug("replay finished", "remote", r.RemoteAddr, "frames", len(h.Series))
}
