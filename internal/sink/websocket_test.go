package sink

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"socialsim/internal/logging"
	"socialsim/internal/model"
)

func replaySeries(n int) model.MetricsSeries {
	series := make(model.MetricsSeries, 0, n)
	for i := 1; i <= n; i++ {
		series = append(series, model.GenerationMetrics{
			Generation:     i,
			PopulationSize: i * 10,
			Proportions:    map[model.Behavior]float64{model.Cowardice: 0.5, model.Spite: 0.5},
		})
	}
	return series
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestReplayHandlerSendsOneFramePerGeneration(t *testing.T) {
	srv := httptest.NewServer(NewReplayHandler(replaySeries(4), time.Millisecond, nil))
	defer srv.Close()

	conn := dial(t, srv)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frames []Frame
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal closure, got %v", err)
			}
			break
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		frames = append(frames, frame)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	for i, frame := range frames {
		if frame.Generation != i+1 || frame.PopulationSize != (i+1)*10 {
			t.Fatalf("unexpected frame %d: %+v", i, frame)
		}
		if frame.Proportions[model.Spite] != 0.5 {
			t.Fatalf("frame %d lost proportions: %+v", i, frame.Proportions)
		}
	}
}

func TestReplayHandlerEmptySeriesClosesImmediately(t *testing.T) {
	srv := httptest.NewServer(NewReplayHandler(nil, 0, nil))
	defer srv.Close()

	conn := dial(t, srv)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected immediate normal closure, got %v", err)
	}
}

func TestReplayHandlerRejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(NewReplayHandler(replaySeries(1), 0, nil))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for non-websocket request, got %d", resp.StatusCode)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReplayHandlerStopsWhenClientLeaves(t *testing.T) {
	var logs lockedBuffer
	handler := NewReplayHandler(replaySeries(200), 5*time.Millisecond, logging.NewLogger("debug", &logs))
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	conn := dial(t, srv)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	_ = conn.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler kept replaying after the client left")
	}
	out := logs.String()
	if !strings.Contains(out, "replay client gone") || strings.Contains(out, "replay finished") {
		t.Fatalf("expected replay to stop early, logs:\n%s", out)
	}
}
