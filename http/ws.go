package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobinette/seedgraph/log"
	"github.com/bobinette/seedgraph/metrics"
	"github.com/bobinette/seedgraph/services"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LayoutStream sends every layout frame of the current graph to a websocket
// client. A reload of the graph ends the stream.
type LayoutStream struct {
	Graphs  *services.GraphService
	Metrics *metrics.Metrics
	Logger  log.Logger
}

func RegisterLayoutStream(srv Server, h *LayoutStream) {
	srv.RegisterHandler("/api/layout/ws", "GET", h)
}

func (h *LayoutStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	frames, unsubscribe, err := h.Graphs.Subscribe()
	if err != nil {
		encodeError(r.Context(), err, w)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.Logger.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if h.Metrics != nil {
		h.Metrics.Subscribers.Inc()
		defer h.Metrics.Subscribers.Dec()
	}

	// The client does not send anything: reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case frame, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				h.Logger.Debugf("websocket write failed: %v", err)
				return
			}
		}
	}
}
