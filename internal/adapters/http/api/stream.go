package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/logger"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleStream replays a job's recorded events over a websocket, then
// forwards live ones until the job reaches a terminal status.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snap, live, err := s.deps.Stream(ctx, id)
	if err != nil {
		s.fail(w, r, Wrap("api.stream_story", err))
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(ctx, "stream upgrade failed", logger.String("jobID", id), logger.Error(err))
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	// Reads only serve control frames; any error ends the stream.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg types.StreamMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}
	done := func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
			time.Now().Add(streamWriteWait))
	}

	for i := range snap.Events {
		if err := send(types.StreamMessage{Type: types.StreamEvent, Seq: i + 1, Event: &snap.Events[i]}); err != nil {
			return
		}
	}
	if snap.Status.Terminal() {
		_ = send(types.StreamMessage{Type: types.StreamStatus, Status: snap.Status, Error: snap.Error})
		done()
		return
	}
	if err := send(types.StreamMessage{Type: types.StreamStatus, Status: snap.Status}); err != nil {
		return
	}

	seen := len(snap.Events)
	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-live:
			if !ok {
				done()
				return
			}
			if msg.Type == types.StreamEvent {
				if msg.Seq <= seen {
					continue
				}
				seen = msg.Seq
			}
			if err := send(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
