package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Cocktails/pkg/kit"
	"Cocktails/pkg/watch"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
)

// serveStream upgrades the request and writes every value from subscribe to the socket as
// JSON. Inbound text messages go to handle; its errors are reported back on the socket.
// The stream ends when either side closes.
func serveStream[T any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	subscribe func(ctx context.Context) *watch.Subscription[T],
	handle func(ctx context.Context, msg []byte) error,
) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.log.With(zap.String("stream", id), zap.String("path", r.URL.Path))
	log.Debug("stream opened")
	defer log.Debug("stream closed")

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sub := subscribe(ctx)
	defer sub.Close()

	notices := make(chan kit.ErrorResponse, 8)
	go func() {
		defer cancel()
		readLoop(ctx, conn, log, handle, notices)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case v, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeJSON(conn, v); err != nil {
				log.Debug("stream write failed", zap.Error(err))
				return
			}

		case n := <-notices:
			if err := writeJSON(conn, n); err != nil {
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	log *zap.Logger,
	handle func(ctx context.Context, msg []byte) error,
	notices chan<- kit.ErrorResponse,
) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("stream read failed", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		if err := handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			n := kit.ErrorResponse{Error: err.Error()}
			if errors.Is(err, errBadIntent) {
				n.Code = "bad_request"
			}
			select {
			case notices <- n:
			default:
				log.Debug("notice dropped", zap.Error(err))
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
