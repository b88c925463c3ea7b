package livequery

import (
	"context"
	"net/http"
	"time"

	"apa-backoffice/internal/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// el front vive en otro origen (PWA); la auth va por token
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame es lo que viaja por el websocket en cada snapshot.
type Frame struct {
	Seq         uint64 `json:"seq"`
	State       State  `json:"state"`
	Records     any    `json:"records"`
	Error       string `json:"error,omitempty"`
	Speculative bool   `json:"speculative,omitempty"`
	// Discarded marca el snapshot que anula un frame especulativo anterior.
	Discarded bool `json:"discarded,omitempty"`
}

func FrameOf[T any](s Snapshot[T]) Frame {
	f := Frame{Seq: s.Seq, State: s.State(), Records: s.Records}
	if s.Records == nil {
		f.Records = []T{}
	}
	if s.Err != nil {
		f.Error = s.Err.Error()
	}
	return f
}

// SendFunc escribe un frame al cliente.
type SendFunc func(Frame) error

// PumpFunc produce frames hasta que ctx se cancela (cliente desconectado).
type PumpFunc func(ctx context.Context, send SendFunc) error

// Pump reenvía cada snapshot de la suscripción como frame.
func Pump[T any](sub *Subscription[T]) PumpFunc {
	return func(ctx context.Context, send SendFunc) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap, ok := <-sub.C():
				if !ok {
					return nil
				}
				if err := send(FrameOf(snap)); err != nil {
					return err
				}
			}
		}
	}
}

// Serve hace el upgrade y corre pump hasta que el cliente se va.
// El llamador es dueño de la suscripción y debe cerrarla cuando Serve retorna.
func Serve(w http.ResponseWriter, r *http.Request, log logger.Logger, pump PumpFunc) {
	if log == nil {
		log = logger.Nop()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", map[string]any{"err": err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// lector: solo procesa control frames y detecta desconexión
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	send := func(f Frame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	if err := pump(ctx, send); err != nil {
		log.Debug("websocket closed", map[string]any{"err": err.Error()})
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
