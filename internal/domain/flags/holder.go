package flags

import (
	"context"
	"sync/atomic"

	"apa-backoffice/internal/livequery"
	"apa-backoffice/internal/platform/logger"
)

// Holder mantiene los flags vigentes para todo el proceso. Implementa
// middleware.FlagChecker. Antes del primer snapshot todo está encendido.
type Holder struct {
	cur atomic.Pointer[Flags]
	log logger.Logger
}

func NewHolder(log logger.Logger) *Holder {
	if log == nil {
		log = logger.Nop()
	}
	h := &Holder{log: log}
	h.cur.Store(&Flags{})
	return h
}

func (h *Holder) Enabled(name string) bool {
	return h.Current().Enabled(name)
}

func (h *Holder) Current() Flags {
	return *h.cur.Load()
}

func (h *Holder) set(f Flags) {
	if f == nil {
		f = Flags{}
	}
	h.cur.Store(&f)
}

// Run sigue el documento de flags hasta que ctx se cancele. Si una lectura falla
// se conserva el último valor conocido.
func (h *Holder) Run(ctx context.Context, hub *livequery.Hub, fetch livequery.FetchFunc[Flags]) {
	sub := livequery.Subscribe(ctx, hub, FlagsCollection, fetch)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			switch snap.State() {
			case livequery.StateReady:
				h.set(snap.Records[0])
			case livequery.StateEmpty:
				h.set(nil)
			default:
				h.log.Warn("flags refresh failed", map[string]any{
					"state": string(snap.State()),
					"err":   snap.Err.Error(),
				})
			}
		}
	}
}
