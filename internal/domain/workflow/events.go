package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"apa-backoffice/internal/platform/logger"
)

// Event se emite después de persistir una transición (nunca para no-ops).
type Event struct {
	Machine  string
	RecordID string
	From     string
	To       string
	Actor    Actor
	At       time.Time

	// Record es una copia del registro ya actualizado, para hooks que necesitan datos.
	Record any
}

type Handler func(ctx context.Context, e Event) error

// AllMachines suscribe un handler a todas las máquinas.
const AllMachines = "*"

// Bus desacopla los side effects (historia de éxito, métricas) de la máquina.
// Los handlers corren en la goroutine del llamador; sus errores se loguean y no se propagan.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		handlers: map[string][]Handler{},
		log:      log,
	}
}

func (b *Bus) Subscribe(machine string, h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[machine] = append(b.handlers[machine], h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[e.Machine])+len(b.handlers[AllMachines]))
	hs = append(hs, b.handlers[e.Machine]...)
	hs = append(hs, b.handlers[AllMachines]...)
	b.mu.RUnlock()

	for _, h := range hs {
		b.run(ctx, h, e)
	}
}

func (b *Bus) run(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("workflow hook panic", map[string]any{
				"machine": e.Machine,
				"record":  e.RecordID,
				"panic":   fmt.Sprint(r),
			})
		}
	}()

	if err := h(ctx, e); err != nil {
		b.log.Warn("workflow hook failed", map[string]any{
			"machine": e.Machine,
			"record":  e.RecordID,
			"to":      e.To,
			"err":     err.Error(),
		})
	}
}
