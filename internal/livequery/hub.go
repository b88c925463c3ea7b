// Package livequery implementa las suscripciones "en vivo": cada suscripción es una
// consulta permanente sobre una colección que se re-evalúa cuando la colección cambia.
package livequery

import (
	"sync"

	"apa-backoffice/internal/platform/logger"
)

// Notifier es lo que los servicios ven del hub: avisar que una colección cambió
// (después de que la escritura fue confirmada por el store).
type Notifier interface {
	Changed(collections ...string)
}

// Observer recibe altas/bajas de suscripciones (métricas).
type Observer interface {
	SubscriptionsChanged(collection string, delta int)
}

type waker interface {
	wake()
}

type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]waker

	log logger.Logger
	obs Observer
}

type HubOption func(*Hub)

func WithLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

func WithObserver(o Observer) HubOption {
	return func(h *Hub) { h.obs = o }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs: map[string]map[uint64]waker{},
		log:  logger.Nop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Changed despierta a todas las suscripciones de las colecciones indicadas.
// No bloquea: cada suscripción colapsa avisos pendientes en una sola re-evaluación.
func (h *Hub) Changed(collections ...string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	targets := make([]waker, 0)
	for _, c := range collections {
		for _, w := range h.subs[c] {
			targets = append(targets, w)
		}
	}
	h.mu.Unlock()

	for _, w := range targets {
		w.wake()
	}
}

// Active devuelve la cantidad de suscripciones vivas.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.subs {
		n += len(m)
	}
	return n
}

func (h *Hub) register(collection string, w waker) uint64 {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	m := h.subs[collection]
	if m == nil {
		m = map[uint64]waker{}
		h.subs[collection] = m
	}
	m[id] = w
	h.mu.Unlock()

	if h.obs != nil {
		h.obs.SubscriptionsChanged(collection, 1)
	}
	h.log.Debug("livequery subscribed", map[string]any{"collection": collection, "sub": id})
	return id
}

func (h *Hub) unregister(collection string, id uint64) {
	h.mu.Lock()
	m := h.subs[collection]
	_, existed := m[id]
	delete(m, id)
	if len(m) == 0 {
		delete(h.subs, collection)
	}
	h.mu.Unlock()

	if !existed {
		return
	}
	if h.obs != nil {
		h.obs.SubscriptionsChanged(collection, -1)
	}
	h.log.Debug("livequery unsubscribed", map[string]any{"collection": collection, "sub": id})
}
