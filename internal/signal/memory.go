package signal

import "sync"

// MemoryHub is the in-process Hub used when a client runs standalone.
type MemoryHub struct {
	mu       sync.Mutex
	closed   bool
	nextID   int
	eventSub map[int]chan struct{}
	alertSub map[int]chan Alert
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		eventSub: make(map[int]chan struct{}),
		alertSub: make(map[int]chan Alert),
	}
}

func (h *MemoryHub) PublishEventsChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.eventSub {
		select {
		case ch <- struct{}{}:
		default: // subscriber already has a pending tick
		}
	}
}

func (h *MemoryHub) PublishAlert(alert Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.alertSub {
		select {
		case ch <- alert:
		default: // slow subscriber drops the alert
		}
	}
}

func (h *MemoryHub) SubscribeEventsChanged() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.eventSub[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.eventSub[id]; ok {
			delete(h.eventSub, id)
			close(ch)
		}
	}
}

func (h *MemoryHub) SubscribeAlerts() (<-chan Alert, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Alert, alertBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.alertSub[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.alertSub[id]; ok {
			delete(h.alertSub, id)
			close(ch)
		}
	}
}

func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.eventSub {
		delete(h.eventSub, id)
		close(ch)
	}
	for id, ch := range h.alertSub {
		delete(h.alertSub, id)
		close(ch)
	}
	return nil
}
