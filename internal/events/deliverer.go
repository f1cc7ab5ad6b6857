package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/AgencyBookingService/internal/infra/storage/outbox"
)

const (
	defaultBatchSize      = 25
	defaultInterval       = 2 * time.Second
	defaultLease          = 30 * time.Second
	defaultRetryBaseDelay = 5 * time.Second
	defaultRetryMaxDelay  = 10 * time.Minute

	resultDelivered   = "delivered"
	resultRescheduled = "rescheduled"
	resultDead        = "dead"
)

// Deliverer опрашивает outbox и передает события подписчикам
// Доставка at-least-once: запись помечается доставленной только после успешной обработки всеми подписчиками
type Deliverer struct {
	store   Store
	logger  Logger
	metrics Metrics

	mu        sync.RWMutex
	listeners []Listener

	batchSize      int
	interval       time.Duration
	lease          time.Duration
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration

	now    func() time.Time
	wakeCh chan struct{}
}

// NewDeliverer создает доставщик событий
func NewDeliverer(store Store, logger Logger, metrics Metrics) *Deliverer {
	return &Deliverer{
		store:          store,
		logger:         logger,
		metrics:        metrics,
		batchSize:      defaultBatchSize,
		interval:       defaultInterval,
		lease:          defaultLease,
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
		now:            time.Now,
		wakeCh:         make(chan struct{}, 1),
	}
}

func (d *Deliverer) WithBatchSize(size int) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *Deliverer) WithLease(lease time.Duration) *Deliverer {
	if lease > 0 {
		d.lease = lease
	}
	return d
}

// WithRetryDelays задает границы экспоненциальной задержки повторов
func (d *Deliverer) WithRetryDelays(base, max time.Duration) *Deliverer {
	if base > 0 {
		d.retryBaseDelay = base
	}
	if max >= d.retryBaseDelay {
		d.retryMaxDelay = max
	}
	return d
}

// Subscribe регистрирует подписчика
func (d *Deliverer) Subscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Notify будит цикл доставки, не дожидаясь тикера. Не блокируется
func (d *Deliverer) Notify() {
	if d == nil {
		return
	}
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

// Start запускает цикл доставки до отмены контекста
func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		case <-d.wakeCh:
			d.Drain(ctx)
		}
	}
}

// Drain обрабатывает одну пачку событий и возвращает число обработанных записей
func (d *Deliverer) Drain(ctx context.Context) int {
	entries, err := d.store.ClaimPending(ctx, d.batchSize, d.lease)
	if err != nil {
		d.logger.Error("outbox - claim pending entries failed: %v", err)
		return 0
	}
	if len(entries) == 0 {
		return 0
	}

	for _, event := range d.coalesce(entries) {
		d.deliver(ctx, event)
	}

	return len(entries)
}

// coalesce схлопывает записи по заявке, сохраняя порядок первого появления
func (d *Deliverer) coalesce(entries []outbox.Entry) []Event {
	index := make(map[int64]int, len(entries))
	result := make([]Event, 0, len(entries))

	for _, entry := range entries {
		var change StatusChange
		if len(entry.Payload) > 0 {
			if err := json.Unmarshal(entry.Payload, &change); err != nil {
				d.logger.Warn("outbox - entry %s has malformed payload: %v", entry.ID, err)
			}
		}

		i, ok := index[entry.LeadID]
		if !ok {
			index[entry.LeadID] = len(result)
			result = append(result, Event{
				LeadID:    entry.LeadID,
				Type:      entry.Type,
				OldStatus: change.OldStatus,
				NewStatus: change.NewStatus,
				Attempts:  entry.Attempts,
				EntryIDs:  []uuid.UUID{entry.ID},
			})
			continue
		}

		event := &result[i]
		event.EntryIDs = append(event.EntryIDs, entry.ID)
		if entry.Type == TypeStatusChanged {
			event.Type = TypeStatusChanged
		}
		if change.NewStatus != "" {
			event.NewStatus = change.NewStatus
		}
		if entry.Attempts > event.Attempts {
			event.Attempts = entry.Attempts
		}
	}

	return result
}

func (d *Deliverer) deliver(ctx context.Context, event Event) {
	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	var deliveryErr error
	for _, listener := range listeners {
		if err := listener.HandleLeadEvent(ctx, event); err != nil {
			deliveryErr = err
			if errors.Is(err, ErrFatal) {
				break
			}
		}
	}

	switch {
	case deliveryErr == nil:
		if err := d.store.MarkDelivered(ctx, event.EntryIDs); err != nil {
			d.logger.Error("outbox - mark delivered failed for lead %d: %v", event.LeadID, err)
			return
		}
		d.metrics.IncOutboxDelivery(resultDelivered)
		d.logger.Debug("outbox - delivered %d entries for lead %d", len(event.EntryIDs), event.LeadID)

	case errors.Is(deliveryErr, ErrFatal):
		for _, id := range event.EntryIDs {
			if err := d.store.MarkDead(ctx, id, deliveryErr.Error()); err != nil {
				d.logger.Error("outbox - mark dead failed for entry %s: %v", id, err)
			}
		}
		d.metrics.IncOutboxDelivery(resultDead)
		d.logger.Error("ALERT: outbox - lead %d requires manual reconciliation: %v", event.LeadID, deliveryErr)

	default:
		next := d.now().Add(d.backoff(event.Attempts))
		for _, id := range event.EntryIDs {
			if err := d.store.Reschedule(ctx, id, next, deliveryErr.Error()); err != nil {
				d.logger.Error("outbox - reschedule failed for entry %s: %v", id, err)
			}
		}
		d.metrics.IncOutboxDelivery(resultRescheduled)
		d.logger.Warn("outbox - delivery for lead %d failed (attempt %d), retry at %s: %v",
			event.LeadID, event.Attempts+1, next.Format(time.RFC3339), deliveryErr)
	}
}

// backoff base * 2^attempts, не больше retryMaxDelay
func (d *Deliverer) backoff(attempts int) time.Duration {
	delay := d.retryBaseDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= d.retryMaxDelay {
			return d.retryMaxDelay
		}
	}
	return delay
}
