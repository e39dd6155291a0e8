// Package worker reacts to reference-data change events by invalidating
// derived caches.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// HistoryInvalidator drops a cached FX history table.
type HistoryInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Worker subscribes to offer and FX update topics. Comparison cache keys
// embed generation counters, so bumping a counter retires every entry built
// on the old data without enumerating keys.
type Worker struct {
	bus     domain.EventBus
	cache   domain.Cache
	history HistoryInvalidator

	subscriptions []domain.Subscription
	processed     atomic.Int64
	failed        atomic.Int64
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new invalidation worker. history may be nil.
func NewWorker(b domain.EventBus, c domain.Cache, history HistoryInvalidator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     b,
		cache:   c,
		history: history,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to both update topics.
func (w *Worker) Start() error {
	handlers := map[string]domain.MessageHandler{
		domain.TopicOffersUpdated: w.handleOffersUpdated,
		domain.TopicFXUpdated:     w.handleFXUpdated,
	}

	for _, topic := range []string{domain.TopicOffersUpdated, domain.TopicFXUpdated} {
		sub, err := w.bus.Subscribe(w.ctx, topic, w.track(handlers[topic]))
		if err != nil {
			w.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		w.subscriptions = append(w.subscriptions, sub)
	}

	slog.Info("invalidation worker started",
		"topics", len(w.subscriptions),
	)
	return nil
}

func (w *Worker) track(h domain.MessageHandler) domain.MessageHandler {
	return func(ctx context.Context, msg *domain.Message) error {
		if err := h(ctx, msg); err != nil {
			w.failed.Add(1)
			return err
		}
		w.processed.Add(1)
		return nil
	}
}

func (w *Worker) handleOffersUpdated(ctx context.Context, msg *domain.Message) error {
	var event domain.OffersUpdatedEvent
	if err := bus.Decode(msg, &event); err != nil {
		return err
	}
	if event.SenderCountry == "" || event.ReceiverCountry == "" {
		return fmt.Errorf("offers update %s has no corridor", msg.ID)
	}

	gen, err := w.cache.BumpGeneration(ctx, cache.CorridorGenerationKey(event.SenderCountry, event.ReceiverCountry))
	if err != nil {
		return fmt.Errorf("failed to bump corridor generation: %w", err)
	}

	slog.Info("corridor cache invalidated",
		"sender_country", event.SenderCountry,
		"receiver_country", event.ReceiverCountry,
		"platform", event.Platform,
		"generation", gen,
	)
	return nil
}

func (w *Worker) handleFXUpdated(ctx context.Context, msg *domain.Message) error {
	var event domain.FXUpdatedEvent
	if err := bus.Decode(msg, &event); err != nil {
		return err
	}

	if w.history != nil {
		if err := w.history.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to invalidate fx history: %w", err)
		}
	}

	gen, err := w.cache.BumpGeneration(ctx, cache.FXGenerationKey)
	if err != nil {
		return fmt.Errorf("failed to bump fx generation: %w", err)
	}

	slog.Info("fx cache invalidated",
		"base_currency", event.BaseCurrency,
		"target_currency", event.TargetCurrency,
		"generation", gen,
	)
	return nil
}

// Stop unsubscribes from every topic.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("invalidation worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	Processed         int64    `json:"processed"`
	Failed            int64    `json:"failed"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		Processed:         w.processed.Load(),
		Failed:            w.failed.Load(),
	}
}
