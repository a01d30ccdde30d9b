package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/models"
)

// Batcher buffers raw sync events and flushes them to the action sink in
// bounded batches. Intake is a bounded channel drained by one consumer
// goroutine; a flush above the threshold snapshots the buffer and inserts
// asynchronously so paginators keep fetching while the write is in flight.
// Drain is the only point that waits for everything.
type Batcher struct {
	sink      ActionSink
	threshold int
	log       *zap.Logger

	ch   chan *models.RawSyncEvent
	buf  []*models.RawSyncEvent
	done chan struct{}

	flushes  sync.WaitGroup
	mu       sync.Mutex
	flushErr error
}

func NewBatcher(sink ActionSink, threshold, capacity int, log *zap.Logger) *Batcher {
	b := &Batcher{
		sink:      sink,
		threshold: threshold,
		log:       log,
		ch:        make(chan *models.RawSyncEvent, capacity),
		done:      make(chan struct{}),
	}
	go b.consume()
	return b
}

// Push enqueues one event, blocking when the intake channel is full. Must not
// be called after Drain.
func (b *Batcher) Push(ctx context.Context, event *models.RawSyncEvent) error {
	select {
	case b.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes intake, waits for the consumer and all in-flight flushes, then
// synchronously flushes whatever remains below the threshold. Returns the
// first flush error of the whole run.
func (b *Batcher) Drain(ctx context.Context) error {
	close(b.ch)
	<-b.done
	b.flushes.Wait()

	if len(b.buf) > 0 {
		b.recordErr(b.flush(ctx, b.buf))
		b.buf = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushErr
}

func (b *Batcher) consume() {
	defer close(b.done)
	for event := range b.ch {
		b.buf = append(b.buf, event)
		if len(b.buf) <= b.threshold {
			continue
		}

		snapshot := b.buf
		b.buf = nil
		b.log.Info("inserting actions to database", zap.Int("count", len(snapshot)))

		b.flushes.Add(1)
		go func() {
			defer b.flushes.Done()
			b.recordErr(b.flush(context.Background(), snapshot))
		}()
	}
}

// flush groups a snapshot by the leading word of the action name (for
// per-group logging), formats each event, and bulk-inserts group by group.
func (b *Batcher) flush(ctx context.Context, events []*models.RawSyncEvent) error {
	groups := make(map[string][]*models.RawSyncEvent)
	var order []string
	for _, event := range events {
		group := strings.ToLower(strings.SplitN(event.ActionName, " ", 2)[0])
		if _, seen := groups[group]; !seen {
			order = append(order, group)
		}
		groups[group] = append(groups[group], event)
	}

	for _, group := range order {
		groupEvents := groups[group]
		b.log.Info("processing actions",
			zap.String("group", group), zap.Int("count", len(groupEvents)))

		actions := make([]*models.Action, 0, len(groupEvents))
		for _, event := range groupEvents {
			actions = append(actions, FormatAction(event))
		}
		if err := b.sink.InsertActions(ctx, actions); err != nil {
			return fmt.Errorf("failed to insert %s actions: %w", group, err)
		}
	}
	return nil
}

func (b *Batcher) recordErr(err error) {
	if err == nil {
		return
	}
	b.log.Error("error inserting actions", zap.Error(err))
	b.mu.Lock()
	if b.flushErr == nil {
		b.flushErr = err
	}
	b.mu.Unlock()
}

// FormatAction turns a raw sync event into its persisted form: the per-type
// property buckets merged into one filtered map, everything else copied
// verbatim.
func FormatAction(event *models.RawSyncEvent) *models.Action {
	merged := make(map[string]models.PropertyValue)
	for _, bucket := range []map[string]models.PropertyValue{
		event.MeetingProperties,
		event.CompanyProperties,
		event.UserProperties,
	} {
		for key, value := range bucket {
			merged[key] = value
		}
	}

	return &models.Action{
		Type:               event.ActionName,
		Timestamp:          event.ActionDate,
		Properties:         FilterProperties(merged),
		Identity:           event.Identity,
		IncludeInAnalytics: event.IncludeInAnalytics,
	}
}
