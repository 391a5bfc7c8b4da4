package events

import (
	"context"
	"encoding/json"
	"sync"
	"testlab/config"
	"testlab/internal/database"
	"testlab/internal/logger"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	ChannelInvalidation = "invalidation"
	ChannelBroadcast    = "broadcast"

	TypeInvalidate = "invalidate"
	TypeAdmin      = "admin"

	resubscribeDelay = time.Second
)

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Handler func(Event)

// EventBus fans events out to local subscribers. With a cache client the
// events travel through valkey pub/sub so every server instance sees them;
// without one they are delivered in-process.
type EventBus struct {
	client      database.CacheClient
	prefix      string
	log         logger.Logger
	mu          sync.RWMutex
	subscribers map[string]map[int]Handler
	listening   map[string]bool
	nextID      int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(client database.CacheClient, config config.Config) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBus{
		client:      client,
		prefix:      "testlab:" + config.GeneralEnvironment + ":",
		log:         logger.New("EventBus"),
		subscribers: make(map[string]map[int]Handler),
		listening:   make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (b *EventBus) Publish(channel string, event Event) error {
	log := b.log.Function("Publish")

	if event.Channel == "" {
		event.Channel = channel
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if b.client == nil {
		b.dispatch(channel, event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "channel", channel)
	}

	ctx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	cmd := b.client.B().Publish().Channel(b.prefix + channel).Message(string(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return log.Err("failed to publish event", err, "channel", channel)
	}

	return nil
}

// Subscribe registers handler for channel and returns a function that
// removes it.
func (b *EventBus) Subscribe(channel string, handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]Handler)
	}
	b.subscribers[channel][id] = handler
	startListener := b.client != nil && !b.listening[channel]
	if startListener {
		b.listening[channel] = true
	}
	b.mu.Unlock()

	if startListener {
		b.wg.Add(1)
		go b.listen(channel)
	}

	return func() {
		b.mu.Lock()
		delete(b.subscribers[channel], id)
		b.mu.Unlock()
	}
}

func (b *EventBus) listen(channel string) {
	defer b.wg.Done()
	log := b.log.Function("listen")

	for b.ctx.Err() == nil {
		cmd := b.client.B().Subscribe().Channel(b.prefix + channel).Build()
		err := b.client.Receive(b.ctx, cmd, func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Warn("dropping malformed event", "channel", channel, "error", err)
				return
			}
			b.dispatch(channel, event)
		})
		if b.ctx.Err() != nil {
			return
		}
		log.Warn("subscription ended, retrying", "channel", channel, "error", err)

		select {
		case <-b.ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func (b *EventBus) dispatch(channel string, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[channel]))
	for _, handler := range b.subscribers[channel] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (b *EventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}
