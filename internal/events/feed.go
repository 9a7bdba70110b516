package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lendhub/internal/config"
	"lendhub/internal/domain"
	"lendhub/internal/models"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var feedJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ChangeMessage is the wire format on the change channel. Origin lets
// an instance skip notifications for its own writes.
type ChangeMessage struct {
	Entity string    `json:"entity"`
	Origin string    `json:"origin"`
	SentAt time.Time `json:"sent_at"`
}

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// ChangeFeed broadcasts entity change notifications over a redis
// channel and re-synchronizes the local cache when other instances
// announce changes. Bursts of notifications for one entity type are
// coalesced into a single refresh per debounce window.
type ChangeFeed struct {
	client   *redis.Client
	channel  string
	origin   string
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[models.EntityType]*time.Timer
}

func NewChangeFeed(client *redis.Client, channel string, debounce time.Duration, logger zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{
		client:   client,
		channel:  channel,
		origin:   uuid.NewString(),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[models.EntityType]*time.Timer),
	}
}

// PublishChange announces that an entity type changed on this instance.
func (f *ChangeFeed) PublishChange(ctx context.Context, t models.EntityType) error {
	if f == nil || f.client == nil {
		return nil
	}
	msg := ChangeMessage{Entity: string(t), Origin: f.origin, SentAt: time.Now().UTC()}
	data, err := feedJSON.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal change message: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("publish change to redis: %w", err)
	}
	return nil
}

// Listen consumes change notifications until ctx is cancelled,
// triggering refresher for each foreign change after the debounce
// window. Blocks; run it in its own goroutine.
func (f *ChangeFeed) Listen(ctx context.Context, refresher domain.Refresher) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Fail fast on a bad subscription instead of looping on a dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			f.cancelPending()
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				f.cancelPending()
				return nil
			}
			f.handle(ctx, msg.Payload, refresher)
		}
	}
}

func (f *ChangeFeed) handle(ctx context.Context, payload string, refresher domain.Refresher) {
	var msg ChangeMessage
	if err := feedJSON.UnmarshalFromString(payload, &msg); err != nil {
		f.logger.Warn().Err(err).Str("payload", payload).Msg("malformed change message")
		return
	}
	if msg.Origin == f.origin {
		return
	}
	t := models.EntityType(msg.Entity)
	if !t.Valid() {
		f.logger.Warn().Str("entity", msg.Entity).Msg("change message for unknown entity type")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, scheduled := f.pending[t]; scheduled {
		return
	}
	f.pending[t] = time.AfterFunc(f.debounce, func() {
		f.mu.Lock()
		delete(f.pending, t)
		f.mu.Unlock()

		if err := refresher.RefreshTypes(ctx, t); err != nil {
			f.logger.Error().Err(err).Str("entity_type", string(t)).Msg("change feed refresh error")
			return
		}
		f.logger.Debug().Str("entity_type", string(t)).Msg("refreshed after remote change")
	})
}

func (f *ChangeFeed) cancelPending() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for t, timer := range f.pending {
		timer.Stop()
		delete(f.pending, t)
	}
}

// Close releases the underlying redis client.
func (f *ChangeFeed) Close() error {
	f.cancelPending()
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
