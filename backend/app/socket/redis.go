package socket

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "fleet:commands:"

// Channel returns the pub/sub channel carrying wake-ups for deviceID.
func Channel(deviceID string) string { return channelPrefix + deviceID }

// RedisBridge relays enqueue signals between backend instances over Redis
// pub/sub.
type RedisBridge struct {
	rdb    *redis.Client
	hub    *Hub
	logger zerolog.Logger
}

func NewRedisBridge(rdb *redis.Client, hub *Hub, logger zerolog.Logger) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub, logger: logger}
}

func (b *RedisBridge) Publish(ctx context.Context, deviceID string) error {
	return b.rdb.Publish(ctx, Channel(deviceID), "1").Err()
}

// Run forwards every wake-up received from Redis to the local hub until ctx
// is done. Messages published by this instance come back as well; the
// extra signal is harmless.
func (b *RedisBridge) Run(ctx context.Context) error {
	ps := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info().Str("pattern", channelPrefix+"*").Msg("redis bridge subscribed")
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			deviceID := strings.TrimPrefix(msg.Channel, channelPrefix)
			if deviceID == "" {
				continue
			}
			b.hub.Signal(deviceID)
		}
	}
}
