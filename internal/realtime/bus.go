package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Logger provides minimal logging required by the realtime package.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Bus fans envelopes out to every subscribed hub. The local bus only reaches
// the current process; the Redis bus reaches every instance.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, fn func(Envelope)) error
	Close() error
}

// LocalBus delivers synchronously to in-process subscribers.
type LocalBus struct {
	mu   sync.RWMutex
	subs []func(Envelope)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	subs := append([]func(Envelope){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(env)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, fn func(Envelope)) error {
	if fn == nil {
		return errors.New("realtime: subscriber required")
	}
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) Close() error { return nil }

// RedisBus publishes envelopes on a Redis pub/sub channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  Logger
	wg      sync.WaitGroup
}

func NewRedisBus(rdb *redis.Client, channel string, logger Logger) *RedisBus {
	if channel == "" {
		channel = "soundcrew:realtime"
	}
	return &RedisBus{rdb: rdb, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe forwards every envelope to fn until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(Envelope)) error {
	if fn == nil {
		return errors.New("realtime: subscriber required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					b.logger.Errorf("realtime: bad bus payload: %v", err)
					continue
				}
				fn(env)
			}
		}
	}()
	return nil
}

// Close waits for the forwarder to stop; cancel the Subscribe context first.
func (b *RedisBus) Close() error {
	b.wg.Wait()
	return nil
}
