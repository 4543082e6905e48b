package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "hoa:activity"

// RedisPublisher publishes entries as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher wraps client. An empty channel selects DefaultChannel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, entry Entry) error {
	payload, errMarshal := json.Marshal(entry)
	if errMarshal != nil {
		return fmt.Errorf("activity: marshal entry: %w", errMarshal)
	}
	if errPublish := p.client.Publish(ctx, p.channel, payload).Err(); errPublish != nil {
		return fmt.Errorf("activity: redis publish: %w", errPublish)
	}
	return nil
}

// Subscribe streams entries published on the channel until ctx is done.
func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan Entry, func() error) {
	sub := p.client.Subscribe(ctx, p.channel)
	out := make(chan Entry)
	go relay(ctx, sub.Channel(), out)
	return out, sub.Close
}

// relay decodes pub/sub payloads onto out and closes it when msgs ends or ctx is done.
// Payloads that are not entries are dropped.
func relay(ctx context.Context, msgs <-chan *redis.Message, out chan<- Entry) {
	defer close(out)
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case next, ok := <-msgs:
			if !ok {
				return
			}
			msg = next
		}
		var entry Entry
		if errUnmarshal := json.Unmarshal([]byte(msg.Payload), &entry); errUnmarshal != nil {
			continue
		}
		select {
		case out <- entry:
		case <-ctx.Done():
			return
		}
	}
}
