package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupeTTL bounds how long a published MsgID is remembered for queue-level
// dedupe (spec.md §3); generously longer than the largest bucket window
// (24h) so a duplicate alert anywhere within a bucket's lifetime collapses.
const dedupeTTL = 48 * time.Hour

// Redis implements Queue over Redis Streams with a consumer group, plus a
// SETNX-based dedupe set keyed by MsgID. Grounded on jordigilh-kubernaut's
// go-redis/v9 usage.
type Redis struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// NewRedis connects to addr and ensures the consumer group exists.
func NewRedis(ctx context.Context, addr, stream, group, consumer string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: connecting to redis: %w", err)
	}
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		// BUSYGROUP means the group already exists — not an error.
		if !isBusyGroup(err) {
			return nil, fmt.Errorf("queue: creating consumer group: %w", err)
		}
	}
	return &Redis{client: client, stream: stream, group: group, consumer: consumer}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

func dedupeKey(stream, msgID string) string { return "tarka:dedupe:" + stream + ":" + msgID }

func (r *Redis) Publish(ctx context.Context, job AlertJob) (bool, error) {
	ok, err := r.client.SetNX(ctx, dedupeKey(r.stream, job.MsgID), "1", dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("queue: dedupe check: %w", err)
	}
	if !ok {
		return false, nil
	}
	body, err := marshal(job)
	if err != nil {
		return false, err
	}
	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{"job": body, "msg_id": job.MsgID},
	}).Result()
	if err != nil {
		return false, fmt.Errorf("queue: publish: %w", err)
	}
	return true, nil
}

func (r *Redis) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    r.group,
				Consumer: r.consumer,
				Streams:  []string{r.stream, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				time.Sleep(time.Second)
				continue
			}
			for _, s := range streams {
				for _, m := range s.Messages {
					raw, _ := m.Values["job"].(string)
					job, err := unmarshal([]byte(raw))
					if err != nil {
						r.ack(ctx, m.ID)
						continue
					}
					id := m.ID
					select {
					case out <- Message{Job: job, Ack: func(ctx context.Context) error { return r.ack(ctx, id) }}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) ack(ctx context.Context, id string) error {
	return r.client.XAck(ctx, r.stream, r.group, id).Err()
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.client.Close() }
