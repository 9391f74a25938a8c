package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
)

const provider = "redis"

// RedisOptions configures a RedisPublisher
type RedisOptions struct {
	Addr            string
	DB              int
	StreamPrefix    string
	StreamCount     int
	StreamMaxLength int
}

// RedisPublisher implements Publisher on top of Redis streams
type RedisPublisher struct {
	client *redis.Client
	opts   RedisOptions
	log    *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(opts RedisOptions) *RedisPublisher {
	if opts.StreamCount <= 0 {
		opts.StreamCount = 1
	}

	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})

	return &RedisPublisher{
		client: client,
		opts:   opts,
		log:    logger.ForPublisher(),
	}
}

// Ping checks the connection to Redis
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return errors.NewPublisher(provider, "ping "+p.opts.Addr+" failed", err)
	}
	return nil
}

// Publish base64 encodes message and adds it to a random stream.
// With StreamCount 10 the streams are prefix:0 to prefix:9.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)
	stream := p.opts.StreamPrefix + ":" + strconv.Itoa(rand.IntN(p.opts.StreamCount))

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(provider, "xadd to "+stream+" failed", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.opts.StreamMaxLength <= 0 {
		return nil
	}

	for i := 0; i < p.opts.StreamCount; i++ {
		stream := p.opts.StreamPrefix + ":" + strconv.Itoa(i)
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.opts.StreamMaxLength)).Err(); err != nil {
			return errors.NewPublisher(provider, "xtrim "+stream+" failed", err)
		}
	}

	p.log.Debug().
		Str("prefix", p.opts.StreamPrefix).
		Int("max_length", p.opts.StreamMaxLength).
		Msg("Streams trimmed")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
