// Package storage holds the optional Redis result cache, the Postgres
// conversion history and the dataset export sink.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned by Cache.Get when nothing usable is stored.
var ErrCacheMiss = eris.New("cache miss")

// CachedResult is a finished conversion as stored in Redis.
type CachedResult struct {
	XLSX     []byte `json:"xlsx"`
	Pages    int    `json:"pages"`
	Columns  int    `json:"columns"`
	Rows     int    `json:"rows"`
	OCRPages []int  `json:"ocr_pages"`
}

// Cache stores converted workbooks keyed by the PDF content and the OCR flag.
// A Cache without a client is valid and never hits.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis at addr. When addr is empty or the server does not
// answer, the returned Cache works without caching.
func NewCache(addr, password string, db int, ttl time.Duration, log *logrus.Entry) *Cache {
	c := &Cache{ttl: ttl}
	if addr == "" {
		return c
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.WithError(err).Warn("failed to connect to Redis, converting without cache")
		client.Close()
		return c
	}

	log.WithField("addr", addr).Info("connected to Redis cache")
	c.client = client
	return c
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// Key identifies one conversion: the same bytes converted with and without OCR
// give different results.
func Key(pdf []byte, ocr bool) string {
	sum := sha256.Sum256(pdf)
	flag := "0"
	if ocr {
		flag = "1"
	}
	return "pdf2excel:" + hex.EncodeToString(sum[:]) + ":ocr=" + flag
}

func (c *Cache) Get(ctx context.Context, key string) (*CachedResult, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis get")
	}

	var res CachedResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, eris.Wrap(err, "decode cached result")
	}
	return &res, nil
}

func (c *Cache) Set(ctx context.Context, key string, res *CachedResult) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "encode cached result")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Ping reports whether the cache server answers. A disabled cache reports an error.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return eris.New("redis not available")
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
