// Package objstore implements the durable L2 cache over an object store.
//
// Three backends are provided: an S3-compatible store (MinIO client),
// Redis, and an in-memory store for local runs and tests. Values are
// stored as JSON envelopes carrying the payload plus write time and
// optional TTL; large envelopes are zstd-compressed.
package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned when no live entry exists under a key.
var ErrNotFound = errors.New("object not found")

// Store is the L2 cache contract. GetJSON fails with ErrNotFound for
// missing or expired entries; PutJSON overwrites unconditionally.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	GetJSON(ctx context.Context, key string, out any) error
	PutJSON(ctx context.Context, key string, value any) error
	PutJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// envelope is the persisted form of a cache entry. Entries are written
// once and never mutated; a re-compute overwrites the whole object.
type envelope struct {
	Key        string          `json:"key"`
	StoredAt   time.Time       `json:"storedAt"`
	TTLSeconds int64           `json:"ttlSeconds,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

func (e *envelope) expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return now.After(e.StoredAt.Add(time.Duration(e.TTLSeconds) * time.Second))
}

const minCompressSize = 1024

// zstd frame magic number, used to detect compressed entries on read.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	// Default options never fail.
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
}

// packEntry serializes value into an envelope. Envelopes over 1 KiB are
// zstd-compressed when that actually shrinks them.
func packEntry(key string, value any, ttl time.Duration, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	env := envelope{
		Key:      key,
		StoredAt: now.UTC(),
		Payload:  payload,
	}
	if ttl > 0 {
		env.TTLSeconds = int64(ttl / time.Second)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	if len(data) > minCompressSize {
		if compressed := zstdEncoder.EncodeAll(data, nil); len(compressed) < len(data) {
			return compressed, nil
		}
	}
	return data, nil
}

// unpackEntry decodes an envelope and unmarshals its payload into out.
// Expired entries report ErrNotFound.
func unpackEntry(data []byte, out any, now time.Time) error {
	if bytes.HasPrefix(data, zstdMagic) {
		decompressed, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("decompress entry: %w", err)
		}
		data = decompressed
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.expired(now) {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
