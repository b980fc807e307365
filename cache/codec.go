package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec serializes cache entries. Implementations must round-trip any value
// they accept; the byte format is an implementation detail and carries no
// cross-version guarantee.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// GobCodec encodes values with encoding/gob. It is the default codec.
type GobCodec struct{}

// Encode implements Codec.
func (GobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (GobCodec) Decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Name implements Codec.
func (GobCodec) Name() string { return "gob" }

// ZstdCodec wraps another codec with zstd compression. Useful for large
// feature blocks where disk footprint matters more than encode latency.
type ZstdCodec struct {
	inner Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewZstdCodec wraps inner (GobCodec if nil) with zstd compression.
func NewZstdCodec(inner Codec) (*ZstdCodec, error) {
	if inner == nil {
		inner = GobCodec{}
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return &ZstdCodec{inner: inner, enc: enc, dec: dec}, nil
}

// Encode implements Codec.
func (c *ZstdCodec) Encode(v any) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode implements Codec.
func (c *ZstdCodec) Decode(data []byte, v any) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return c.inner.Decode(raw, v)
}

// Name implements Codec.
func (c *ZstdCodec) Name() string { return c.inner.Name() + "+zstd" }
