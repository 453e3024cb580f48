package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/securecookie"
)

// Signed wraps a Scope so that every value is HMAC-signed on Set and
// verified on Get. The key name is part of the signature, so a value cannot
// be moved to another key either.
//
// A value that fails verification is treated as absent: Get clears it and
// returns ErrNoValue. The session record uses this so that editing the data
// file by hand cannot log somebody in.
type Signed struct {
	inner  Scope
	codec  *securecookie.SecureCookie
	logger *slog.Logger
}

var _ Scope = (*Signed)(nil)

// NewSigned returns a signing wrapper around inner. hashKey should be 32 or
// 64 random bytes.
func NewSigned(inner Scope, hashKey []byte, logger *slog.Logger) (*Signed, error) {
	if len(hashKey) < 32 {
		return nil, errors.New("storage: signing key must be at least 32 bytes")
	}

	codec := securecookie.New(hashKey, nil)
	// Sessions never expire and a record with an avatar data URI is far
	// larger than a cookie, so both limits are off.
	codec.MaxAge(0)
	codec.MaxLength(0)
	codec.SetSerializer(securecookie.NopEncoder{})

	return &Signed{inner: inner, codec: codec, logger: logger}, nil
}

func (s *Signed) Get(ctx context.Context, key string) ([]byte, error) {
	encoded, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := s.codec.Decode(key, string(encoded), &value); err != nil {
		s.logger.Warn("discarding value with invalid signature",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		if clearErr := s.inner.Clear(ctx, key); clearErr != nil {
			return nil, fmt.Errorf("storage: clearing tampered %s: %w", key, clearErr)
		}
		return nil, ErrNoValue
	}
	return value, nil
}

func (s *Signed) Set(ctx context.Context, key string, value []byte) error {
	encoded, err := s.codec.Encode(key, value)
	if err != nil {
		return fmt.Errorf("storage: signing %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, []byte(encoded))
}

func (s *Signed) Clear(ctx context.Context, key string) error {
	return s.inner.Clear(ctx, key)
}
