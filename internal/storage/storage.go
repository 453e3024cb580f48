// Package storage defines the key-value scopes the application persists to.
//
// TWO LIFETIMES, ONE INTERFACE:
// Every persisted value lives under a string key in a Scope. There are two
// kinds of scope:
//
//   - Durable: survives a restart (the sqlite-backed kv table)
//   - Ephemeral: lives as long as the process (an in-memory map)
//
// The session manager picks one of them at login time based on the
// remember-me flag; everything else (users, favorites, tokens) is durable.
// Both implement the same Scope interface, so code that reads or writes a
// value never knows which lifetime it is talking to.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the values the application persists.
const (
	KeyUsers       = "maxSports_users"
	KeyCurrentUser = "maxSports_currentUser"
	KeyRememberMe  = "maxSports_rememberMe"
	KeyFavorites   = "maxSports_favorites"
	KeyAPIToken    = "auth_token"
	KeyJWTSecret   = "maxSports_jwtSecret"
	KeySessionKey  = "maxSports_sessionKey"
)

var (
	// ErrNoValue is returned by Get when the key has no value.
	ErrNoValue = errors.New("storage: no value for key")
	// ErrCorrupt is returned by GetJSON when the stored value does not decode.
	ErrCorrupt = errors.New("storage: corrupt value")
)

// Scope is a flat key-value namespace.
type Scope interface {
	// Get returns the value stored under key, or ErrNoValue.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Clear removes key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
}

// Kind selects one of the two scope lifetimes.
type Kind int

const (
	Durable Kind = iota
	Ephemeral
)

func (k Kind) String() string {
	switch k {
	case Durable:
		return "durable"
	case Ephemeral:
		return "ephemeral"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Scopes bundles one scope of each kind.
type Scopes struct {
	Durable   Scope
	Ephemeral Scope
}

// Pick returns the scope of the given kind.
func (s Scopes) Pick(k Kind) Scope {
	if k == Ephemeral {
		return s.Ephemeral
	}
	return s.Durable
}

// GetJSON decodes the value under key into v. It reports false (and leaves v
// untouched) when the key has no value.
func GetJSON(ctx context.Context, s Scope, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: decoding %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// GetString returns the value under key as a string, "" when absent.
func GetString(ctx context.Context, s Scope, key string) (string, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
