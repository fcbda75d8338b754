package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrNoToken  = errors.New("session: no token")
)

// Store persists session records by id. Drivers (memory, sqlite, bolt)
// implement it and must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (domain.Session, error)

	// Put inserts or replaces the record; last writer wins.
	Put(ctx context.Context, s domain.Session) error

	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error

	// DeleteIdleBefore removes records last updated before cutoff.
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Encode and Decode give every driver the same on-disk record format.
func Encode(s domain.Session) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
