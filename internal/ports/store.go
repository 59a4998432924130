package ports

import (
	"context"
	"errors"
	"time"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
)

// Store errors.
var (
	ErrNotFound      = errors.New("room not found")
	ErrAlreadyExists = errors.New("room already exists")
)

// RoomStore persists rooms, participants, submissions and results.
type RoomStore interface {
	CreateRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, key string) (domain.Room, error)
	AddParticipant(ctx context.Context, key string, p domain.Participant) error
	PutSubmission(ctx context.Context, key string, s domain.Submission) error
	// SetResult stores the result only if the room has none yet and reports
	// whether it was stored.
	SetResult(ctx context.Context, key string, r domain.Result) (bool, error)
	DeleteRoom(ctx context.Context, key string) error
	// DeleteExpiredBefore removes rooms whose result was computed before cutoff,
	// and rooms whose second answer arrived before cutoff but hold no result.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}
