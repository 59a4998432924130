// Package room manages two-person quiz rooms: creation, joining, answer
// submission, scoring once both partners answered, and expiry.
package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// DefaultResultTTL is how long a scored room is kept.
const DefaultResultTTL = 2 * time.Minute

// Service errors.
var (
	ErrNameRequired      = errors.New("room name is required")
	ErrUIDRequired       = errors.New("participant id is required")
	ErrRoomExists        = errors.New("room exists, join it instead")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotParticipant    = errors.New("not a participant of this room")
	ErrIncompleteAnswers = errors.New("all three questions must be answered")
)

// Config holds room lifecycle settings.
type Config struct {
	ResultTTL time.Duration
	Clock     func() time.Time
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{ResultTTL: DefaultResultTTL, Clock: time.Now}
}

// Service coordinates the room store and the evaluator.
type Service struct {
	store     ports.RoomStore
	evaluator ports.Evaluator
	logger    ports.Logger
	config    Config
}

// NewService creates a room service.
func NewService(store ports.RoomStore, evaluator ports.Evaluator, logger ports.Logger, config Config) *Service {
	if config.ResultTTL <= 0 {
		config.ResultTTL = DefaultResultTTL
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Service{store: store, evaluator: evaluator, logger: logger, config: config}
}

// Create opens a new room named name with uid as its first participant.
func (s *Service) Create(ctx context.Context, name, uid string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, ErrNameRequired
	}
	if uid == "" {
		return domain.Room{}, ErrUIDRequired
	}

	now := s.config.Clock()
	r := domain.Room{
		Key:          Key(name),
		Name:         name,
		CreatedAt:    now,
		Participants: []domain.Participant{{UID: uid, JoinedAt: now}},
	}
	if err := s.store.CreateRoom(ctx, r); err != nil {
		if errors.Is(err, ports.ErrAlreadyExists) {
			return domain.Room{}, ErrRoomExists
		}
		return domain.Room{}, fmt.Errorf("create room %q: %w", r.Key, err)
	}

	s.logger.Info("Room created", "room", r.Key, "uid", uid)
	return r, nil
}

// Join adds uid to the room with the given display name or key.
func (s *Service) Join(ctx context.Context, name, uid string) (domain.Room, error) {
	key := Key(name)
	if key == "" {
		return domain.Room{}, ErrNameRequired
	}
	if uid == "" {
		return domain.Room{}, ErrUIDRequired
	}

	err := s.store.AddParticipant(ctx, key, domain.Participant{UID: uid, JoinedAt: s.config.Clock()})
	if err != nil {
		return domain.Room{}, s.mapStoreErr("join room", key, err)
	}

	s.logger.Info("Participant joined", "room", key, "uid", uid)
	return s.Get(ctx, key)
}

// Get returns the room with the given key.
func (s *Service) Get(ctx context.Context, key string) (domain.Room, error) {
	r, err := s.store.GetRoom(ctx, key)
	if err != nil {
		return domain.Room{}, s.mapStoreErr("get room", key, err)
	}
	return r, nil
}

// Submit stores uid's answers. Once two participants have answered and the
// room has no result yet, the first two submissions are scored and the result
// is stored. The returned room carries the result when one exists.
func (s *Service) Submit(ctx context.Context, key, uid string, answers domain.AnswerSet) (domain.Room, error) {
	answers = domain.AnswerSet{
		Q1: strings.TrimSpace(answers.Q1),
		Q2: strings.TrimSpace(answers.Q2),
		Q3: strings.TrimSpace(answers.Q3),
	}
	if answers.Q1 == "" || answers.Q2 == "" || answers.Q3 == "" {
		return domain.Room{}, ErrIncompleteAnswers
	}

	r, err := s.Get(ctx, key)
	if err != nil {
		return domain.Room{}, err
	}
	if !r.HasParticipant(uid) {
		return domain.Room{}, ErrNotParticipant
	}

	err = s.store.PutSubmission(ctx, key, domain.Submission{
		UID:         uid,
		Answers:     answers,
		SubmittedAt: s.config.Clock(),
	})
	if err != nil {
		return domain.Room{}, s.mapStoreErr("submit answers", key, err)
	}
	s.logger.Info("Answers submitted", "room", key, "uid", uid)

	if r, err = s.Get(ctx, key); err != nil {
		return domain.Room{}, err
	}
	if r.Result != nil || len(r.Submissions) < 2 {
		return r, nil
	}

	result := s.evaluator.Evaluate(ctx, r.Submissions[0].Answers, r.Submissions[1].Answers)
	stored, err := s.store.SetResult(ctx, key, result)
	switch {
	case err != nil:
		s.logger.Error("Write result failed", "room", key, "error", err)
		r.Result = &result
		return r, nil
	case !stored:
		// Another submission scored the room first.
		return s.Get(ctx, key)
	}

	s.logger.Info("Room scored",
		"room", key,
		"percentage", result.Percentage,
		"source", result.Source,
	)
	r.Result = &result
	return r, nil
}

// Delete removes a room.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.DeleteRoom(ctx, key); err != nil {
		return s.mapStoreErr("delete room", key, err)
	}
	return nil
}

// Sweep deletes rooms scored longer than the configured TTL ago.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	cutoff := s.config.Clock().Add(-s.config.ResultTTL)
	n, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep rooms: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired rooms deleted", "count", n)
	}
	return n, nil
}

// RunSweeper sweeps every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.config.ResultTTL / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Room sweep failed", "error", err)
			}
		}
	}
}

func (s *Service) mapStoreErr(op, key string, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return ErrRoomNotFound
	}
	return fmt.Errorf("%s %q: %w", op, key, err)
}
