package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dream-villa-bot/internal/villa"
)

type memoryRecord struct {
	prefs villa.Preferences
	step  villa.Step
}

// MemoryStore keeps everything in process memory. State is lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[int64]*memoryRecord
	images []Image
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]*memoryRecord),
	}
}

func (s *MemoryStore) GetPreferences(_ context.Context, userID int64) (villa.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[userID]; ok {
		return rec.prefs, nil
	}
	return villa.DefaultPreferences(), nil
}

func (s *MemoryStore) SetPreference(_ context.Context, userID int64, field villa.Field, value string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreateLocked(userID)
	rec.prefs = rec.prefs.With(field, value)
	return nil
}

func (s *MemoryStore) GetStep(_ context.Context, userID int64) (villa.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[userID]; ok {
		return rec.step, nil
	}
	return villa.StepNone, nil
}

func (s *MemoryStore) SetStep(_ context.Context, userID int64, step villa.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreateLocked(userID).step = step
	return nil
}

func (s *MemoryStore) SaveImage(_ context.Context, img Image) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img.ID = int64(len(s.images) + 1)
	img.Likes = 0
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	s.images = append(s.images, img)
	return img.ID, nil
}

func (s *MemoryStore) GetImage(_ context.Context, id int64) (Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > int64(len(s.images)) {
		return Image{}, fmt.Errorf("%w: %d", ErrImageNotFound, id)
	}
	return s.images[id-1], nil
}

func (s *MemoryStore) LikeImage(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > int64(len(s.images)) {
		return 0, fmt.Errorf("%w: %d", ErrImageNotFound, id)
	}
	s.images[id-1].Likes++
	return s.images[id-1].Likes, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// HasRecord reports whether a row has been materialized for the user.
func (s *MemoryStore) HasRecord(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[userID]
	return ok
}

func (s *MemoryStore) getOrCreateLocked(userID int64) *memoryRecord {
	if rec, ok := s.users[userID]; ok {
		return rec
	}
	rec := &memoryRecord{prefs: villa.DefaultPreferences()}
	s.users[userID] = rec
	return rec
}
