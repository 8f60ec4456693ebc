package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"slydes/viewer/internal/domain"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the restorable part of a viewer: the content it shows, where it
// was, its referrer and its cart.
type Snapshot struct {
	OrganizationSlug string                 `json:"organization_slug"`
	Referrer         string                 `json:"referrer,omitempty"`
	Navigation       domain.NavigationState `json:"navigation"`
	Cart             []domain.CartItem      `json:"cart,omitempty"`
	SavedAt          time.Time              `json:"saved_at"`
}

type SnapshotStore interface {
	Save(ctx context.Context, viewerID string, snapshot Snapshot) error
	Load(ctx context.Context, viewerID string) (Snapshot, error)
	Delete(ctx context.Context, viewerID string) error
}

type redisSnapshotStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisSnapshotStore(redisClient *redis.Client, ttl time.Duration) SnapshotStore {
	return &redisSnapshotStore{
		redisClient: redisClient,
		keyPrefix:   "slydes:viewer:snapshot:",
		ttl:         ttl,
	}
}

func (s *redisSnapshotStore) Load(ctx context.Context, viewerID string) (Snapshot, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+viewerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot for viewer %s: %w", viewerID, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot for viewer %s: %w", viewerID, err)
	}

	return snapshot, nil
}

func (s *redisSnapshotStore) Save(ctx context.Context, viewerID string, snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.redisClient.Set(ctx, s.keyPrefix+viewerID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot for viewer %s: %w", viewerID, err)
	}
	return nil
}

func (s *redisSnapshotStore) Delete(ctx context.Context, viewerID string) error {
	if err := s.redisClient.Del(ctx, s.keyPrefix+viewerID).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot for viewer %s: %w", viewerID, err)
	}
	return nil
}

type memorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemorySnapshotStore keeps snapshots in process, for deployments without Redis
func NewMemorySnapshotStore() SnapshotStore {
	return &memorySnapshotStore{snapshots: make(map[string]Snapshot)}
}

func (s *memorySnapshotStore) Load(_ context.Context, viewerID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[viewerID]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (s *memorySnapshotStore) Save(_ context.Context, viewerID string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[viewerID] = snapshot
	return nil
}

func (s *memorySnapshotStore) Delete(_ context.Context, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, viewerID)
	return nil
}
