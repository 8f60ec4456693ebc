package analytics

import (
	"time"

	"github.com/google/uuid"

	"slydes/viewer/internal/domain"
)

// Session identifies one mounted viewer for analytics. The id is random and
// process local; it is not tied to any account.
type Session struct {
	ID          string
	FirstSeenAt time.Time

	onceFlags map[domain.EventKind]struct{}
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		FirstSeenAt: now,
		onceFlags:   make(map[domain.EventKind]struct{}),
	}
}

// Fired reports whether a one-shot event of this kind was already emitted.
func (s *Session) Fired(kind domain.EventKind) bool {
	_, ok := s.onceFlags[kind]
	return ok
}

// markOnce records kind and reports whether this was the first time.
func (s *Session) markOnce(kind domain.EventKind) bool {
	if s.Fired(kind) {
		return false
	}
	s.onceFlags[kind] = struct{}{}
	return true
}
