package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"slydes/viewer/internal/analytics"
	"slydes/viewer/internal/commerce"
	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/media"
	"slydes/viewer/internal/state"
	"slydes/viewer/internal/viewer"
)

var ErrViewerNotFound = errors.New("viewer not found")

// ContentSource loads the published graph of an organization
type ContentSource interface {
	LoadGraph(ctx context.Context, organizationSlug string) (*domain.Graph, error)
}

type MediaResolver interface {
	Resolve(ctx context.Context, bg domain.Background) media.Source
}

type Dependencies struct {
	Content   ContentSource
	Snapshots state.SnapshotStore
	// Sink receives events from viewers. Ingestion is where delivery workers
	// forward queued events; it is unused when Sink posts directly.
	Sink      analytics.Sink
	Ingestion analytics.Sink
	Queue     EventQueue
	Checkout  commerce.Checkout
	Contact   commerce.Contact
	Media     MediaResolver
	Source    string
}

// OpenRequest mounts a viewer. Initial is an optional deep link.
type OpenRequest struct {
	OrganizationSlug string
	Referrer         string
	Initial          *domain.NavigationState
}

type session struct {
	mu               sync.Mutex
	viewer           *viewer.Viewer
	organizationSlug string
	referrer         string
}

// Service owns the live viewers. Each viewer is driven by one request at a
// time; different viewers run in parallel.
type Service struct {
	deps        Dependencies
	emitterOpts []analytics.Option

	mu       sync.RWMutex
	viewers  map[string]*session
	restores singleflight.Group
}

func NewService(deps Dependencies, emitterOpts ...analytics.Option) *Service {
	if deps.Snapshots == nil {
		deps.Snapshots = state.NewMemorySnapshotStore()
	}
	return &Service{
		deps:        deps,
		emitterOpts: emitterOpts,
		viewers:     make(map[string]*session),
	}
}

func (s *Service) Open(ctx context.Context, req OpenRequest) (string, viewer.View, error) {
	graph, err := s.deps.Content.LoadGraph(ctx, req.OrganizationSlug)
	if err != nil {
		return "", viewer.View{}, fmt.Errorf("failed to load content for %s: %w", req.OrganizationSlug, err)
	}

	initial := domain.HomeState()
	if req.Initial != nil {
		initial = *req.Initial
	}

	id := uuid.NewString()
	sess := &session{
		viewer:           s.mount(graph, req.Referrer, viewer.WithInitialState(initial)),
		organizationSlug: req.OrganizationSlug,
		referrer:         req.Referrer,
	}

	s.mu.Lock()
	s.viewers[id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.saveSnapshot(ctx, id, sess)
	log.Infof("🎬 Opened viewer %s for %s at %s", id, req.OrganizationSlug, sess.viewer.State().Level)

	return id, sess.viewer.View(), nil
}

func (s *Service) mount(graph *domain.Graph, referrer string, opts ...viewer.Option) *viewer.Viewer {
	opts = append(opts,
		viewer.WithAnalytics(s.deps.Sink, s.deps.Source, referrer, s.emitterOpts...),
		viewer.WithCommerce(s.deps.Checkout, s.deps.Contact),
	)
	return viewer.New(graph, opts...)
}

func (s *Service) Dispatch(ctx context.Context, id string, action viewer.Action) (viewer.Outcome, viewer.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return viewer.Outcome{}, viewer.View{}, err
	}

	if action.Type == viewer.ActionCommerce {
		if outcome, view, ok := s.handOff(ctx, sess, action); ok {
			return outcome, view, nil
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	outcome, err := sess.viewer.Dispatch(ctx, action)
	if err != nil {
		return viewer.Outcome{}, viewer.View{}, err
	}

	if outcome.Performed {
		s.saveSnapshot(ctx, id, sess)
	}
	return outcome, sess.viewer.View(), nil
}

// handOff runs buy_now and enquire actions without holding the viewer, so a
// slow checkout does not block closing an overlay. ok is false when the action
// is not such a hand-off and must go through Dispatch.
func (s *Service) handOff(ctx context.Context, sess *session, action viewer.Action) (viewer.Outcome, viewer.View, bool) {
	sess.mu.Lock()
	item, ok := sess.viewer.CommerceTarget(action.ItemID)
	sess.mu.Unlock()

	if !ok {
		return viewer.Outcome{}, viewer.View{}, false
	}
	switch item.CommerceMode {
	case domain.CommerceModeBuyNow, domain.CommerceModeEnquire:
	default:
		return viewer.Outcome{}, viewer.View{}, false
	}

	outcome := sess.viewer.HandOff(ctx, item)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return outcome, sess.viewer.View(), true
}

func (s *Service) View(ctx context.Context, id string) (viewer.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return viewer.View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.viewer.View(), nil
}

// Media resolves the background of the current frame. ok is false at levels
// that show no frame.
func (s *Service) Media(ctx context.Context, id string) (media.Source, bool, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return media.Source{}, false, err
	}

	sess.mu.Lock()
	view := sess.viewer.View()
	sess.mu.Unlock()

	if view.Frame == nil || s.deps.Media == nil {
		return media.Source{}, false, nil
	}
	return s.deps.Media.Resolve(ctx, view.Frame.Background), true, nil
}

func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	_, live := s.viewers[id]
	delete(s.viewers, id)
	s.mu.Unlock()

	_, err := s.deps.Snapshots.Load(ctx, id)
	stored := err == nil

	if err := s.deps.Snapshots.Delete(ctx, id); err != nil {
		log.Warnf("⚠️ Failed to delete snapshot of viewer %s: %v", id, err)
	}

	if !live && !stored {
		return fmt.Errorf("%w: %s", ErrViewerNotFound, id)
	}

	log.Infof("👋 Closed viewer %s", id)
	return nil
}

// session returns a live viewer, restoring it from its snapshot after a
// restart. Concurrent requests for the same viewer share one restore.
func (s *Service) session(ctx context.Context, id string) (*session, error) {
	if sess, ok := s.live(id); ok {
		return sess, nil
	}

	restored, err, _ := s.restores.Do(id, func() (interface{}, error) {
		if sess, ok := s.live(id); ok {
			return sess, nil
		}
		return s.restore(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return restored.(*session), nil
}

func (s *Service) live(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.viewers[id]
	return sess, ok
}

func (s *Service) restore(ctx context.Context, id string) (*session, error) {
	snapshot, err := s.deps.Snapshots.Load(ctx, id)
	if err != nil {
		if errors.Is(err, state.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrViewerNotFound, id)
		}
		return nil, err
	}

	graph, err := s.deps.Content.LoadGraph(ctx, snapshot.OrganizationSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to reload content for viewer %s: %w", id, err)
	}

	v := s.mount(graph, snapshot.Referrer,
		viewer.WithRestoredState(snapshot.Navigation),
		viewer.WithCartItems(snapshot.Cart),
	)
	restored := &session{
		viewer:           v,
		organizationSlug: snapshot.OrganizationSlug,
		referrer:         snapshot.Referrer,
	}

	s.mu.Lock()
	s.viewers[id] = restored
	s.mu.Unlock()

	log.Infof("♻️ Restored viewer %s at %s", id, snapshot.Navigation.Level)
	return restored, nil
}

// saveSnapshot is best effort; the caller holds sess.mu.
func (s *Service) saveSnapshot(ctx context.Context, id string, sess *session) {
	snapshot := state.Snapshot{
		OrganizationSlug: sess.organizationSlug,
		Referrer:         sess.referrer,
		Navigation:       sess.viewer.State(),
		Cart:             sess.viewer.Cart().Items(),
		SavedAt:          time.Now().UTC(),
	}
	if err := s.deps.Snapshots.Save(ctx, id, snapshot); err != nil {
		log.Warnf("⚠️ Failed to save snapshot of viewer %s: %v", id, err)
	}
}

// Live reports how many viewers are mounted in this process
func (s *Service) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers)
}
