package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/media"
	"slydes/viewer/internal/service"
	"slydes/viewer/internal/viewer"
)

// Viewers is the viewer service as seen by the HTTP layer
type Viewers interface {
	Open(ctx context.Context, req service.OpenRequest) (string, viewer.View, error)
	Dispatch(ctx context.Context, id string, action viewer.Action) (viewer.Outcome, viewer.View, error)
	View(ctx context.Context, id string) (viewer.View, error)
	Media(ctx context.Context, id string) (media.Source, bool, error)
	Close(ctx context.Context, id string) error
	Live() int
}

type Server struct {
	viewers        Viewers
	requestTimeout time.Duration
	mediaTimeout   time.Duration
}

func NewServer(viewers Viewers, requestTimeout, mediaTimeout time.Duration) *Server {
	return &Server{
		viewers:        viewers,
		requestTimeout: requestTimeout,
		mediaTimeout:   mediaTimeout,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.requestTimeout > 0 {
		r.Use(middleware.Timeout(s.requestTimeout))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/viewers", func(r chi.Router) {
		r.Post("/", s.handleOpen)
		r.Route("/{viewerID}", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Delete("/", s.handleClose)
			r.Post("/actions", s.handleAction)
			r.Get("/media", s.handleMedia)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
