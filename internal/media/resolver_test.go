package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"slydes/viewer/internal/config"
	"slydes/viewer/internal/domain"
)

const placeholderURL = "/static/placeholder.jpg"

func newResolver(check bool) *Resolver {
	return NewResolver(config.MediaConfig{
		CheckTimeout:   2,
		CheckFiles:     check,
		PlaceholderURL: placeholderURL,
	})
}

func TestResolveEmbed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=abc123", "https://www.youtube.com/embed/abc123"},
		{"youtube short link", "https://youtu.be/abc123", "https://www.youtube.com/embed/abc123"},
		{"youtube shorts", "https://youtube.com/shorts/abc123", "https://www.youtube.com/embed/abc123"},
		{"youtube embed", "https://www.youtube.com/embed/abc123", "https://www.youtube.com/embed/abc123"},
		{"vimeo page", "https://vimeo.com/76979871", "https://player.vimeo.com/video/76979871"},
		{"vimeo player", "https://player.vimeo.com/video/76979871", "https://player.vimeo.com/video/76979871"},
		{
			"iframe snippet",
			`<iframe width="560" height="315" src="https://www.youtube.com/embed/xyz" allowfullscreen></iframe>`,
			"https://www.youtube.com/embed/xyz",
		},
		{
			"protocol relative iframe",
			`<iframe src="//player.vimeo.com/video/123"></iframe>`,
			"https://player.vimeo.com/video/123",
		},
		{"other https", "https://maps.example.com/embed?q=1", "https://maps.example.com/embed?q=1"},
	}

	r := newResolver(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := r.Resolve(context.Background(), domain.Background{Kind: domain.BackgroundEmbed, Src: tt.src})
			assert.False(t, src.Placeholder)
			assert.Equal(t, domain.BackgroundEmbed, src.Kind)
			assert.Equal(t, tt.want, src.URL)
		})
	}
}

func TestResolveFallsBackToPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		bg   domain.Background
	}{
		{"empty image", domain.Background{Kind: domain.BackgroundImage}},
		{"unknown kind", domain.Background{Kind: "hologram", Src: "https://cdn.example.com/a.png"}},
		{"iframe without src", domain.Background{Kind: domain.BackgroundEmbed, Src: `<iframe></iframe>`}},
		{"youtube without id", domain.Background{Kind: domain.BackgroundEmbed, Src: "https://youtube.com/feed"}},
		{"vimeo channel", domain.Background{Kind: domain.BackgroundEmbed, Src: "https://vimeo.com/channels/staff"}},
		{"plain http embed", domain.Background{Kind: domain.BackgroundEmbed, Src: "http://example.com/player"}},
		{"relative embed", domain.Background{Kind: domain.BackgroundEmbed, Src: "/player"}},
	}

	r := newResolver(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := r.Resolve(context.Background(), tt.bg)
			assert.True(t, src.Placeholder)
			assert.Equal(t, placeholderURL, src.URL)
			assert.Equal(t, domain.BackgroundImage, src.Kind)
		})
	}
}

func TestResolveFileKeepsPoster(t *testing.T) {
	r := newResolver(false)

	src := r.Resolve(context.Background(), domain.Background{
		Kind:   domain.BackgroundVideo,
		Src:    "https://cdn.example.com/loop.mp4",
		Poster: "https://cdn.example.com/loop.jpg",
	})

	assert.False(t, src.Placeholder)
	assert.Equal(t, domain.BackgroundVideo, src.Kind)
	assert.Equal(t, "https://cdn.example.com/loop.mp4", src.URL)
	assert.Equal(t, "https://cdn.example.com/loop.jpg", src.Poster)
}

func TestResolveChecksFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := newResolver(true)

	ok := r.Resolve(context.Background(), domain.Background{Kind: domain.BackgroundImage, Src: server.URL + "/hero.jpg"})
	assert.False(t, ok.Placeholder)
	assert.Equal(t, server.URL+"/hero.jpg", ok.URL)

	missing := r.Resolve(context.Background(), domain.Background{Kind: domain.BackgroundImage, Src: server.URL + "/missing.jpg"})
	assert.True(t, missing.Placeholder)

	relative := r.Resolve(context.Background(), domain.Background{Kind: domain.BackgroundImage, Src: "/uploads/hero.jpg"})
	assert.False(t, relative.Placeholder, "relative files are not checked")
}
