package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"slydes/viewer/internal/config"
	"slydes/viewer/internal/domain"
)

// Source is a background ready for playback. Placeholder is set when the
// original could not be resolved and URL points at the configured fallback.
type Source struct {
	Kind        domain.BackgroundKind `json:"kind"`
	URL         string                `json:"url"`
	Poster      string                `json:"poster,omitempty"`
	Placeholder bool                  `json:"placeholder"`
}

type Resolver struct {
	httpClient     *resty.Client
	checkFiles     bool
	placeholderURL string
}

func NewResolver(cfg config.MediaConfig) *Resolver {
	client := resty.New().
		SetTimeout(time.Duration(cfg.CheckTimeout) * time.Second).
		SetRetryCount(0)

	return &Resolver{
		httpClient:     client,
		checkFiles:     cfg.CheckFiles,
		placeholderURL: cfg.PlaceholderURL,
	}
}

// Resolve never fails: anything unplayable degrades to the placeholder.
func (r *Resolver) Resolve(ctx context.Context, bg domain.Background) Source {
	var (
		src Source
		err error
	)

	switch bg.Kind {
	case domain.BackgroundEmbed:
		src, err = r.resolveEmbed(bg)
	case domain.BackgroundImage, domain.BackgroundVideo:
		src, err = r.resolveFile(ctx, bg)
	default:
		err = fmt.Errorf("unknown background kind %q", bg.Kind)
	}

	if err != nil {
		log.Debugf("🖼️ Falling back to placeholder for %q: %v", bg.Src, err)
		return r.placeholder(bg)
	}
	return src
}

func (r *Resolver) placeholder(bg domain.Background) Source {
	return Source{
		Kind:        domain.BackgroundImage,
		URL:         r.placeholderURL,
		Poster:      bg.Poster,
		Placeholder: true,
	}
}

func (r *Resolver) resolveFile(ctx context.Context, bg domain.Background) (Source, error) {
	u, err := parseSource(bg.Src)
	if err != nil {
		return Source{}, err
	}

	if r.checkFiles && u.IsAbs() {
		if err := r.checkFile(ctx, u.String()); err != nil {
			return Source{}, err
		}
	}

	return Source{Kind: bg.Kind, URL: u.String(), Poster: bg.Poster}, nil
}

func (r *Resolver) checkFile(ctx context.Context, target string) error {
	resp, err := r.httpClient.R().
		SetContext(ctx).
		Head(target)
	if err != nil {
		return fmt.Errorf("file check failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("file check returned %d", resp.StatusCode())
	}
	return nil
}

func (r *Resolver) resolveEmbed(bg domain.Background) (Source, error) {
	raw := strings.TrimSpace(bg.Src)
	if strings.Contains(raw, "<iframe") {
		extracted, err := iframeSrc(raw)
		if err != nil {
			return Source{}, err
		}
		raw = extracted
	}

	u, err := parseSource(raw)
	if err != nil {
		return Source{}, err
	}
	if !u.IsAbs() {
		return Source{}, fmt.Errorf("embed source must be absolute")
	}

	embedURL, err := canonicalEmbed(u)
	if err != nil {
		return Source{}, err
	}

	return Source{Kind: domain.BackgroundEmbed, URL: embedURL, Poster: bg.Poster}, nil
}

func iframeSrc(snippet string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return "", fmt.Errorf("failed to parse embed snippet: %w", err)
	}

	src, ok := doc.Find("iframe").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("embed snippet has no iframe src")
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return strings.TrimSpace(src), nil
}

// canonicalEmbed rewrites watch and share links of known providers into
// their player URLs. Other https URLs are used as given.
func canonicalEmbed(u *url.URL) (string, error) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtube.com", "youtube-nocookie.com":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id, nil
		}
		if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts") && segments[1] != "" {
			return "https://www.youtube.com/embed/" + segments[1], nil
		}
		return "", fmt.Errorf("unrecognised youtube url")
	case "youtu.be":
		if len(segments) == 1 && segments[0] != "" {
			return "https://www.youtube.com/embed/" + segments[0], nil
		}
		return "", fmt.Errorf("unrecognised youtube short link")
	case "vimeo.com", "player.vimeo.com":
		id := path.Base(u.Path)
		if id == "" || strings.Trim(id, "0123456789") != "" {
			return "", fmt.Errorf("unrecognised vimeo url")
		}
		return "https://player.vimeo.com/video/" + id, nil
	}

	if u.Scheme != "https" {
		return "", fmt.Errorf("embed source must use https")
	}
	return u.String(), nil
}

func parseSource(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty source")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}
	return u, nil
}
