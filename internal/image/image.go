// Package image resolves image references carried by item data into something
// a terminal can show: a colored glyph.
package image

import (
	"context"
	"hash/fnv"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/kong/tablemodel/internal/log"
	"github.com/lucasb-eyer/go-colorful"
)

// Image is a resolved reference.
type Image struct {
	Ref string
	// Color is a #RRGGBB hex string.
	Color string
	// Initial is an optional letter drawn inside the glyph.
	Initial string
}

// Target receives the result of a load. Deliver may be called from any goroutine
// and is called at most once per Load.
type Target interface {
	Deliver(img Image)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(img Image)

func (f TargetFunc) Deliver(img Image) { f(img) }

// Loader resolves a reference and hands the result to target. Loading is best
// effort: a reference that cannot be resolved delivers nothing.
type Loader interface {
	Load(ref string, target Target)
}

// Resolver resolves a reference synchronously.
type Resolver interface {
	Resolve(ref string) (Image, bool)
}

const iconPrefix = "Icon"

var iconColors = map[string]string{
	"gray":   "#8E8E93",
	"orange": "#FF9500",
	"blue":   "#007AFF",
	"green":  "#34C759",
	"red":    "#FF3B30",
	"purple": "#AF52DE",
	"pink":   "#FF2D55",
	"yellow": "#FFCC00",
	"teal":   "#5AC8FA",
	"indigo": "#5856D6",
}

// IconResolver maps icon names such as "IconOrange" to their color and derives
// a stable color for any other reference, such as an avatar URL.
type IconResolver struct{}

func (IconResolver) Resolve(ref string) (Image, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Image{}, false
	}
	if name, ok := strings.CutPrefix(ref, iconPrefix); ok {
		if hex, found := iconColors[strings.ToLower(name)]; found {
			return Image{Ref: ref, Color: hex}, true
		}
	}
	return Image{Ref: ref, Color: derivedColor(ref), Initial: initial(ref)}, true
}

// Load resolves ref and delivers the result immediately.
func (r IconResolver) Load(ref string, target Target) {
	if img, ok := r.Resolve(ref); ok {
		target.Deliver(img)
	}
}

// derivedColor hashes ref onto the hue wheel so the same reference always
// renders the same way.
func derivedColor(ref string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ref))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsl(hue, 0.55, 0.5).Clamped().Hex()
}

func initial(ref string) string {
	name := ref
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		name = strings.TrimPrefix(u.Host, "www.")
		if segments := strings.Split(strings.Trim(u.Path, "/"), "/"); segments[0] != "" {
			name = segments[len(segments)-1]
		}
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return string(r - 'a' + 'A')
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return string(r)
		}
	}
	return ""
}

// AsyncLoader resolves every reference on its own goroutine and calls the
// notify hook after each delivery so the host can redraw.
type AsyncLoader struct {
	resolver Resolver
	notify   func()
	logger   *slog.Logger

	wg sync.WaitGroup
}

type AsyncOption func(*AsyncLoader)

// WithNotify sets the hook called after a result has been delivered.
func WithNotify(fn func()) AsyncOption {
	return func(l *AsyncLoader) { l.notify = fn }
}

func WithLogger(logger *slog.Logger) AsyncOption {
	return func(l *AsyncLoader) { l.logger = logger }
}

func NewAsyncLoader(resolver Resolver, opts ...AsyncOption) *AsyncLoader {
	if resolver == nil {
		resolver = IconResolver{}
	}
	l := &AsyncLoader{resolver: resolver}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *AsyncLoader) Load(ref string, target Target) {
	if target == nil {
		return
	}
	l.wg.Go(func() {
		img, ok := l.resolver.Resolve(ref)
		if !ok {
			l.trace("image reference not resolved", slog.String("ref", ref))
			return
		}
		target.Deliver(img)
		l.trace("image delivered", slog.String("ref", ref), slog.String("color", img.Color))
		if l.notify != nil {
			l.notify()
		}
	})
}

// Wait blocks until every load started so far has finished.
func (l *AsyncLoader) Wait() {
	l.wg.Wait()
}

func (l *AsyncLoader) trace(msg string, attrs ...slog.Attr) {
	if l.logger == nil {
		return
	}
	l.logger.LogAttrs(context.Background(), log.LevelTrace, msg, attrs...)
}

var (
	_ Loader   = IconResolver{}
	_ Loader   = (*AsyncLoader)(nil)
	_ Resolver = IconResolver{}
)
