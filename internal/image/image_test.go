package image

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconResolver(t *testing.T) {
	r := IconResolver{}

	img, ok := r.Resolve("IconOrange")
	require.True(t, ok)
	assert.Equal(t, Image{Ref: "IconOrange", Color: "#FF9500"}, img)

	img, ok = r.Resolve("IconBlue")
	require.True(t, ok)
	assert.Equal(t, "#007AFF", img.Color)
	assert.Empty(t, img.Initial)

	_, ok = r.Resolve("  ")
	assert.False(t, ok)

	avatar := "https://avatars.githubusercontent.com/u/kong"
	first, ok := r.Resolve(avatar)
	require.True(t, ok)
	second, _ := r.Resolve(avatar)
	assert.Equal(t, first, second)
	assert.Equal(t, "K", first.Initial)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, first.Color)

	other, _ := r.Resolve("IconUnknown")
	assert.Equal(t, "I", other.Initial)
}

func TestIconResolverLoadDeliversSynchronously(t *testing.T) {
	var got []Image
	IconResolver{}.Load("IconGray", TargetFunc(func(img Image) { got = append(got, img) }))
	IconResolver{}.Load("", TargetFunc(func(img Image) { got = append(got, img) }))
	require.Len(t, got, 1)
	assert.Equal(t, "#8E8E93", got[0].Color)
}

func TestAsyncLoader(t *testing.T) {
	var notified atomic.Int32
	loader := NewAsyncLoader(nil, WithNotify(func() { notified.Add(1) }))

	var mu sync.Mutex
	delivered := map[string]string{}
	for _, ref := range []string{"IconGray", "IconOrange", "IconBlue", ""} {
		loader.Load(ref, TargetFunc(func(img Image) {
			mu.Lock()
			defer mu.Unlock()
			delivered[img.Ref] = img.Color
		}))
	}
	loader.Load("IconGray", nil)
	loader.Wait()

	assert.Equal(t, map[string]string{
		"IconGray":   "#8E8E93",
		"IconOrange": "#FF9500",
		"IconBlue":   "#007AFF",
	}, delivered)
	assert.Equal(t, int32(3), notified.Load())
}
