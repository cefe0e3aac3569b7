package display

import (
	"fmt"
	"image"
	_ "image/png" // PNG デコーダを登録
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru"
	_ "golang.org/x/image/bmp" // BMP デコーダを登録

	"github.com/zurustar/gamelang/pkg/fileutil"
)

// DefaultCacheSize is the number of images kept in memory.
const DefaultCacheSize = 64

type cachedImage struct {
	img image.Image
	tex *ebiten.Image
	err error
}

// ImageLoader decodes sprite and background images from a file system and
// keeps the most recently used ones, together with their textures. Failed
// loads are cached too so a missing file is reported once.
type ImageLoader struct {
	fsys  fileutil.FileSystem
	cache *lru.Cache
	log   *slog.Logger

	newTexture func(image.Image) *ebiten.Image
	release    func(*ebiten.Image)
	evicted    []*ebiten.Image
}

// NewImageLoader creates a loader over fsys holding up to size images.
func NewImageLoader(fsys fileutil.FileSystem, size int, log *slog.Logger) (*ImageLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if log == nil {
		log = slog.Default()
	}
	l := &ImageLoader{
		fsys:       fsys,
		log:        log,
		newTexture: ebiten.NewImageFromImage,
		release:    (*ebiten.Image).Deallocate,
	}
	cache, err := lru.NewWithEvict(size, l.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	l.cache = cache
	return l, nil
}

// Load returns the decoded image for name. File names are resolved
// case-insensitively.
func (l *ImageLoader) Load(name string) (image.Image, error) {
	c := l.entry(name)
	return c.img, c.err
}

// Texture returns the GPU image for name, creating it on first use.
func (l *ImageLoader) Texture(name string) (*ebiten.Image, error) {
	c := l.entry(name)
	if c.err != nil || c.tex != nil {
		return c.tex, c.err
	}
	c.tex = l.newTexture(c.img)
	l.cache.Add(name, c)
	return c.tex, nil
}

func (l *ImageLoader) entry(name string) cachedImage {
	if v, ok := l.cache.Get(name); ok {
		return v.(cachedImage)
	}

	img, err := l.decode(name)
	if err != nil {
		l.log.Error("Failed to load image", "name", name, "error", err)
	} else {
		l.log.Debug("Image loaded", "name", name, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}
	c := cachedImage{img: img, err: err}
	l.cache.Add(name, c)
	return c
}

// onEvict queues the texture of a dropped entry. It may still be referenced
// by draw commands of the current frame, so it is released by
// ReleaseEvicted.
func (l *ImageLoader) onEvict(key, value interface{}) {
	if c, ok := value.(cachedImage); ok && c.tex != nil {
		l.log.Debug("Image evicted", "name", key)
		l.evicted = append(l.evicted, c.tex)
	}
}

// ReleaseEvicted deallocates the textures of evicted entries.
func (l *ImageLoader) ReleaseEvicted() {
	for _, tex := range l.evicted {
		l.release(tex)
	}
	l.evicted = l.evicted[:0]
}

func (l *ImageLoader) decode(name string) (image.Image, error) {
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return img, nil
}

// Len returns the number of cached entries.
func (l *ImageLoader) Len() int {
	return l.cache.Len()
}

// Purge drops every cached image and releases their textures.
func (l *ImageLoader) Purge() {
	l.cache.Purge()
	l.ReleaseEvicted()
}
