// Package assets holds the visual asset stores that compiled programs
// resolve names against: the projectile texture atlas, the ground effect
// atlas, and cached color maps.
package assets

import (
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("expgen.assets")

// AtlasedTexture is a named region of the projectile texture atlas.
type AtlasedTexture struct {
	Name           string
	X0, Y0, X1, Y1 float32
}

// GroundFXTexture is a named region of the ground effect atlas. It is a
// distinct type so field reflection can tell the two atlases apart.
type GroundFXTexture struct {
	Name           string
	X0, Y0, X1, Y1 float32
}

// TextureAtlas maps texture names to atlas regions. Lookups for unknown
// names log a warning and return a stable blank placeholder, so a bad
// texture tag degrades to an invisible quad instead of failing the
// whole generator.
type TextureAtlas struct {
	mu   sync.RWMutex
	texs map[string]*AtlasedTexture
}

// NewTextureAtlas returns an empty atlas.
func NewTextureAtlas() *TextureAtlas {
	return &TextureAtlas{texs: map[string]*AtlasedTexture{}}
}

// Register adds a texture region under tex.Name, replacing any previous
// entry with that name.
func (a *TextureAtlas) Register(tex AtlasedTexture) *AtlasedTexture {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := tex
	a.texs[tex.Name] = &t
	return &t
}

// Texture returns the region registered under name. Unknown names get a
// placeholder that is remembered, so repeated lookups return the same
// pointer.
func (a *TextureAtlas) Texture(name string) *AtlasedTexture {
	a.mu.RLock()
	t, ok := a.texs[name]
	a.mu.RUnlock()
	if ok {
		return t
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.texs[name]; ok {
		return t
	}
	log.Warningf("texture atlas has no entry %q", name)
	t = &AtlasedTexture{Name: name}
	a.texs[name] = t
	return t
}

// Len returns the number of registered textures, placeholders included.
func (a *TextureAtlas) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.texs)
}

// GroundFXAtlas maps names to ground effect atlas regions, with the
// same placeholder behavior as TextureAtlas.
type GroundFXAtlas struct {
	mu   sync.RWMutex
	texs map[string]*GroundFXTexture
}

// NewGroundFXAtlas returns an empty atlas.
func NewGroundFXAtlas() *GroundFXAtlas {
	return &GroundFXAtlas{texs: map[string]*GroundFXTexture{}}
}

// Register adds a region under tex.Name, replacing any previous entry.
func (a *GroundFXAtlas) Register(tex GroundFXTexture) *GroundFXTexture {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := tex
	a.texs[tex.Name] = &t
	return &t
}

// Texture returns the region registered under name, or a remembered
// placeholder for unknown names.
func (a *GroundFXAtlas) Texture(name string) *GroundFXTexture {
	a.mu.RLock()
	t, ok := a.texs[name]
	a.mu.RUnlock()
	if ok {
		return t
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.texs[name]; ok {
		return t
	}
	log.Warningf("ground fx atlas has no entry %q", name)
	t = &GroundFXTexture{Name: name}
	a.texs[name] = t
	return t
}
