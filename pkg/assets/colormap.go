package assets

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Color is one RGBA stop of a color map.
type Color [4]float32

// ColorMap is an ordered list of RGBA stops a particle fades through
// over its lifetime.
type ColorMap struct {
	def    string
	colors []Color
}

// Def returns the definition string the map was built from.
func (m *ColorMap) Def() string { return m.def }

// Colors returns the RGBA stops.
func (m *ColorMap) Colors() []Color { return m.colors }

// At returns the stop for a life fraction in [0,1], clamped.
func (m *ColorMap) At(frac float32) Color {
	if len(m.colors) == 0 {
		return Color{}
	}
	i := int(frac * float32(len(m.colors)-1))
	if i < 0 {
		i = 0
	}
	if i >= len(m.colors) {
		i = len(m.colors) - 1
	}
	return m.colors[i]
}

// ColorMapStore caches color maps by their definition string, so every
// spawn table using the same fade shares one map.
type ColorMapStore struct {
	mu   sync.Mutex
	maps map[string]*ColorMap
}

// NewColorMapStore returns an empty store.
func NewColorMapStore() *ColorMapStore {
	return &ColorMapStore{maps: map[string]*ColorMap{}}
}

// FromDefString parses a whitespace-separated list of floats, four per
// stop, into a ColorMap. At least two stops are required. The result is
// cached under the exact definition string.
func (s *ColorMapStore) FromDefString(def string) (*ColorMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.maps[def]; ok {
		return m, nil
	}

	fields := strings.Fields(def)
	if len(fields) < 8 {
		return nil, fmt.Errorf("assets: color map %q needs at least two RGBA stops", def)
	}
	if len(fields)%4 != 0 {
		return nil, fmt.Errorf("assets: color map %q has %d values, not a multiple of 4", def, len(fields))
	}

	colors := make([]Color, 0, len(fields)/4)
	for i := 0; i < len(fields); i += 4 {
		var c Color
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(fields[i+j], 32)
			if err != nil {
				return nil, fmt.Errorf("assets: color map %q: bad value %q", def, fields[i+j])
			}
			c[j] = float32(v)
		}
		colors = append(colors, c)
	}

	m := &ColorMap{def: def, colors: colors}
	s.maps[def] = m
	return m, nil
}

// Len returns the number of cached maps.
func (s *ColorMapStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maps)
}
