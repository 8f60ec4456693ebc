// Package player pages through the frames of a single experience.
package player

// advanceZone is the fraction of the screen width, from the left edge, where a
// tap moves to the next frame.
const advanceZone = 0.8

// Player keeps the current frame index of one category or item experience.
// The index never leaves [0, count-1]; progression is driven only by callers.
type Player struct {
	count int
	index int
}

func New(count int) *Player {
	return NewAt(count, 0)
}

// NewAt creates a player positioned at index, clamped into range.
func NewAt(count, index int) *Player {
	if count < 0 {
		count = 0
	}
	p := &Player{count: count}
	p.GoTo(index)
	return p
}

func (p *Player) Index() int {
	return p.index
}

func (p *Player) Count() int {
	return p.count
}

func (p *Player) AtEnd() bool {
	return p.index >= p.count-1
}

// Next moves forward one frame. It reports false when already on the last frame.
func (p *Player) Next() bool {
	if p.index >= p.count-1 {
		return false
	}
	p.index++
	return true
}

// Prev moves back one frame. It reports false when already on the first frame.
func (p *Player) Prev() bool {
	if p.index <= 0 {
		return false
	}
	p.index--
	return true
}

// GoTo jumps to index, silently clamping it, and returns the resulting index.
func (p *Player) GoTo(index int) int {
	last := p.count - 1
	switch {
	case last < 0:
		index = 0
	case index < 0:
		index = 0
	case index > last:
		index = last
	}
	p.index = index
	return p.index
}

// InAdvanceZone reports whether a tap at x on a surface of the given width
// falls inside the tap-to-advance region.
func InAdvanceZone(x, width float64) bool {
	if width <= 0 || x < 0 {
		return false
	}
	return x < width*advanceZone
}
