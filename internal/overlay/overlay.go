package overlay

type Kind string

func (k Kind) String() string {
	return string(k)
}

const (
	Drawer  Kind = "drawer" // category drawer
	Info    Kind = "info"
	Share   Kind = "share"
	Connect Kind = "connect"
	Cart    Kind = "cart"
)

var Kinds = []Kind{Drawer, Info, Share, Connect, Cart}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Drag thresholds for dismissing a sheet. Either one is enough on its own.
const (
	DismissOffsetPx         = 100.0
	DismissVelocityPxPerSec = 500.0
)

// Drag is the gesture measured when the user releases a sheet
type Drag struct {
	OffsetPx         float64 `json:"offset_px"`
	VelocityPxPerSec float64 `json:"velocity_px_per_sec"`
}

func ShouldDismiss(d Drag) bool {
	return d.OffsetPx > DismissOffsetPx || d.VelocityPxPerSec > DismissVelocityPxPerSec
}

// Coordinator tracks which overlays are open. At most one is open at a time,
// and closing is always allowed.
type Coordinator struct {
	open map[Kind]bool
}

func NewCoordinator() *Coordinator {
	return &Coordinator{open: make(map[Kind]bool, len(Kinds))}
}

func (c *Coordinator) IsOpen(kind Kind) bool {
	return c.open[kind]
}

func (c *Coordinator) AnyOpen() bool {
	for _, isOpen := range c.open {
		if isOpen {
			return true
		}
	}
	return false
}

// SwipeUpEnabled reports whether the swipe-up region that opens the category
// drawer accepts gestures.
func (c *Coordinator) SwipeUpEnabled() bool {
	return !c.AnyOpen()
}

// Open shows the overlay. It is refused while a different overlay is open;
// opening an already open overlay is a no-op that reports false.
func (c *Coordinator) Open(kind Kind) bool {
	if !kind.Valid() || c.open[kind] {
		return false
	}
	if c.AnyOpen() {
		return false
	}
	c.open[kind] = true
	return true
}

// Close hides the overlay and reports whether it was open.
func (c *Coordinator) Close(kind Kind) bool {
	wasOpen := c.open[kind]
	delete(c.open, kind)
	return wasOpen
}

func (c *Coordinator) CloseAll() {
	clear(c.open)
}

// Release handles the end of a drag on an open overlay, closing it when the
// drag crossed a dismissal threshold.
func (c *Coordinator) Release(kind Kind, d Drag) bool {
	if !c.open[kind] || !ShouldDismiss(d) {
		return false
	}
	return c.Close(kind)
}

// Snapshot returns the visibility of every overlay.
func (c *Coordinator) Snapshot() map[Kind]bool {
	out := make(map[Kind]bool, len(Kinds))
	for _, kind := range Kinds {
		out[kind] = c.open[kind]
	}
	return out
}
