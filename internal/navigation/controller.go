// Package navigation implements the viewer's level state machine:
// home → category → inventory → item, with frame paging inside category and
// item experiences.
//
// Every operation is synchronous and reports whether it was performed. A
// refused operation leaves the state untouched.
package navigation

import (
	"time"

	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/breadcrumb"
	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/overlay"
	"slydes/viewer/internal/player"
)

// Reporter receives the analytics events produced by transitions.
type Reporter interface {
	Emit(kind domain.EventKind, meta map[string]any)
	EmitOnce(kind domain.EventKind, meta map[string]any) bool
	SinceStart() time.Duration
}

type nopReporter struct{}

func (nopReporter) Emit(domain.EventKind, map[string]any)          {}
func (nopReporter) EmitOnce(domain.EventKind, map[string]any) bool { return false }
func (nopReporter) SinceStart() time.Duration                      { return 0 }

type Controller struct {
	graph    *domain.Graph
	reporter Reporter
	overlays *overlay.Coordinator

	level      domain.Level
	categoryID string
	itemID     string

	categoryFrames *player.Player
	itemFrames     *player.Player
}

// New creates a controller positioned at a deep link. A deep link lands in
// a category or an item; the inventory list is never an entry point, so an
// inventory link opens its category instead. Parts of initial that do not
// resolve against the graph are dropped, moving the viewer up to the deepest
// valid level.
func New(graph *domain.Graph, reporter Reporter, overlays *overlay.Coordinator, initial domain.NavigationState) *Controller {
	c := newController(graph, reporter, overlays)
	c.restore(initial, false)
	return c
}

// Restore recreates a controller from a saved state of the same viewer,
// including a viewer that was left on the inventory list.
func Restore(graph *domain.Graph, reporter Reporter, overlays *overlay.Coordinator, saved domain.NavigationState) *Controller {
	c := newController(graph, reporter, overlays)
	c.restore(saved, true)
	return c
}

func newController(graph *domain.Graph, reporter Reporter, overlays *overlay.Coordinator) *Controller {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if overlays == nil {
		overlays = overlay.NewCoordinator()
	}
	return &Controller{
		graph:    graph,
		reporter: reporter,
		overlays: overlays,
		level:    domain.LevelHome,
	}
}

func (c *Controller) restore(initial domain.NavigationState, allowInventory bool) {
	if !initial.Level.Valid() {
		if initial.Level != "" {
			log.Warnf("⚠️ Unknown initial level %q, starting at home", initial.Level)
		}
		return
	}

	if initial.Level == domain.LevelHome {
		if initial.DrawerOpen {
			c.overlays.Open(overlay.Drawer)
		}
		return
	}

	category, ok := c.graph.Category(initial.ActiveCategoryID)
	if !ok {
		log.Warnf("⚠️ Deep link category %q not found, starting at home", initial.ActiveCategoryID)
		return
	}
	c.level = domain.LevelCategory
	c.categoryID = category.ID
	c.categoryFrames = player.NewAt(len(category.Frames), initial.CategoryFrameIndex)

	if initial.Level.Depth() < domain.LevelInventory.Depth() {
		return
	}
	if !category.HasInventory() {
		log.Warnf("⚠️ Category %q has no inventory, deep link stays on the category", category.ID)
		return
	}

	if initial.Level == domain.LevelInventory {
		if allowInventory {
			c.level = domain.LevelInventory
		}
		return
	}

	item, ok := category.Item(initial.ActiveItemID)
	if !ok || len(item.Frames) == 0 {
		if allowInventory {
			c.level = domain.LevelInventory
		}
		log.Warnf("⚠️ Deep link item %q not available in %q, showing %s", initial.ActiveItemID, category.ID, c.level)
		return
	}
	c.level = domain.LevelItem
	c.itemID = item.ID
	c.itemFrames = player.NewAt(len(item.Frames), initial.ItemFrameIndex)
}

// State returns a copy of the current navigation state.
func (c *Controller) State() domain.NavigationState {
	state := domain.NavigationState{
		Level:            c.level,
		ActiveCategoryID: c.categoryID,
		ActiveItemID:     c.itemID,
		DrawerOpen:       c.overlays.IsOpen(overlay.Drawer),
	}
	if c.categoryFrames != nil {
		state.CategoryFrameIndex = c.categoryFrames.Index()
	}
	if c.itemFrames != nil {
		state.ItemFrameIndex = c.itemFrames.Index()
	}
	return state
}

func (c *Controller) Level() domain.Level {
	return c.level
}

func (c *Controller) Graph() *domain.Graph {
	return c.graph
}

func (c *Controller) Overlays() *overlay.Coordinator {
	return c.overlays
}

func (c *Controller) ActiveCategory() (*domain.Category, bool) {
	if c.level == domain.LevelHome {
		return nil, false
	}
	return c.graph.Category(c.categoryID)
}

func (c *Controller) ActiveItem() (*domain.InventoryItem, bool) {
	if c.level != domain.LevelItem {
		return nil, false
	}
	return c.graph.Item(c.categoryID, c.itemID)
}

// CurrentFrame returns the frame on screen at the category or item level.
func (c *Controller) CurrentFrame() (domain.Frame, bool) {
	switch c.level {
	case domain.LevelCategory:
		if frame, ok := c.currentCategoryFrame(); ok {
			return frame.Frame, true
		}
	case domain.LevelItem:
		item, ok := c.ActiveItem()
		if ok && c.itemFrames != nil {
			return item.Frames[c.itemFrames.Index()].Frame, true
		}
	}
	return domain.Frame{}, false
}

func (c *Controller) currentCategoryFrame() (domain.CategoryFrame, bool) {
	category, ok := c.ActiveCategory()
	if !ok || c.categoryFrames == nil {
		return domain.CategoryFrame{}, false
	}
	return category.Frames[c.categoryFrames.Index()], true
}

// frames returns the player of the experience on screen, if any.
func (c *Controller) frames() *player.Player {
	switch c.level {
	case domain.LevelCategory:
		return c.categoryFrames
	case domain.LevelItem:
		return c.itemFrames
	default:
		return nil
	}
}

// SelectCategory enters a category from home at its first frame.
func (c *Controller) SelectCategory(categoryID string) bool {
	if c.level != domain.LevelHome {
		return false
	}
	category, ok := c.graph.Category(categoryID)
	if !ok {
		log.Debugf("Refusing to select unknown category %q", categoryID)
		return false
	}

	c.overlays.Close(overlay.Drawer)
	c.level = domain.LevelCategory
	c.categoryID = category.ID
	c.categoryFrames = player.New(len(category.Frames))

	c.reporter.Emit(domain.EventCategorySelect, map[string]any{"categoryId": category.ID})
	return true
}

// Advance moves to the next frame. It never leaves the current level.
func (c *Controller) Advance() bool {
	p := c.frames()
	return p != nil && p.Next()
}

func (c *Controller) Retreat() bool {
	p := c.frames()
	return p != nil && p.Prev()
}

// GoToFrame jumps to a frame of the current experience, clamping the index.
func (c *Controller) GoToFrame(index int) bool {
	p := c.frames()
	if p == nil {
		return false
	}
	p.GoTo(index)
	return true
}

// Tap advances when the tap lands in the advance zone and no overlay is open.
func (c *Controller) Tap(x, width float64) bool {
	if c.overlays.AnyOpen() || !player.InAdvanceZone(x, width) {
		return false
	}
	return c.Advance()
}

// ViewAll opens the inventory list of the active category. It is available on
// the terminal frame or on frames flagged with ShowViewAll, and only when the
// category has inventory.
func (c *Controller) ViewAll() bool {
	if !c.CanViewAll() {
		return false
	}
	c.level = domain.LevelInventory
	return true
}

// CanViewAll reports whether ViewAll would succeed right now.
func (c *Controller) CanViewAll() bool {
	if c.level != domain.LevelCategory {
		return false
	}
	category, ok := c.ActiveCategory()
	if !ok || !category.HasInventory() {
		return false
	}
	frame, ok := c.currentCategoryFrame()
	return ok && (frame.ShowViewAll || c.categoryFrames.AtEnd())
}

// SelectItem opens an item of the inventory list at its first frame.
func (c *Controller) SelectItem(itemID string) bool {
	if c.level != domain.LevelInventory {
		return false
	}
	item, ok := c.graph.Item(c.categoryID, itemID)
	if !ok || len(item.Frames) == 0 {
		log.Debugf("Refusing to select item %q in category %q", itemID, c.categoryID)
		return false
	}
	c.level = domain.LevelItem
	c.itemID = item.ID
	c.itemFrames = player.New(len(item.Frames))
	return true
}

// Back moves one level up. Returning to the category keeps its frame index.
func (c *Controller) Back() bool {
	switch c.level {
	case domain.LevelCategory:
		c.goHome()
	case domain.LevelInventory:
		c.level = domain.LevelCategory
	case domain.LevelItem:
		c.leaveItem()
		c.level = domain.LevelInventory
	default:
		return false
	}
	return true
}

// JumpTo moves to a clickable breadcrumb entry. Jumping home resets
// everything; jumping to the category keeps its frame index.
func (c *Controller) JumpTo(level domain.Level) bool {
	if !breadcrumb.IsJumpTarget(c.State(), level) {
		return false
	}
	switch level {
	case domain.LevelHome:
		c.goHome()
	case domain.LevelCategory:
		c.leaveItem()
		c.level = domain.LevelCategory
	case domain.LevelInventory:
		c.leaveItem()
		c.level = domain.LevelInventory
	default:
		return false
	}
	return true
}

func (c *Controller) goHome() {
	c.level = domain.LevelHome
	c.categoryID = ""
	c.itemID = ""
	c.categoryFrames = nil
	c.itemFrames = nil
}

func (c *Controller) leaveItem() {
	c.itemID = ""
	c.itemFrames = nil
}

// OpenDrawer shows the category drawer on the home level. The first open of
// the session is reported with the time elapsed since the session started.
func (c *Controller) OpenDrawer() bool {
	if c.level != domain.LevelHome || !c.overlays.Open(overlay.Drawer) {
		return false
	}
	c.reporter.EmitOnce(domain.EventDrawerOpen, map[string]any{
		"elapsedMs": c.reporter.SinceStart().Milliseconds(),
	})
	return true
}

func (c *Controller) CloseDrawer() bool {
	return c.overlays.Close(overlay.Drawer)
}

// VideoLoop reports a completed loop of the home background video.
func (c *Controller) VideoLoop() bool {
	if c.level != domain.LevelHome {
		return false
	}
	c.reporter.Emit(domain.EventVideoLoop, nil)
	return true
}
