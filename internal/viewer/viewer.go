// Package viewer is the top-level owner of one viewing session: navigation,
// overlays, cart, commerce and analytics. Callers send Actions and render the
// View that results.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"

	"slydes/viewer/internal/analytics"
	"slydes/viewer/internal/breadcrumb"
	"slydes/viewer/internal/cart"
	"slydes/viewer/internal/commerce"
	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/navigation"
	"slydes/viewer/internal/overlay"
)

type options struct {
	initial   domain.NavigationState
	restored  bool
	cartItems []domain.CartItem
	sink      analytics.Sink
	source    string
	referrer  string
	checkout  commerce.Checkout
	contact   commerce.Contact
	formatter cart.Formatter
	clock     clock.Clock
	emitter   []analytics.Option
}

type Option func(*options)

// WithInitialState lands the viewer on a deep-linked state instead of home.
func WithInitialState(state domain.NavigationState) Option {
	return func(o *options) {
		o.initial = state
	}
}

// WithRestoredState resumes a viewer from its own saved state. Unlike a deep
// link, a saved state may sit on the inventory list.
func WithRestoredState(state domain.NavigationState) Option {
	return func(o *options) {
		o.initial = state
		o.restored = true
	}
}

// WithCartItems refills the cart, keeping each line's quantity.
func WithCartItems(items []domain.CartItem) Option {
	return func(o *options) {
		o.cartItems = items
	}
}

func WithAnalytics(sink analytics.Sink, source, referrer string, opts ...analytics.Option) Option {
	return func(o *options) {
		o.sink = sink
		o.source = source
		o.referrer = referrer
		o.emitter = append(o.emitter, opts...)
	}
}

func WithCommerce(checkout commerce.Checkout, contact commerce.Contact) Option {
	return func(o *options) {
		o.checkout = checkout
		o.contact = contact
	}
}

func WithFormatter(f cart.Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Viewer is not safe for concurrent use; it models a single UI loop. HandOff
// is the exception and may run alongside other calls.
type Viewer struct {
	controller *navigation.Controller
	overlays   *overlay.Coordinator
	cart       *cart.Store
	commerce   *commerce.Dispatcher
	emitter    *analytics.Emitter
}

// New mounts a viewer over graph and emits sessionStart.
func New(graph *domain.Graph, opts ...Option) *Viewer {
	o := options{initial: domain.HomeState(), clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	emitterOpts := append([]analytics.Option{analytics.WithClock(o.clock)}, o.emitter...)
	emitter := analytics.NewEmitter(o.sink, analytics.Config{
		OrganizationSlug: graph.OrganizationSlug,
		SlydePublicID:    graph.SlydePublicID,
		Source:           o.source,
		Referrer:         o.referrer,
	}, emitterOpts...)

	overlays := overlay.NewCoordinator()
	store := cart.NewStore(o.formatter)
	for _, line := range o.cartItems {
		store.Add(line)
		store.SetQuantity(line.ID, line.Quantity)
	}

	var controller *navigation.Controller
	if o.restored {
		controller = navigation.Restore(graph, emitter, overlays, o.initial)
	} else {
		controller = navigation.New(graph, emitter, overlays, o.initial)
	}

	v := &Viewer{
		controller: controller,
		overlays:   overlays,
		cart:       store,
		commerce:   commerce.NewDispatcher(store, o.checkout, o.contact, o.clock),
		emitter:    emitter,
	}
	emitter.Start()
	return v
}

func (v *Viewer) SessionID() string {
	return v.emitter.Session().ID
}

func (v *Viewer) State() domain.NavigationState {
	return v.controller.State()
}

func (v *Viewer) Cart() *cart.Store {
	return v.cart
}

// Dispatch applies an action. Refused transitions are reported through
// Outcome.Performed; an error is returned only for malformed actions.
func (v *Viewer) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	c := v.controller

	switch a.Type {
	case ActionSelectCategory:
		return done(c.SelectCategory(a.CategoryID)), nil
	case ActionAdvance:
		return done(c.Advance()), nil
	case ActionRetreat:
		return done(c.Retreat()), nil
	case ActionGoToFrame:
		return done(c.GoToFrame(a.Index)), nil
	case ActionTap:
		return done(c.Tap(a.X, a.Width)), nil
	case ActionViewAll:
		return done(c.ViewAll()), nil
	case ActionSelectItem:
		return done(c.SelectItem(a.ItemID)), nil
	case ActionBack:
		return done(c.Back()), nil
	case ActionJump:
		return done(c.JumpTo(a.Level)), nil
	case ActionVideoLoop:
		return done(c.VideoLoop()), nil

	case ActionOpenDrawer:
		return done(c.OpenDrawer()), nil
	case ActionCloseDrawer:
		return done(c.CloseDrawer()), nil
	case ActionOpenOverlay:
		if a.Overlay == overlay.Drawer {
			return done(c.OpenDrawer()), nil
		}
		return done(v.overlays.Open(a.Overlay)), nil
	case ActionCloseOverlay:
		return done(v.overlays.Close(a.Overlay)), nil
	case ActionReleaseOverlay:
		return done(v.overlays.Release(a.Overlay, a.Drag)), nil

	case ActionCommerce:
		return v.dispatchCommerce(ctx, a.ItemID)
	case ActionClearCommerceErr:
		id := a.ItemID
		if id == "" {
			id = v.State().ActiveItemID
		}
		return done(v.commerce.ClearFailure(id)), nil

	case ActionCartAdd:
		item, ok := v.findItem(a.ItemID)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s", ErrItemNotFound, a.ItemID)
		}
		if item.CommerceMode != domain.CommerceModeAddToCart {
			return done(false), nil
		}
		v.cart.Add(domain.CartItemFrom(item))
		return done(true), nil
	case ActionCartSetQuantity:
		return done(v.cart.SetQuantity(a.ItemID, a.Quantity)), nil
	case ActionCartDecrement:
		return done(v.cart.Decrement(a.ItemID)), nil
	case ActionCartRemove:
		return done(v.cart.Remove(a.ItemID)), nil
	case ActionCartClear:
		v.cart.Clear()
		return done(true), nil
	}

	return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

func done(performed bool) Outcome {
	return Outcome{Performed: performed}
}

// CommerceTarget resolves the item a commerce action applies to: a row of the
// inventory list, or the open item. An empty itemID means the open item.
func (v *Viewer) CommerceTarget(itemID string) (domain.InventoryItem, bool) {
	state := v.State()
	if itemID == "" {
		itemID = state.ActiveItemID
	}

	switch state.Level {
	case domain.LevelInventory:
	case domain.LevelItem:
		if itemID != state.ActiveItemID {
			return domain.InventoryItem{}, false
		}
	default:
		return domain.InventoryItem{}, false
	}

	item, ok := v.controller.Graph().Item(state.ActiveCategoryID, itemID)
	if !ok {
		return domain.InventoryItem{}, false
	}
	return *item, true
}

// HandOff runs the buy_now or enquire action of item through the commerce
// collaborators. It touches no navigation or cart state, so it may run while
// other actions are applied to the viewer.
func (v *Viewer) HandOff(ctx context.Context, item domain.InventoryItem) Outcome {
	return commerceOutcome(v.commerce.Dispatch(ctx, item))
}

func (v *Viewer) dispatchCommerce(ctx context.Context, itemID string) (Outcome, error) {
	item, ok := v.CommerceTarget(itemID)
	if !ok {
		return done(false), nil
	}
	return commerceOutcome(v.commerce.Dispatch(ctx, item)), nil
}

func commerceOutcome(outcome commerce.Outcome, err error) Outcome {
	if errors.Is(err, commerce.ErrCommerceDisabled) {
		return done(false)
	}
	if err != nil {
		return Outcome{Performed: true, Commerce: outcome, Error: err.Error()}
	}
	return Outcome{Performed: true, Commerce: outcome}
}

func (v *Viewer) findItem(itemID string) (*domain.InventoryItem, bool) {
	graph := v.controller.Graph()
	if graph == nil {
		return nil, false
	}
	for i := range graph.Categories {
		if item, ok := graph.Categories[i].Item(itemID); ok {
			return item, true
		}
	}
	return nil, false
}

// View is the render snapshot of the viewer
type View struct {
	SessionID      string                 `json:"session_id"`
	State          domain.NavigationState `json:"state"`
	Overlays       map[overlay.Kind]bool  `json:"overlays"`
	SwipeUpEnabled bool                   `json:"swipe_up_enabled"`
	Breadcrumbs    []breadcrumb.Entry     `json:"breadcrumbs"`
	Frame          *domain.Frame          `json:"frame,omitempty"`
	FrameCount     int                    `json:"frame_count"`
	CanViewAll     bool                   `json:"can_view_all"`
	Items          []InventoryRow         `json:"items,omitempty"`
	Cart           CartView               `json:"cart"`
	Commerce       *CommerceView          `json:"commerce,omitempty"`
}

// InventoryRow is one entry of the inventory list. Purchase affordances are
// only shown when Commerce is true.
type InventoryRow struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Subtitle string              `json:"subtitle,omitempty"`
	Image    string              `json:"image,omitempty"`
	Price    string              `json:"price"`
	Mode     domain.CommerceMode `json:"commerce_mode"`
	Commerce bool                `json:"commerce"`
	Added    bool                `json:"added"`
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
	Total int64             `json:"total_cents"`
	Label string            `json:"total"`
}

// CommerceView describes the purchase affordance of the open item.
type CommerceView struct {
	ItemID string              `json:"item_id"`
	Mode   domain.CommerceMode `json:"commerce_mode"`
	Added  bool                `json:"added"`
	Error  string              `json:"error,omitempty"`
}

func (v *Viewer) View() View {
	state := v.State()
	graph := v.controller.Graph()

	view := View{
		SessionID:      v.SessionID(),
		State:          state,
		Overlays:       v.overlays.Snapshot(),
		SwipeUpEnabled: v.overlays.SwipeUpEnabled(),
		Breadcrumbs:    breadcrumb.Resolve(state, graph),
		CanViewAll:     v.controller.CanViewAll(),
		Cart: CartView{
			Items: v.cart.Items(),
			Count: v.cart.Count(),
			Total: v.cart.Total(),
			Label: v.cart.FormattedTotal(),
		},
	}

	if frame, ok := v.controller.CurrentFrame(); ok {
		view.Frame = &frame
	}

	switch state.Level {
	case domain.LevelCategory:
		if category, ok := v.controller.ActiveCategory(); ok {
			view.FrameCount = len(category.Frames)
		}
	case domain.LevelInventory:
		if category, ok := v.controller.ActiveCategory(); ok {
			view.Items = v.inventoryRows(category)
		}
	case domain.LevelItem:
		if item, ok := v.controller.ActiveItem(); ok {
			view.FrameCount = len(item.Frames)
			if item.CommerceMode.Enabled() {
				cv := &CommerceView{ItemID: item.ID, Mode: item.CommerceMode, Added: v.commerce.Added(item.ID)}
				if err := v.commerce.Failure(item.ID); err != nil {
					cv.Error = err.Error()
				}
				view.Commerce = cv
			}
		}
	}

	return view
}

func (v *Viewer) inventoryRows(category *domain.Category) []InventoryRow {
	rows := make([]InventoryRow, 0, len(category.Inventory))
	for _, item := range category.Inventory {
		rows = append(rows, InventoryRow{
			ID:       item.ID,
			Title:    item.Title,
			Subtitle: item.Subtitle,
			Image:    item.Image,
			Price:    v.cart.Format(item.PriceCents),
			Mode:     item.CommerceMode,
			Commerce: item.CommerceMode.Enabled(),
			Added:    v.commerce.Added(item.ID),
		})
	}
	return rows
}
