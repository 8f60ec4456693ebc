package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slydes/viewer/internal/analytics"
	"slydes/viewer/internal/breadcrumb"
	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/overlay"
)

func categoryFrames(n int) []domain.CategoryFrame {
	out := make([]domain.CategoryFrame, n)
	for i := range out {
		out[i] = domain.CategoryFrame{Frame: domain.Frame{ID: string(rune('a' + i)), Title: "frame"}}
	}
	return out
}

func oneItemFrame() []domain.ItemFrame {
	return []domain.ItemFrame{{Frame: domain.Frame{ID: "i1"}}, {Frame: domain.Frame{ID: "i2"}}}
}

func campingGraph() *domain.Graph {
	camping := domain.Category{
		ID:     "camping",
		Label:  "Camping",
		Frames: categoryFrames(4),
		Inventory: []domain.InventoryItem{
			{ID: "tent-a", Title: "Tent A", PriceCents: 12999, CommerceMode: domain.CommerceModeAddToCart, Frames: oneItemFrame()},
			{ID: "kayak", Title: "Kayak", PriceCents: 45000, CommerceMode: domain.CommerceModeBuyNow, Frames: oneItemFrame()},
			{ID: "map", Title: "Trail map", PriceCents: 500, CommerceMode: domain.CommerceModeNone, Frames: oneItemFrame()},
		},
	}
	camping.Frames[3].ShowViewAll = true

	return &domain.Graph{
		OrganizationSlug: "acme",
		SlydePublicID:    "slyde-1",
		Categories:       []domain.Category{camping},
	}
}

type memorySink struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (s *memorySink) Send(_ context.Context, batch domain.AnalyticsBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch.Events...)
	return nil
}

func (s *memorySink) count(kind domain.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.EventType == kind {
			n++
		}
	}
	return n
}

type fakeCheckout struct {
	calls []string
	err   error
}

func (f *fakeCheckout) BuyNow(_ context.Context, item domain.InventoryItem) error {
	f.calls = append(f.calls, "buy:"+item.ID)
	return f.err
}

func (f *fakeCheckout) Enquire(_ context.Context, item domain.InventoryItem) error {
	f.calls = append(f.calls, "enquire:"+item.ID)
	return f.err
}

type harness struct {
	v        *Viewer
	sink     *memorySink
	checkout *fakeCheckout
	clock    *clock.Mock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{sink: &memorySink{}, checkout: &fakeCheckout{}, clock: clock.NewMock()}
	base := []Option{
		WithClock(h.clock),
		WithAnalytics(h.sink, "test", "", analytics.WithDispatcher(func(fn func()) { fn() })),
		WithCommerce(h.checkout, h.checkout),
	}
	h.v = New(campingGraph(), append(base, opts...)...)
	return h
}

func (h *harness) do(t *testing.T, a Action) Outcome {
	t.Helper()
	out, err := h.v.Dispatch(context.Background(), a)
	require.NoError(t, err)
	return out
}

func (h *harness) enterInventory(t *testing.T) {
	t.Helper()
	h.do(t, Action{Type: ActionSelectCategory, CategoryID: "camping"})
	h.do(t, Action{Type: ActionGoToFrame, Index: 3})
	require.True(t, h.do(t, Action{Type: ActionViewAll}).Performed)
}

func TestMountEmitsSessionStart(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.sink.count(domain.EventSessionStart))
	assert.NotEmpty(t, h.v.SessionID())
	assert.Equal(t, domain.HomeState(), h.v.State())
}

func TestScenarioThroughActions(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.do(t, Action{Type: ActionSelectCategory, CategoryID: "camping"}).Performed)
	for i := 0; i < 5; i++ {
		h.do(t, Action{Type: ActionAdvance})
	}
	assert.Equal(t, 3, h.v.State().CategoryFrameIndex)

	view := h.v.View()
	assert.True(t, view.CanViewAll)
	assert.Equal(t, 4, view.FrameCount)

	require.True(t, h.do(t, Action{Type: ActionViewAll}).Performed)
	view = h.v.View()
	require.Len(t, view.Items, 3)
	assert.Equal(t, "$129.99", view.Items[0].Price)
	assert.True(t, view.Items[0].Commerce)
	assert.False(t, view.Items[2].Commerce, "mode none hides purchase affordances")

	require.True(t, h.do(t, Action{Type: ActionSelectItem, ItemID: "tent-a"}).Performed)
	view = h.v.View()
	assert.Equal(t, domain.LevelItem, view.State.Level)
	require.Len(t, view.Breadcrumbs, 4)
	assert.Equal(t, []bool{true, true, true, false}, []bool{
		view.Breadcrumbs[0].Clickable, view.Breadcrumbs[1].Clickable,
		view.Breadcrumbs[2].Clickable, view.Breadcrumbs[3].Clickable,
	})
	require.NotNil(t, view.Frame)
	assert.Equal(t, "i1", view.Frame.ID)

	h.do(t, Action{Type: ActionBack})
	h.do(t, Action{Type: ActionBack})
	assert.Equal(t, 3, h.v.State().CategoryFrameIndex)
	assert.Equal(t, 1, h.sink.count(domain.EventCategorySelect))
}

func TestDrawerOpenReportedOncePerSession(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		h.clock.Add(time.Second)
		require.True(t, h.do(t, Action{Type: ActionOpenOverlay, Overlay: overlay.Drawer}).Performed)
		assert.False(t, h.v.View().SwipeUpEnabled)
		require.True(t, h.do(t, Action{Type: ActionReleaseOverlay, Overlay: overlay.Drawer, Drag: overlay.Drag{OffsetPx: 150}}).Performed)
	}
	assert.Equal(t, 1, h.sink.count(domain.EventDrawerOpen))

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	for _, e := range h.sink.events {
		if e.EventType == domain.EventDrawerOpen {
			assert.Equal(t, int64(1000), e.Meta["elapsedMs"])
		}
	}
}

func TestOverlayActions(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.do(t, Action{Type: ActionOpenOverlay, Overlay: overlay.Cart}).Performed)
	assert.False(t, h.do(t, Action{Type: ActionOpenDrawer}).Performed)
	assert.False(t, h.do(t, Action{Type: ActionReleaseOverlay, Overlay: overlay.Cart, Drag: overlay.Drag{OffsetPx: 20}}).Performed)
	assert.True(t, h.do(t, Action{Type: ActionCloseOverlay, Overlay: overlay.Cart}).Performed)
	assert.True(t, h.v.View().SwipeUpEnabled)
}

func TestVideoLoop(t *testing.T) {
	h := newHarness(t)
	h.do(t, Action{Type: ActionVideoLoop})
	h.do(t, Action{Type: ActionVideoLoop})
	assert.Equal(t, 2, h.sink.count(domain.EventVideoLoop))
}

func TestAddToCartFromInventory(t *testing.T) {
	h := newHarness(t)
	h.enterInventory(t)

	out := h.do(t, Action{Type: ActionCommerce, ItemID: "tent-a"})
	assert.True(t, out.Performed)
	assert.Equal(t, domain.LevelInventory, h.v.State().Level, "adding to cart does not navigate")

	view := h.v.View()
	assert.True(t, view.Items[0].Added)
	assert.Equal(t, 1, view.Cart.Count)
	assert.Equal(t, "$129.99", view.Cart.Label)

	h.clock.Add(time.Second)
	assert.False(t, h.v.View().Items[0].Added)
}

func TestCommerceModeNoneNeverDispatches(t *testing.T) {
	h := newHarness(t)
	h.enterInventory(t)

	assert.False(t, h.do(t, Action{Type: ActionCommerce, ItemID: "map"}).Performed)
	assert.False(t, h.do(t, Action{Type: ActionCartAdd, ItemID: "map"}).Performed)

	h.do(t, Action{Type: ActionSelectItem, ItemID: "map"})
	assert.False(t, h.do(t, Action{Type: ActionCommerce}).Performed)
	assert.Nil(t, h.v.View().Commerce)

	assert.Empty(t, h.checkout.calls)
	assert.Empty(t, h.v.Cart().Items())
}

func TestCommerceOutsideListOrItemIsRefused(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.do(t, Action{Type: ActionCommerce, ItemID: "tent-a"}).Performed)

	h.enterInventory(t)
	h.do(t, Action{Type: ActionSelectItem, ItemID: "kayak"})
	assert.False(t, h.do(t, Action{Type: ActionCommerce, ItemID: "tent-a"}).Performed, "only the open item")
	assert.Empty(t, h.v.Cart().Items())
}

func TestCheckoutFailureIsRecoverable(t *testing.T) {
	h := newHarness(t)
	h.checkout.err = errors.New("payment provider down")
	h.enterInventory(t)
	h.do(t, Action{Type: ActionSelectItem, ItemID: "kayak"})

	out := h.do(t, Action{Type: ActionCommerce})
	assert.True(t, out.Performed)
	assert.NotEmpty(t, out.Error)

	view := h.v.View()
	assert.Equal(t, domain.LevelItem, view.State.Level, "navigation is not unwound")
	require.NotNil(t, view.Commerce)
	assert.NotEmpty(t, view.Commerce.Error)
	assert.Empty(t, h.v.Cart().Items())

	assert.True(t, h.do(t, Action{Type: ActionClearCommerceErr}).Performed)
	assert.Empty(t, h.v.View().Commerce.Error)
}

func TestCartActions(t *testing.T) {
	h := newHarness(t)

	h.do(t, Action{Type: ActionCartAdd, ItemID: "tent-a"})
	h.do(t, Action{Type: ActionCartAdd, ItemID: "tent-a"})
	assert.True(t, h.do(t, Action{Type: ActionCartSetQuantity, ItemID: "tent-a", Quantity: 0}).Performed)

	items := h.v.Cart().Items()
	require.Len(t, items, 1)
	assert.Equal(t, domain.CartItem{ID: "tent-a", Title: "Tent A", PriceCents: 12999, Quantity: 1}, items[0])

	assert.True(t, h.do(t, Action{Type: ActionCartDecrement, ItemID: "tent-a"}).Performed)
	assert.Len(t, h.v.Cart().Items(), 1)

	assert.True(t, h.do(t, Action{Type: ActionCartRemove, ItemID: "tent-a"}).Performed)
	assert.Empty(t, h.v.Cart().Items())

	h.do(t, Action{Type: ActionCartAdd, ItemID: "tent-a"})
	h.do(t, Action{Type: ActionCartClear})
	assert.Empty(t, h.v.Cart().Items())

	_, err := h.v.Dispatch(context.Background(), Action{Type: ActionCartAdd, ItemID: "missing"})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUnknownAction(t *testing.T) {
	h := newHarness(t)
	_, err := h.v.Dispatch(context.Background(), Action{Type: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, domain.HomeState(), h.v.State())
}

func TestDeepLinkedViewer(t *testing.T) {
	h := newHarness(t, WithInitialState(domain.NavigationState{
		Level: domain.LevelItem, ActiveCategoryID: "camping", ActiveItemID: "kayak",
	}))

	view := h.v.View()
	assert.Equal(t, domain.LevelItem, view.State.Level)
	require.NotNil(t, view.Commerce)
	assert.Equal(t, domain.CommerceModeBuyNow, view.Commerce.Mode)
	assert.Equal(t, 0, h.sink.count(domain.EventCategorySelect), "deep links do not fake a selection")

	h.do(t, Action{Type: ActionJump, Level: domain.LevelHome})
	assert.Equal(t, []breadcrumb.Entry{{Level: domain.LevelHome, Label: "Home"}}, h.v.View().Breadcrumbs)
}

func TestDeepLinkDoesNotOpenInventory(t *testing.T) {
	saved := domain.NavigationState{Level: domain.LevelInventory, ActiveCategoryID: "camping", CategoryFrameIndex: 3}

	linked := newHarness(t, WithInitialState(saved))
	assert.Equal(t, domain.LevelCategory, linked.v.State().Level)

	restored := newHarness(t, WithRestoredState(saved))
	assert.Equal(t, domain.LevelInventory, restored.v.State().Level)
	assert.Len(t, restored.v.View().Items, 3)
}

func TestRestoredCart(t *testing.T) {
	h := newHarness(t, WithCartItems([]domain.CartItem{
		{ID: "tent-a", Title: "Tent A", PriceCents: 12999, Quantity: 3},
	}))

	view := h.v.View()
	require.Len(t, view.Cart.Items, 1)
	assert.Equal(t, 3, view.Cart.Items[0].Quantity)
	assert.Equal(t, 3, view.Cart.Count)
	assert.Equal(t, int64(3*12999), view.Cart.Total)
}

func TestHandOffLeavesNavigationAlone(t *testing.T) {
	h := newHarness(t)
	h.enterInventory(t)
	h.do(t, Action{Type: ActionSelectItem, ItemID: "kayak"})

	item, ok := h.v.CommerceTarget("")
	require.True(t, ok)
	assert.Equal(t, "kayak", item.ID)

	before := h.v.State()
	out := h.v.HandOff(context.Background(), item)
	assert.True(t, out.Performed)
	assert.Equal(t, []string{"buy:kayak"}, h.checkout.calls)
	assert.Equal(t, before, h.v.State())

	h.do(t, Action{Type: ActionBack})
	_, ok = h.v.CommerceTarget("kayak")
	assert.True(t, ok, "inventory rows are commerce targets")

	h.do(t, Action{Type: ActionBack})
	_, ok = h.v.CommerceTarget("kayak")
	assert.False(t, ok)
}
