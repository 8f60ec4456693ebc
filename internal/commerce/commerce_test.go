package commerce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slydes/viewer/internal/cart"
	"slydes/viewer/internal/domain"
)

type fakeCollaborator struct {
	bought   []string
	enquired []string
	err      error
}

func (f *fakeCollaborator) BuyNow(_ context.Context, item domain.InventoryItem) error {
	f.bought = append(f.bought, item.ID)
	return f.err
}

func (f *fakeCollaborator) Enquire(_ context.Context, item domain.InventoryItem) error {
	f.enquired = append(f.enquired, item.ID)
	return f.err
}

func setup() (*Dispatcher, *cart.Store, *fakeCollaborator, *clock.Mock) {
	store := cart.NewStore(nil)
	collab := &fakeCollaborator{}
	mock := clock.NewMock()
	return NewDispatcher(store, collab, collab, mock), store, collab, mock
}

func TestDisabledModesNeverDispatch(t *testing.T) {
	d, store, collab, _ := setup()

	for _, mode := range []domain.CommerceMode{"", domain.CommerceModeNone, "gift_card"} {
		_, err := d.Dispatch(context.Background(), domain.InventoryItem{ID: "tent-a", CommerceMode: mode})
		assert.ErrorIs(t, err, ErrCommerceDisabled)
	}

	assert.Empty(t, store.Items())
	assert.Empty(t, collab.bought)
	assert.Empty(t, collab.enquired)
	assert.Nil(t, d.Failure("tent-a"), "disabled items do not record failures")
}

func TestAddToCartShowsIndicator(t *testing.T) {
	d, store, collab, mock := setup()
	item := domain.InventoryItem{ID: "tent-a", Title: "Tent A", PriceCents: 100, CommerceMode: domain.CommerceModeAddToCart}

	outcome, err := d.Dispatch(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAddedToCart, outcome)
	assert.Equal(t, 1, store.Count())
	assert.Empty(t, collab.bought)

	assert.True(t, d.Added("tent-a"))
	mock.Add(799 * time.Millisecond)
	assert.True(t, d.Added("tent-a"))
	mock.Add(time.Millisecond)
	assert.False(t, d.Added("tent-a"))
}

func TestBuyNowAndEnquireLeaveCartAlone(t *testing.T) {
	d, store, collab, _ := setup()

	outcome, err := d.Dispatch(context.Background(), domain.InventoryItem{ID: "kayak", CommerceMode: domain.CommerceModeBuyNow})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckout, outcome)

	outcome, err = d.Dispatch(context.Background(), domain.InventoryItem{ID: "lodge", CommerceMode: domain.CommerceModeEnquire})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnquiry, outcome)

	assert.Equal(t, []string{"kayak"}, collab.bought)
	assert.Equal(t, []string{"lodge"}, collab.enquired)
	assert.Empty(t, store.Items())
	assert.False(t, d.Added("kayak"))
}

func TestCollaboratorFailureIsScopedToItem(t *testing.T) {
	d, _, collab, _ := setup()
	collab.err = errors.New("checkout unavailable")
	item := domain.InventoryItem{ID: "kayak", CommerceMode: domain.CommerceModeBuyNow}

	_, err := d.Dispatch(context.Background(), item)
	require.Error(t, err)
	assert.Error(t, d.Failure("kayak"))
	assert.Nil(t, d.Failure("lodge"))

	collab.err = nil
	_, err = d.Dispatch(context.Background(), item)
	require.NoError(t, err)
	assert.Nil(t, d.Failure("kayak"), "a later success clears the failure")
}

func TestClearFailure(t *testing.T) {
	d, _, collab, _ := setup()
	collab.err = errors.New("nope")
	_, _ = d.Dispatch(context.Background(), domain.InventoryItem{ID: "lodge", CommerceMode: domain.CommerceModeEnquire})

	assert.True(t, d.ClearFailure("lodge"))
	assert.False(t, d.ClearFailure("lodge"))
	assert.Nil(t, d.Failure("lodge"))
}

func TestMissingCollaborator(t *testing.T) {
	d := NewDispatcher(cart.NewStore(nil), nil, nil, clock.NewMock())
	_, err := d.Dispatch(context.Background(), domain.InventoryItem{ID: "kayak", CommerceMode: domain.CommerceModeBuyNow})
	assert.Error(t, err)
	assert.Error(t, d.Failure("kayak"))
}
