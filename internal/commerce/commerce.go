package commerce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/domain"
)

// SuccessIndicatorDuration is how long the "added" confirmation stays visible.
const SuccessIndicatorDuration = 800 * time.Millisecond

var ErrCommerceDisabled = errors.New("commerce is disabled for this item")

// Checkout takes over a buy_now purchase. Its result is not used by the viewer.
type Checkout interface {
	BuyNow(ctx context.Context, item domain.InventoryItem) error
}

// Contact takes over an enquire request.
type Contact interface {
	Enquire(ctx context.Context, item domain.InventoryItem) error
}

// Cart is the subset of the cart store used for add_to_cart.
type Cart interface {
	Add(item domain.CartItem)
}

type Outcome string

const (
	OutcomeAddedToCart Outcome = "added_to_cart"
	OutcomeCheckout    Outcome = "checkout"
	OutcomeEnquiry     Outcome = "enquiry"
)

// Dispatcher routes commerce actions according to each item's commerce mode.
// Checkout and contact hand-offs may run concurrently with other calls; the
// cart is only touched for add_to_cart.
type Dispatcher struct {
	cart     Cart
	checkout Checkout
	contact  Contact
	clock    clock.Clock

	mu         sync.Mutex
	addedUntil map[string]time.Time
	failures   map[string]error
}

func NewDispatcher(cart Cart, checkout Checkout, contact Contact, c clock.Clock) *Dispatcher {
	if c == nil {
		c = clock.New()
	}
	return &Dispatcher{
		cart:       cart,
		checkout:   checkout,
		contact:    contact,
		clock:      c,
		addedUntil: make(map[string]time.Time),
		failures:   make(map[string]error),
	}
}

// Dispatch performs the item's commerce action. Items whose mode is none or
// unset never reach any collaborator. A failing checkout or contact call is
// remembered as the item's failure until cleared or a later dispatch succeeds.
func (d *Dispatcher) Dispatch(ctx context.Context, item domain.InventoryItem) (Outcome, error) {
	if !item.CommerceMode.Enabled() {
		return "", ErrCommerceDisabled
	}

	var (
		outcome Outcome
		err     error
	)

	switch item.CommerceMode {
	case domain.CommerceModeAddToCart:
		d.cart.Add(domain.CartItemFrom(&item))
		d.mu.Lock()
		d.addedUntil[item.ID] = d.clock.Now().Add(SuccessIndicatorDuration)
		d.mu.Unlock()
		outcome = OutcomeAddedToCart

	case domain.CommerceModeBuyNow:
		outcome = OutcomeCheckout
		if d.checkout == nil {
			err = errors.New("no checkout configured")
		} else {
			err = d.checkout.BuyNow(ctx, item)
		}

	case domain.CommerceModeEnquire:
		outcome = OutcomeEnquiry
		if d.contact == nil {
			err = errors.New("no contact channel configured")
		} else {
			err = d.contact.Enquire(ctx, item)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("%s for item %s failed: %w", outcome, item.ID, err)
		d.failures[item.ID] = err
		log.Warnf("⚠️ Commerce dispatch failed: %v", err)
		return outcome, err
	}

	delete(d.failures, item.ID)
	return outcome, nil
}

// Added reports whether the add-to-cart confirmation for the item is still showing.
func (d *Dispatcher) Added(itemID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.addedUntil[itemID]
	if !ok {
		return false
	}
	if !d.clock.Now().Before(until) {
		delete(d.addedUntil, itemID)
		return false
	}
	return true
}

func (d *Dispatcher) Failure(itemID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failures[itemID]
}

func (d *Dispatcher) ClearFailure(itemID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.failures[itemID]; !ok {
		return false
	}
	delete(d.failures, itemID)
	return true
}
