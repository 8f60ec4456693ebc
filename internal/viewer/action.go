package viewer

import (
	"errors"

	"slydes/viewer/internal/commerce"
	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/overlay"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrItemNotFound  = errors.New("item not found")
)

type ActionType string

const (
	ActionSelectCategory   ActionType = "select_category"
	ActionAdvance          ActionType = "advance"
	ActionRetreat          ActionType = "retreat"
	ActionGoToFrame        ActionType = "go_to_frame"
	ActionTap              ActionType = "tap"
	ActionViewAll          ActionType = "view_all"
	ActionSelectItem       ActionType = "select_item"
	ActionBack             ActionType = "back"
	ActionJump             ActionType = "jump"
	ActionOpenDrawer       ActionType = "open_drawer"
	ActionCloseDrawer      ActionType = "close_drawer"
	ActionOpenOverlay      ActionType = "open_overlay"
	ActionCloseOverlay     ActionType = "close_overlay"
	ActionReleaseOverlay   ActionType = "release_overlay"
	ActionVideoLoop        ActionType = "video_loop"
	ActionCommerce         ActionType = "commerce"
	ActionClearCommerceErr ActionType = "clear_commerce_error"
	ActionCartAdd          ActionType = "cart_add"
	ActionCartSetQuantity  ActionType = "cart_set_quantity"
	ActionCartDecrement    ActionType = "cart_decrement"
	ActionCartRemove       ActionType = "cart_remove"
	ActionCartClear        ActionType = "cart_clear"
)

// Action is a user gesture or control event sent to the viewer. Only the
// fields relevant to Type are read.
type Action struct {
	Type       ActionType   `json:"type"`
	CategoryID string       `json:"category_id,omitempty"`
	ItemID     string       `json:"item_id,omitempty"`
	Index      int          `json:"index,omitempty"`
	Level      domain.Level `json:"level,omitempty"`
	Overlay    overlay.Kind `json:"overlay,omitempty"`
	X          float64      `json:"x,omitempty"`
	Width      float64      `json:"width,omitempty"`
	Drag       overlay.Drag `json:"drag,omitempty"`
	Quantity   int          `json:"quantity,omitempty"`
}

// Outcome tells the caller whether the action changed anything. Error is set
// only for commerce failures, the one failure class shown to the user.
type Outcome struct {
	Performed bool             `json:"performed"`
	Commerce  commerce.Outcome `json:"commerce,omitempty"`
	Error     string           `json:"error,omitempty"`
}
