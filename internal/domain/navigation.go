package domain

type Level string

func (l Level) String() string {
	return string(l)
}

const (
	LevelHome      Level = "home"
	LevelCategory  Level = "category"
	LevelInventory Level = "inventory"
	LevelItem      Level = "item"
)

var Levels = []Level{
	LevelHome,
	LevelCategory,
	LevelInventory,
	LevelItem,
}

// Depth is the position of the level in the hierarchy, home being 0.
func (l Level) Depth() int {
	switch l {
	case LevelHome:
		return 0
	case LevelCategory:
		return 1
	case LevelInventory:
		return 2
	case LevelItem:
		return 3
	default:
		return -1
	}
}

func (l Level) Valid() bool {
	return l.Depth() >= 0
}

// NavigationState is everything needed to render the current level
type NavigationState struct {
	Level              Level  `json:"level"`
	ActiveCategoryID   string `json:"active_category_id,omitempty"`
	ActiveItemID       string `json:"active_item_id,omitempty"`
	CategoryFrameIndex int    `json:"category_frame_index"`
	ItemFrameIndex     int    `json:"item_frame_index"`
	DrawerOpen         bool   `json:"drawer_open"`
}

func HomeState() NavigationState {
	return NavigationState{Level: LevelHome}
}
