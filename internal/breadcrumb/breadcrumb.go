package breadcrumb

import "slydes/viewer/internal/domain"

const (
	homeLabel      = "Home"
	inventoryLabel = "All"
)

// Entry is one ancestor shown in the breadcrumb. Clickable entries can be
// passed to the navigation controller as a jump target.
type Entry struct {
	Level     domain.Level `json:"level"`
	ID        string       `json:"id,omitempty"`
	Label     string       `json:"label"`
	Clickable bool         `json:"clickable"`
}

// Resolve maps a navigation state to its ancestor chain, home first. Labels
// fall back to ids when the graph does not know an entry.
func Resolve(state domain.NavigationState, graph *domain.Graph) []Entry {
	depth := state.Level.Depth()
	if depth < 0 {
		depth = 0
	}

	entries := make([]Entry, 0, depth+1)
	entries = append(entries, Entry{Level: domain.LevelHome, Label: homeLabel})

	if depth >= domain.LevelCategory.Depth() {
		label := state.ActiveCategoryID
		if category, ok := graph.Category(state.ActiveCategoryID); ok && category.Label != "" {
			label = category.Label
		}
		entries = append(entries, Entry{Level: domain.LevelCategory, ID: state.ActiveCategoryID, Label: label})
	}

	if depth >= domain.LevelInventory.Depth() {
		entries = append(entries, Entry{Level: domain.LevelInventory, ID: state.ActiveCategoryID, Label: inventoryLabel})
	}

	if depth >= domain.LevelItem.Depth() {
		label := state.ActiveItemID
		if item, ok := graph.Item(state.ActiveCategoryID, state.ActiveItemID); ok && item.Title != "" {
			label = item.Title
		}
		entries = append(entries, Entry{Level: domain.LevelItem, ID: state.ActiveItemID, Label: label})
	}

	for i := range entries {
		entries[i].Clickable = entries[i].Level != state.Level && entries[i].Level != domain.LevelItem
	}

	return entries
}

// IsJumpTarget reports whether level is a clickable entry for state.
func IsJumpTarget(state domain.NavigationState, level domain.Level) bool {
	for _, entry := range Resolve(state, nil) {
		if entry.Level == level {
			return entry.Clickable
		}
	}
	return false
}
