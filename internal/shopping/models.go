package shopping

import "time"

// Category is one purchase category and its display items. Items keep the
// order they were categorized in; textually distinct ingredients remain
// separate entries even when semantically identical.
type Category struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// ShoppingList is the categorized list derived from a set of recipes.
// Categories are ordered first-seen, so repeated aggregation of the same
// input renders identically. EstimatedCost comes from the categorization
// source and is never computed here.
type ShoppingList struct {
	Categories    []Category `json:"categories"`
	TotalItems    int        `json:"total_items"`
	EstimatedCost string     `json:"estimated_cost,omitempty"`
}

// Items returns the display items under a category name, or nil.
func (l *ShoppingList) Items(name string) []string {
	for _, c := range l.Categories {
		if c.Name == name {
			return c.Items
		}
	}
	return nil
}

// StoredList is a shopping list saved to a user's history.
type StoredList struct {
	ID              int64        `json:"id"`
	UserID          string       `json:"user_id"`
	Name            string       `json:"name"`
	List            ShoppingList `json:"list"`
	SourceRecipeIDs []string     `json:"source_recipes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
