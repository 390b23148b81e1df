// Package categorize groups free-text ingredient strings into purchase
// categories. The grid and aggregation core treat it as an external
// collaborator: the mapping from ingredient to category is a content
// concern, pluggable behind the Categorizer interface.
package categorize

import "context"

// Group is one purchase category and its display items, in the order the
// categorizer produced them.
type Group struct {
	Name  string
	Items []string
}

// Result is a categorization response. EstimatedCost is supplied by the
// categorization source and passed through opaquely; this system never
// computes cost itself.
type Result struct {
	Groups        []Group
	EstimatedCost string
}

// Categorizer maps a flattened ingredient list to purchase categories.
// The contextual name describes what the list is for (e.g. a list title).
type Categorizer interface {
	Categorize(ctx context.Context, ingredients []string, name string) (*Result, error)
}
