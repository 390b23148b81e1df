package shopping

import (
	"context"
	"fmt"

	"mealgrid/internal/categorize"
	"mealgrid/internal/recipe"
)

// Aggregator derives a categorized shopping list from one or many recipes.
// Categorization of each ingredient string is delegated to the external
// collaborator; the aggregator's own work is structural: deterministic
// ordering, the total count, and the opaque cost pass-through.
type Aggregator struct {
	categorizer categorize.Categorizer
}

// NewAggregator creates an Aggregator using the given categorizer.
func NewAggregator(c categorize.Categorizer) *Aggregator {
	return &Aggregator{categorizer: c}
}

// Aggregate flattens every recipe's ingredients, preserving recipe order
// then ingredient order, and categorizes them. Duplicate category names in
// the response are merged into the first occurrence so category order stays
// first-seen. A categorization failure fails the whole call; no partial list
// is returned.
func (a *Aggregator) Aggregate(ctx context.Context, name string, recipes []recipe.Recipe) (*ShoppingList, error) {
	var ingredients []string
	for _, r := range recipes {
		ingredients = append(ingredients, r.Ingredients...)
	}

	list := &ShoppingList{}
	if len(ingredients) == 0 {
		return list, nil
	}

	res, err := a.categorizer.Categorize(ctx, ingredients, name)
	if err != nil {
		return nil, fmt.Errorf("failed to categorize ingredients: %w", err)
	}

	index := make(map[string]int)
	for _, g := range res.Groups {
		if len(g.Items) == 0 {
			continue
		}
		if i, ok := index[g.Name]; ok {
			list.Categories[i].Items = append(list.Categories[i].Items, g.Items...)
			continue
		}
		index[g.Name] = len(list.Categories)
		list.Categories = append(list.Categories, Category{Name: g.Name, Items: append([]string(nil), g.Items...)})
	}

	for _, c := range list.Categories {
		list.TotalItems += len(c.Items)
	}
	list.EstimatedCost = res.EstimatedCost
	return list, nil
}
