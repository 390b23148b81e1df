package categorize

import (
	"context"
	"strings"
)

// KeywordCategorizer buckets ingredients by keyword lookup. It is the
// offline fallback used when no LLM is configured; it supplies no cost
// estimate.
type KeywordCategorizer struct{}

var _ Categorizer = KeywordCategorizer{}

// keywordTable maps lowercase substrings to purchase categories. Checked in
// order; first match wins.
var keywordTable = []struct {
	category string
	keywords []string
}{
	{"Produce", []string{
		"onion", "garlic", "tomato", "lettuce", "carrot", "potato", "pepper",
		"celery", "spinach", "broccoli", "cucumber", "mushroom", "lemon",
		"lime", "apple", "banana", "avocado", "cilantro", "parsley", "ginger",
		"zucchini", "cabbage", "kale", "scallion", "leek", "berries", "herb",
	}},
	{"Meat & Seafood", []string{
		"chicken", "beef", "pork", "lamb", "turkey", "bacon", "sausage",
		"ham", "salmon", "tuna", "shrimp", "prawn", "fish", "cod", "steak",
		"mince", "ground",
	}},
	{"Dairy", []string{
		"milk", "egg", "cheese", "butter", "cream", "yogurt", "yoghurt",
		"mozzarella", "parmesan", "cheddar", "feta", "ricotta",
	}},
	{"Spices & Seasonings", []string{
		"salt", "peppercorn", "black pepper", "basil", "oregano", "thyme",
		"rosemary", "cumin", "paprika", "chili powder", "curry", "cinnamon",
		"nutmeg", "bay leaf", "seasoning", "spice", "vanilla",
	}},
	{"Pantry", []string{
		"rice", "pasta", "flour", "sugar", "oil", "vinegar", "noodle",
		"bread", "bean", "lentil", "chickpea", "stock", "broth", "sauce",
		"honey", "oats", "quinoa", "can", "tinned", "soy", "mustard",
	}},
}

const fallbackCategory = "Other"

// Categorize assigns each ingredient to the first category whose keyword it
// contains. Categories appear in order of their first assigned ingredient,
// and every ingredient stays its own entry.
func (KeywordCategorizer) Categorize(_ context.Context, ingredients []string, _ string) (*Result, error) {
	res := &Result{}
	index := make(map[string]int) // category name -> position in res.Groups

	appendItem := func(category, item string) {
		i, ok := index[category]
		if !ok {
			i = len(res.Groups)
			index[category] = i
			res.Groups = append(res.Groups, Group{Name: category})
		}
		res.Groups[i].Items = append(res.Groups[i].Items, item)
	}

	for _, ing := range ingredients {
		appendItem(lookupCategory(ing), ing)
	}
	return res, nil
}

func lookupCategory(ingredient string) string {
	lower := strings.ToLower(ingredient)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return fallbackCategory
}
