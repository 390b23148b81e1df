package recipe

// Recipe is a dish in the user's collection. ID is empty for recipes that
// have not been persisted yet; the meal grid carries a full inline copy of
// those instead of a reference.
type Recipe struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	CookingTime int      `json:"cooking_time,omitempty"` // minutes
	Servings    int      `json:"servings,omitempty"`
	SourceType  string   `json:"source_type,omitempty"` // manual, imported
	SourceURL   string   `json:"source_url,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// Saved reports whether the recipe exists in the collection, as opposed to
// an ephemeral copy carried inline by a meal assignment.
func (r Recipe) Saved() bool {
	return r.ID != ""
}
