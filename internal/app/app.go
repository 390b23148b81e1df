package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"mealgrid/internal/auth"
	"mealgrid/internal/categorize"
	"mealgrid/internal/metrics"
	"mealgrid/internal/plan"
	"mealgrid/internal/recipe"
	"mealgrid/internal/shopping"
)

// App holds the application's dependencies and offers the planning core's
// public surface to the presentation layers (CLI and bot).
type App struct {
	recipeRepo   *recipe.Repository
	planRepo     *plan.Repository
	shoppingRepo *shopping.Repository
	metricsStore *metrics.Store
	aggregator   *shopping.Aggregator
	importer     *recipe.Importer
	issuer       *auth.TokenIssuer

	categorizerModel string
	schedulerOpts    []plan.SchedulerOption
}

// NewApp creates and initializes a new App instance. categorizerModel names
// the categorization backend for metrics recording.
func NewApp(
	recipeRepo *recipe.Repository,
	planRepo *plan.Repository,
	shoppingRepo *shopping.Repository,
	metricsStore *metrics.Store,
	categorizer categorize.Categorizer,
	categorizerModel string,
	importer *recipe.Importer,
	issuer *auth.TokenIssuer,
	schedulerOpts ...plan.SchedulerOption,
) *App {
	return &App{
		recipeRepo:       recipeRepo,
		planRepo:         planRepo,
		shoppingRepo:     shoppingRepo,
		metricsStore:     metricsStore,
		aggregator:       shopping.NewAggregator(categorizer),
		importer:         importer,
		issuer:           issuer,
		categorizerModel: categorizerModel,
		schedulerOpts:    schedulerOpts,
	}
}

// TokenIssuer exposes the session token issuer for the presentation layer.
func (a *App) TokenIssuer() *auth.TokenIssuer {
	return a.issuer
}

// NewPlanSession starts a plan-editing session for the given auth session.
// Failed background saves are logged, never fatal: the in-memory grid stays
// the source of truth and the next debounced save carries the newer state.
func (a *App) NewPlanSession(sess *auth.Session) *plan.Session {
	opts := append([]plan.SchedulerOption{
		plan.WithSaveNotifier(func(err error) {
			log.Printf("Warning: meal plan save failed: %v", err)
		}),
	}, a.schedulerOpts...)
	return plan.NewSession(sess.UserID(), a.planRepo, sess, opts...)
}

// ResolveAssignments maps grid assignments back to full recipes: referenced
// recipes are fetched from the collection, inline copies are used as-is.
// A dangling reference falls back to the denormalized copy carried by the
// assignment.
func (a *App) ResolveAssignments(ctx context.Context, assignments []plan.MealAssignment) ([]recipe.Recipe, error) {
	var recipes []recipe.Recipe
	for _, as := range assignments {
		if as.RecipeID != "" {
			rec, err := a.recipeRepo.Get(ctx, as.RecipeID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve recipe %s: %w", as.RecipeID, err)
			}
			if rec != nil {
				recipes = append(recipes, *rec)
				continue
			}
			log.Printf("Warning: recipe %s missing from collection, using inline copy", as.RecipeID)
		}
		recipes = append(recipes, as.Recipe)
	}
	return recipes, nil
}

// AggregateRecipes derives a categorized shopping list from a set of
// recipes and, for authenticated users, stores it in their history.
func (a *App) AggregateRecipes(ctx context.Context, sess *auth.Session, name string, recipes []recipe.Recipe) (*shopping.ShoppingList, error) {
	start := time.Now()
	list, err := a.aggregator.Aggregate(ctx, name, recipes)
	if err != nil {
		return nil, err
	}

	if err := a.metricsStore.Record(metrics.ExecutionMetric{
		Operation: "shopping_list",
		Model:     a.categorizerModel,
		ItemCount: list.TotalItems,
		LatencyMS: time.Since(start).Milliseconds(),
	}); err != nil {
		log.Printf("Warning: failed to record metrics: %v", err)
	}

	if sess.IsAuthenticated() && list.TotalItems > 0 {
		var sourceIDs []string
		for _, r := range recipes {
			if r.Saved() {
				sourceIDs = append(sourceIDs, r.ID)
			}
		}
		stored := &shopping.StoredList{
			UserID:          sess.UserID(),
			Name:            name,
			List:            *list,
			SourceRecipeIDs: sourceIDs,
		}
		if _, err := a.shoppingRepo.Save(ctx, stored); err != nil {
			log.Printf("Warning: failed to save shopping list history: %v", err)
		}
	}
	return list, nil
}

// AggregateWeek builds the whole-week shopping list from every recipe
// currently assigned on the grid.
func (a *App) AggregateWeek(ctx context.Context, sess *auth.Session, engine *plan.Engine) (*shopping.ShoppingList, error) {
	recipes, err := a.ResolveAssignments(ctx, engine.AllAssignments())
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Week of %s", engine.WeekKey())
	return a.AggregateRecipes(ctx, sess, name, recipes)
}

// ImportRecipe fetches a recipe page, extracts it, and saves it to the
// user's collection.
func (a *App) ImportRecipe(ctx context.Context, sess *auth.Session, url string) (*recipe.Recipe, error) {
	if !sess.IsAuthenticated() {
		return nil, fmt.Errorf("authentication required to import recipes")
	}
	rec, err := a.importer.FromURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to import recipe: %w", err)
	}
	if err := a.recipeRepo.Save(ctx, sess.UserID(), *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SavedRecipes lists the user's recipe collection.
func (a *App) SavedRecipes(ctx context.Context, sess *auth.Session) ([]recipe.Recipe, error) {
	if !sess.IsAuthenticated() {
		return nil, nil
	}
	return a.recipeRepo.ListByUser(ctx, sess.UserID())
}

// SearchRecipes finds recipes by title or ingredient substring, optionally
// capped by cooking time in minutes.
func (a *App) SearchRecipes(ctx context.Context, sess *auth.Session, query string, maxTime int) ([]recipe.Recipe, error) {
	if !sess.IsAuthenticated() {
		return nil, nil
	}
	return a.recipeRepo.Search(ctx, sess.UserID(), query, maxTime)
}

// ShoppingHistory lists the user's saved shopping lists, most recent first.
func (a *App) ShoppingHistory(ctx context.Context, sess *auth.Session) ([]shopping.StoredList, error) {
	if !sess.IsAuthenticated() {
		return nil, nil
	}
	return a.shoppingRepo.ListByUser(ctx, sess.UserID())
}

// Metrics exposes the metrics store for the admin surfaces.
func (a *App) Metrics() *metrics.Store {
	return a.metricsStore
}
