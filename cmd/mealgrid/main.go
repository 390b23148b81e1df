package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mealgrid/internal/app"
	"mealgrid/internal/auth"
	"mealgrid/internal/categorize"
	"mealgrid/internal/config"
	"mealgrid/internal/database"
	"mealgrid/internal/metrics"
	"mealgrid/internal/plan"
	"mealgrid/internal/recipe"
	"mealgrid/internal/shopping"

	"github.com/google/uuid"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := plan.NewRepository(db.SQL)
	shoppingRepo := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	var (
		categorizer      categorize.Categorizer
		categorizerModel string
	)
	if cfg.GeminiAPIKey != "" {
		gen, err := categorize.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer gen.Close()
		categorizer = categorize.NewLLMCategorizer(gen)
		categorizerModel = categorize.GeminiModel
	} else {
		categorizer = categorize.KeywordCategorizer{}
		categorizerModel = "keyword"
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), 24*time.Hour)

	// CLI runs are short-lived, so mutations persist without waiting out
	// the interactive debounce window.
	application := app.NewApp(
		recipeRepo,
		planRepo,
		shoppingRepo,
		metricsStore,
		categorizer,
		categorizerModel,
		recipe.NewImporter(),
		issuer,
		plan.WithDebounceWindows(10*time.Millisecond, 10*time.Millisecond),
	)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "login":
		runLogin(issuer, os.Args[2:])
	case "show":
		runShow(ctx, application, os.Args[2:])
	case "assign":
		runAssign(ctx, application, os.Args[2:])
	case "remove":
		runRemove(ctx, application, os.Args[2:])
	case "clear":
		runClear(ctx, application, os.Args[2:])
	case "shop":
		runShop(ctx, application, os.Args[2:])
	case "import":
		runImport(ctx, application, os.Args[2:])
	case "add-recipe":
		runAddRecipe(ctx, application, recipeRepo, os.Args[2:])
	case "recipes":
		runRecipes(ctx, application, os.Args[2:])
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])
		if err := metricsStore.Cleanup(*days); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Println("Old metric records removed.")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// session builds the authenticated session from SESSION_TOKEN.
func session(application *app.App) *auth.Session {
	token := os.Getenv("SESSION_TOKEN")
	if token == "" {
		log.Fatalf("SESSION_TOKEN not set; run 'mealgrid login <user>' first")
	}
	sess, err := auth.FromToken(application.TokenIssuer(), token)
	if err != nil {
		log.Fatalf("Invalid session token: %v", err)
	}
	return sess
}

// openWeek navigates the user's plan session to the week containing the
// -week date (default today).
func openWeek(ctx context.Context, application *app.App, sess *auth.Session, weekArg string) (*plan.Session, *plan.Engine) {
	t := time.Now()
	if weekArg != "" {
		parsed, err := time.Parse("2006-01-02", weekArg)
		if err != nil {
			log.Fatalf("Invalid -week date %q: %v", weekArg, err)
		}
		t = parsed
	}

	planSess := application.NewPlanSession(sess)
	engine, err := planSess.Navigate(ctx, t)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	return planSess, engine
}

func runLogin(issuer *auth.TokenIssuer, args []string) {
	if len(args) < 1 {
		log.Fatalf("Usage: mealgrid login <user>")
	}
	token, err := issuer.Issue(args[0])
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Printf("export SESSION_TOKEN=%s\n", token)
}

func runShow(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	week := fs.String("week", "", "Any date (YYYY-MM-DD) inside the week to show")
	fs.Parse(args)

	sess := session(application)
	_, engine := openWeek(ctx, application, sess, *week)

	fmt.Printf("=== WEEK OF %s ===\n", engine.WeekKey())
	assignments := engine.AllAssignments()
	if len(assignments) == 0 {
		fmt.Println("(nothing planned)")
		return
	}
	for _, a := range assignments {
		fmt.Printf("%-10s %-10s %s\n", a.Day, a.Slot, a.Recipe.Title)
	}
}

func runAssign(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	week := fs.String("week", "", "Any date (YYYY-MM-DD) inside the target week")
	day := fs.String("day", string(plan.Days()[0]), "Target day")
	slot := fs.String("slot", string(plan.MealSlots()[0]), "Target meal slot")
	recipeID := fs.String("recipe", "", "Recipe ID to assign")
	fs.Parse(args)

	d, s := plan.Day(strings.ToLower(*day)), plan.MealSlot(strings.ToLower(*slot))
	if !plan.ValidDay(d) || !plan.ValidMealSlot(s) {
		log.Fatalf("Invalid cell: day=%q slot=%q", *day, *slot)
	}
	if *recipeID == "" {
		log.Fatalf("-recipe is required")
	}

	sess := session(application)
	recipes, err := application.SavedRecipes(ctx, sess)
	if err != nil {
		log.Fatalf("Failed to list recipes: %v", err)
	}
	var target *recipe.Recipe
	for i := range recipes {
		if recipes[i].ID == *recipeID {
			target = &recipes[i]
			break
		}
	}
	if target == nil {
		log.Fatalf("Recipe %s not found in your collection", *recipeID)
	}

	planSess, engine := openWeek(ctx, application, sess, *week)
	engine.Assign(d, s, *target)
	planSess.Scheduler().Wait()
	fmt.Printf("Assigned %q to %s %s (week of %s)\n", target.Title, d, s, engine.WeekKey())
}

func runRemove(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	week := fs.String("week", "", "Any date (YYYY-MM-DD) inside the target week")
	day := fs.String("day", "", "Target day")
	slot := fs.String("slot", "", "Target meal slot")
	fs.Parse(args)

	d, s := plan.Day(strings.ToLower(*day)), plan.MealSlot(strings.ToLower(*slot))
	if !plan.ValidDay(d) || !plan.ValidMealSlot(s) {
		log.Fatalf("Invalid cell: day=%q slot=%q", *day, *slot)
	}

	sess := session(application)
	planSess, engine := openWeek(ctx, application, sess, *week)

	if _, ok := engine.Assignment(d, s); !ok {
		fmt.Printf("Nothing assigned at %s %s.\n", d, s)
		return
	}
	engine.Remove(d, s)
	planSess.Scheduler().Wait()
	fmt.Printf("Removed %s %s (week of %s)\n", d, s, engine.WeekKey())
}

func runClear(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	week := fs.String("week", "", "Any date (YYYY-MM-DD) inside the target week")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.Parse(args)

	if !*yes {
		fmt.Print("Clear every meal from this week? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			fmt.Println("Aborted.")
			return
		}
	}

	sess := session(application)
	_, engine := openWeek(ctx, application, sess, *week)
	engine.ClearAll()
	fmt.Printf("Cleared week of %s\n", engine.WeekKey())
}

func runShop(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("shop", flag.ExitOnError)
	week := fs.String("week", "", "Any date (YYYY-MM-DD) inside the week to shop for")
	recipeID := fs.String("recipe", "", "Build the list for a single recipe instead of the week")
	fs.Parse(args)

	sess := session(application)

	var (
		list *shopping.ShoppingList
		err  error
	)
	if *recipeID != "" {
		var target *recipe.Recipe
		recipes, lerr := application.SavedRecipes(ctx, sess)
		if lerr != nil {
			log.Fatalf("Failed to list recipes: %v", lerr)
		}
		for i := range recipes {
			if recipes[i].ID == *recipeID {
				target = &recipes[i]
				break
			}
		}
		if target == nil {
			log.Fatalf("Recipe %s not found in your collection", *recipeID)
		}
		list, err = application.AggregateRecipes(ctx, sess, target.Title, []recipe.Recipe{*target})
	} else {
		_, engine := openWeek(ctx, application, sess, *week)
		list, err = application.AggregateWeek(ctx, sess, engine)
	}
	if err != nil {
		log.Fatalf("Failed to build shopping list: %v", err)
	}

	fmt.Println("=== SHOPPING LIST ===")
	for _, cat := range list.Categories {
		fmt.Printf("%s:\n", cat.Name)
		for _, item := range cat.Items {
			fmt.Printf("  - %s\n", item)
		}
	}
	fmt.Printf("Total: %d items\n", list.TotalItems)
	if list.EstimatedCost != "" {
		fmt.Printf("Estimated cost: %s\n", list.EstimatedCost)
	}
}

func runImport(ctx context.Context, application *app.App, args []string) {
	if len(args) < 1 {
		log.Fatalf("Usage: mealgrid import <url>")
	}
	sess := session(application)
	rec, err := application.ImportRecipe(ctx, sess, args[0])
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported %q (%d ingredients) as %s\n", rec.Title, len(rec.Ingredients), rec.ID)
}

func runAddRecipe(ctx context.Context, application *app.App, repo *recipe.Repository, args []string) {
	fs := flag.NewFlagSet("add-recipe", flag.ExitOnError)
	title := fs.String("title", "", "Recipe title")
	ingredients := fs.String("ingredients", "", "Comma-separated ingredient list")
	cookingTime := fs.Int("time", 0, "Cooking time in minutes")
	servings := fs.Int("servings", 0, "Servings")
	fs.Parse(args)

	if *title == "" || *ingredients == "" {
		log.Fatalf("-title and -ingredients are required")
	}

	sess := session(application)
	if !sess.IsAuthenticated() {
		log.Fatalf("Authentication required")
	}

	rec := recipe.Recipe{
		ID:          uuid.NewString(),
		Title:       *title,
		CookingTime: *cookingTime,
		Servings:    *servings,
		SourceType:  "manual",
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, ing := range strings.Split(*ingredients, ",") {
		if trimmed := strings.TrimSpace(ing); trimmed != "" {
			rec.Ingredients = append(rec.Ingredients, trimmed)
		}
	}

	if err := repo.Save(ctx, sess.UserID(), rec); err != nil {
		log.Fatalf("Failed to save recipe: %v", err)
	}
	fmt.Printf("Saved %q as %s\n", rec.Title, rec.ID)
}

func runRecipes(ctx context.Context, application *app.App, args []string) {
	fs := flag.NewFlagSet("recipes", flag.ExitOnError)
	query := fs.String("q", "", "Title/ingredient substring filter")
	maxTime := fs.Int("max-time", 0, "Max cooking time in minutes (0 = no cap)")
	fs.Parse(args)

	sess := session(application)

	var (
		recipes []recipe.Recipe
		err     error
	)
	if *query != "" || *maxTime > 0 {
		recipes, err = application.SearchRecipes(ctx, sess, *query, *maxTime)
	} else {
		recipes, err = application.SavedRecipes(ctx, sess)
	}
	if err != nil {
		log.Fatalf("Failed to list recipes: %v", err)
	}

	if len(recipes) == 0 {
		fmt.Println("No recipes found.")
		return
	}
	for _, rec := range recipes {
		fmt.Printf("%s  %-30s %d ingredients", rec.ID, rec.Title, len(rec.Ingredients))
		if rec.CookingTime > 0 {
			fmt.Printf(", %d mins", rec.CookingTime)
		}
		fmt.Println()
	}
}

func printUsage() {
	fmt.Println("Usage: mealgrid <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  login <user>       Issue a session token")
	fmt.Println("  show               Show the weekly grid")
	fmt.Println("  assign             Assign a recipe to a (day, slot) cell")
	fmt.Println("  remove             Remove the assignment from a cell")
	fmt.Println("  clear              Clear the whole week (asks for confirmation)")
	fmt.Println("  shop               Build the categorized shopping list")
	fmt.Println("  import <url>       Import a recipe from a web page")
	fmt.Println("  add-recipe         Save a recipe manually")
	fmt.Println("  recipes            List or search the recipe collection")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
