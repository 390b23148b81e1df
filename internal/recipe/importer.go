package recipe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Importer fetches a recipe page and extracts a Recipe from its markup.
type Importer struct {
	httpClient *http.Client
}

// NewImporter creates an Importer with a bounded fetch timeout.
func NewImporter() *Importer {
	return &Importer{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FromURL fetches the page and extracts title and ingredients. The imported
// recipe gets a fresh ID and source_type "imported".
func (im *Importer) FromURL(ctx context.Context, url string) (*Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rec, err := Extract(doc)
	if err != nil {
		return nil, err
	}

	rec.ID = uuid.NewString()
	rec.SourceType = "imported"
	rec.SourceURL = url
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return rec, nil
}

// Extract pulls a recipe out of a parsed document using markup heuristics:
// the page title, plus list items under any element marked as ingredients.
func Extract(doc *goquery.Document) (*Recipe, error) {
	// Remove noise before walking the tree.
	doc.Find("script, style, nav, footer, iframe").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	rec := &Recipe{}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		rec.Title = strings.TrimSpace(og)
	} else if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		rec.Title = h1
	} else {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if rec.Title == "" {
		return nil, fmt.Errorf("no recipe title found in page")
	}

	// Lists explicitly tagged as ingredients by class, id, or itemprop.
	doc.Find(`[class*="ingredient"] li, [id*="ingredient"] li, li[itemprop="recipeIngredient"], [itemprop="recipeIngredient"]`).
		Each(func(_ int, s *goquery.Selection) {
			if item := collapseSpace(s.Text()); item != "" {
				rec.Ingredients = append(rec.Ingredients, item)
			}
		})

	// Fallback: the first list following a heading that names ingredients.
	if len(rec.Ingredients) == 0 {
		doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if !strings.Contains(strings.ToLower(h.Text()), "ingredient") {
				return true
			}
			h.NextAllFiltered("ul, ol").First().Find("li").Each(func(_ int, s *goquery.Selection) {
				if item := collapseSpace(s.Text()); item != "" {
					rec.Ingredients = append(rec.Ingredients, item)
				}
			})
			return false
		})
	}

	if len(rec.Ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients found in page")
	}
	return rec, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
