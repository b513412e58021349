package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

const (
	MaxSuggestions        = 8
	defaultCandidateLimit = 50
	defaultSearchPageSize = 20
	maxSearchPageSize     = 100
)

// Suggestion is the trimmed product view shown in the search dropdown.
type Suggestion struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"priceDisplay,omitempty"`
	Image        string  `json:"image,omitempty"`
}

type SearchResult struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
}

type SearchService interface {
	// Suggest ranks up to MaxSuggestions products for a typed query. Recall is
	// limited to the candidate window read from the catalog.
	Suggest(ctx context.Context, rawQuery string) ([]Suggestion, error)
	Search(ctx context.Context, rawQuery string, limit, offset int) (*SearchResult, error)
}

type SearchOptions struct {
	CandidateLimit int
	MaxSuggestions int // clamped to 1..MaxSuggestions
	StoreTimeout   time.Duration
}

type searchService struct {
	productRepo repository.ProductRepository
	tracker     analytics.Tracker
	opts        SearchOptions
}

func NewSearchService(productRepo repository.ProductRepository, tracker analytics.Tracker, opts SearchOptions) SearchService {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = defaultCandidateLimit
	}
	if opts.MaxSuggestions <= 0 || opts.MaxSuggestions > MaxSuggestions {
		opts.MaxSuggestions = MaxSuggestions
	}
	if tracker == nil {
		tracker = analytics.NewNoopTracker()
	}
	return &searchService{
		productRepo: productRepo,
		tracker:     tracker,
		opts:        opts,
	}
}

func normalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (s *searchService) Suggest(ctx context.Context, rawQuery string) ([]Suggestion, error) {
	query := normalizeQuery(rawQuery)
	if query == "" {
		return []Suggestion{}, nil
	}

	storeCtx, cancel := storeContext(ctx, s.opts.StoreTimeout)
	defer cancel()

	candidates, err := s.productRepo.SearchCandidates(storeCtx, query, s.opts.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load search candidates: %w", err)
	}

	ranked := rankSuggestions(candidates, query, s.opts.MaxSuggestions)

	logger.Debug("Search suggestions ranked", map[string]interface{}{
		"query":      query,
		"candidates": len(candidates),
		"results":    len(ranked),
	})

	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventSearchPerformed, "server", "", map[string]interface{}{
		"query":   query,
		"results": len(ranked),
		"kind":    "suggest",
	}))

	out := make([]Suggestion, 0, len(ranked))
	for i := range ranked {
		out = append(out, toSuggestion(&ranked[i]))
	}
	return out, nil
}

// rankSuggestions keeps products whose name or category contains query,
// moves name-prefix matches ahead of the rest without reordering within either
// group, and returns at most max of them. query must already be normalized.
func rankSuggestions(candidates []model.Product, query string, max int) []model.Product {
	matches := make([]model.Product, 0, len(candidates))
	for _, p := range candidates {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, query) || strings.Contains(strings.ToLower(p.Category), query) {
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return prefixMatch(matches[i], query) && !prefixMatch(matches[j], query)
	})

	if len(matches) > max {
		matches = matches[:max]
	}
	return matches
}

func prefixMatch(p model.Product, query string) bool {
	return strings.HasPrefix(strings.ToLower(p.Name), query)
}

func toSuggestion(p *model.Product) Suggestion {
	s := Suggestion{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		PriceDisplay: p.PriceLabel(),
	}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}

func (s *searchService) Search(ctx context.Context, rawQuery string, limit, offset int) (*SearchResult, error) {
	query := normalizeQuery(rawQuery)
	if query == "" {
		return &SearchResult{Products: []model.Product{}}, nil
	}
	if limit <= 0 {
		limit = defaultSearchPageSize
	}
	if limit > maxSearchPageSize {
		limit = maxSearchPageSize
	}
	if offset < 0 {
		offset = 0
	}

	storeCtx, cancel := storeContext(ctx, s.opts.StoreTimeout)
	defer cancel()

	products, total, err := s.productRepo.Search(storeCtx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventSearchPerformed, "server", "", map[string]interface{}{
		"query":   query,
		"results": total,
		"kind":    "full",
	}))

	if products == nil {
		products = []model.Product{}
	}
	return &SearchResult{Products: products, Total: total}, nil
}
