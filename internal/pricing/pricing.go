package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sdpower/ctxgw-report/internal/logger"
)

const (
	// DefaultURL is the LiteLLM model price catalog.
	DefaultURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

	// DefaultPrice is used for models that match neither the live nor the static table.
	DefaultPrice = 3.0

	defaultTimeout = 5 * time.Second
)

// fallbackPrice maps a model-name substring to an input price in $/MTok.
type fallbackPrice struct {
	Key   string
	Price float64
}

// Checked in order, first substring match wins.
var fallbackPrices = []fallbackPrice{
	{Key: "opus", Price: 15.0},
	{Key: "sonnet", Price: 3.0},
	{Key: "haiku", Price: 1.0},
}

// Service resolves a model identifier to its input price per million tokens.
// The live table is fetched at most once; until then, or when the fetch fails,
// only the static fallback is used.
type Service struct {
	client *http.Client
	url    string

	once sync.Once
	mu   sync.RWMutex
	live map[string]float64
}

type Option func(*Service)

func WithURL(url string) Option {
	return func(s *Service) {
		s.url = url
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		url:  DefaultURL,
		live: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticService returns a Service that never fetches and prices from the static table only.
func NewStaticService() *Service {
	s := NewService()
	s.once.Do(func() {})
	return s
}

// NewServiceWithPrices returns a Service whose live table is preset, for offline use and tests.
func NewServiceWithPrices(prices map[string]float64) *Service {
	s := NewStaticService()
	for model, price := range prices {
		s.live[model] = price
	}
	return s
}

// Load fetches the live price table once. Failures are logged and leave the
// live table empty; Load never returns an error to keep the report usable offline.
func (s *Service) Load(ctx context.Context) {
	s.once.Do(func() {
		prices, err := s.fetch(ctx)
		if err != nil {
			logger.Debug("live pricing unavailable, using static prices", "url", s.url, "error", err)
			return
		}

		s.mu.Lock()
		s.live = prices
		s.mu.Unlock()
		logger.Debug("loaded live pricing", "models", len(prices))
	})
}

// LiveModels returns the number of models in the live table.
func (s *Service) LiveModels() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

// Price returns the input price in $/MTok for the model: an exact live-table
// match first, then the first static substring match, then DefaultPrice.
func (s *Service) Price(model string) float64 {
	s.mu.RLock()
	price, ok := s.live[model]
	s.mu.RUnlock()
	if ok {
		return price
	}

	for _, fb := range fallbackPrices {
		if strings.Contains(model, fb.Key) {
			return fb.Price
		}
	}

	return DefaultPrice
}

// catalogEntry is the subset of a LiteLLM catalog entry we read.
type catalogEntry struct {
	InputCostPerToken *float64 `json:"input_cost_per_token"`
}

func (s *Service) fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing catalog returned status %d", resp.StatusCode)
	}

	var catalog map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode pricing catalog: %w", err)
	}

	return parseCatalog(catalog), nil
}

// parseCatalog keeps claude models with a non-zero input cost, converted to $/MTok.
// Entries that are not objects (the catalog carries a sample_spec) are ignored.
func parseCatalog(catalog map[string]json.RawMessage) map[string]float64 {
	prices := make(map[string]float64)
	for modelID, raw := range catalog {
		if !strings.Contains(modelID, "claude") {
			continue
		}
		var entry catalogEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.InputCostPerToken == nil || *entry.InputCostPerToken == 0 {
			continue
		}
		prices[modelID] = *entry.InputCostPerToken * 1e6
	}
	return prices
}
