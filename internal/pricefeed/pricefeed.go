// Package pricefeed resolves spot prices for plan inputs. The CLI uses it
// to fill in the bitcoin spot price when the plan file omits one.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPriceNotFound = errors.New("pricefeed: price not found")

// Provider returns the current spot price of a symbol in USD.
type Provider interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
}

type cachedQuote struct {
	price   decimal.Decimal
	asOf    time.Time
	fetched time.Time
}

// CoinGeckoProvider fetches crypto spot prices from the CoinGecko simple
// price API (cached).
type CoinGeckoProvider struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]cachedQuote
}

// symbol -> CoinGecko coin id
var coinIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
}

func NewCoinGeckoProvider() *CoinGeckoProvider {
	return &CoinGeckoProvider{
		cli:     &http.Client{Timeout: 8 * time.Second},
		baseURL: "https://api.coingecko.com/api/v3",
		ttl:     60 * time.Second,
		cache:   make(map[string]cachedQuote),
	}
}

func (p *CoinGeckoProvider) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	coinID, ok := coinIDs[symbol]
	if !ok {
		return decimal.Zero, time.Time{}, ErrPriceNotFound
	}

	// Cache
	p.mu.RLock()
	if c, ok := p.cache[symbol]; ok && time.Since(c.fetched) < p.ttl {
		p.mu.RUnlock()
		return c.price, c.asOf, nil
	}
	p.mu.RUnlock()

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", p.baseURL, coinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	req.Header.Set("User-Agent", "retirement-planner/1.0")

	resp, err := p.cli.Do(req)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, time.Time{}, fmt.Errorf("coingecko http %d", resp.StatusCode)
	}

	var raw map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, time.Time{}, err
	}

	quote, ok := raw[coinID]
	if !ok || quote.USD <= 0 {
		return decimal.Zero, time.Time{}, ErrPriceNotFound
	}

	price := decimal.NewFromFloat(quote.USD)
	asOf := time.Now()

	p.mu.Lock()
	p.cache[symbol] = cachedQuote{price: price, asOf: asOf, fetched: time.Now()}
	p.mu.Unlock()

	return price, asOf, nil
}

// StaticProvider serves fixed prices, used in tests and offline runs.
type StaticProvider struct {
	Prices map[string]decimal.Decimal
}

func (p *StaticProvider) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	price, ok := p.Prices[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return decimal.Zero, time.Time{}, ErrPriceNotFound
	}
	return price, time.Now(), nil
}
