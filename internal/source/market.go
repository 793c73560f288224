package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Market reads the token's market price and trailing 24h volume from a
// CoinGecko-compatible market data API.
type Market struct {
	client  *http.Client
	baseURL string
	tokenID string
}

func NewMarket(baseURL, tokenID string) *Market {
	return &Market{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		tokenID: tokenID,
	}
}

func (m *Market) Name() string { return "market" }

type marketResponse struct {
	MarketData struct {
		CurrentPrice struct {
			USD float64 `json:"usd"`
		} `json:"current_price"`
		TotalVolume struct {
			USD float64 `json:"usd"`
		} `json:"total_volume"`
	} `json:"market_data"`
}

func (m *Market) Read(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false", m.baseURL, m.tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("market request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, transient(m.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, transient(m.Name(), fmt.Errorf("market API status %d", resp.StatusCode))
	}

	var body marketResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, transient(m.Name(), fmt.Errorf("decode market response: %w", err))
	}

	if body.MarketData.CurrentPrice.USD <= 0 {
		return nil, transient(m.Name(), fmt.Errorf("market API returned no price"))
	}

	return map[string]float64{
		QtyTokenPrice: body.MarketData.CurrentPrice.USD,
		QtyVolume24h:  body.MarketData.TotalVolume.USD,
	}, nil
}
