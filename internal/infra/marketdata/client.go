package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches instrument summaries from the market-data API. Requests are
// rate limited so a large monitoring pass cannot hammer the upstream.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
		logger:  logger,
	}
}

func (c *Client) GetSummary(ctx context.Context, symbolCode string) (*domain.InstrumentSummary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/instruments/%s/summary", c.baseURL, url.PathEscape(symbolCode))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("summary request failed", zap.String("symbol", symbolCode), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug("summary request complete",
		zap.String("symbol", symbolCode),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if response.StatusCode == http.StatusNotFound {
		return nil, domain.ErrSymbolNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("market data error: status %d", response.StatusCode)
	}

	var payload summaryResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if !payload.ClosePrice.Valid {
		return nil, fmt.Errorf("summary for %s has no price", symbolCode)
	}

	summary := &domain.InstrumentSummary{
		SymbolCode:   payload.SymbolCode,
		SymbolName:   payload.SymbolName,
		CurrentPrice: payload.ClosePrice.Decimal,
		Volume:       payload.Volume,
	}
	if payload.PriorClose.Valid {
		summary.PriorClose = payload.PriorClose.Decimal
	}
	if payload.ChangeRate.Valid {
		summary.ChangeRate = payload.ChangeRate.Decimal
	}
	if payload.BaseDate != "" {
		if baseDate, err := time.Parse("2006-01-02", payload.BaseDate); err == nil {
			summary.BaseDate = baseDate
		}
	}
	return summary, nil
}
