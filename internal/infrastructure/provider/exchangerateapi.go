package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/httpx"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExchangeRateAPI fetches historical rates from the ExchangeRate-API v6
// history endpoint, keyed by base currency and date:
// GET {base}/{key}/history/USD/2024/1/15
// Response shape: {"result": "success", "conversion_rates": {"EUR": 0.85}}
type ExchangeRateAPI struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

var _ application.RateSource = (*ExchangeRateAPI)(nil)

func NewExchangeRateAPI(baseURL, apiKey string, timeout time.Duration) *ExchangeRateAPI {
	return &ExchangeRateAPI{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &httpx.Client{HTTP: &http.Client{Timeout: timeout}},
	}
}

func (p *ExchangeRateAPI) Name() domain.ProviderName { return domain.ProviderExchangeRateAPI }

type exchangeRateHistoryResp struct {
	Result          string                 `json:"result"`
	ErrorType       string                 `json:"error-type"`
	ConversionRates map[string]json.Number `json:"conversion_rates"`
}

func (p *ExchangeRateAPI) FetchRate(ctx context.Context, source, target string, date time.Time) (decimal.Decimal, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return decimal.Decimal{}, fmt.Errorf("exchangerate-api: missing configuration: %w", domain.ErrProviderUnavailable)
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("exchangerate-api: invalid base url: %w", domain.ErrProviderUnavailable)
	}
	u = u.JoinPath(
		p.APIKey,
		"history",
		source,
		fmt.Sprintf("%d", date.Year()),
		fmt.Sprintf("%d", int(date.Month())),
		fmt.Sprintf("%d", date.Day()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("create request: %v", err))
	}

	var body exchangeRateHistoryResp
	if err := p.Client.DoJSON(ctx, req, &body); err != nil {
		return decimal.Decimal{}, p.miss(source, target, date, err)
	}
	if body.Result != "success" {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("unsuccessful response: %s", body.ErrorType))
	}

	raw, ok := body.ConversionRates[target]
	if !ok {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("missing rate for %s", target))
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("malformed rate %q", raw.String()))
	}
	if rate.Sign() <= 0 {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("non-positive rate %s", rate))
	}
	return rate, nil
}

func (p *ExchangeRateAPI) miss(source, target string, date time.Time, cause error) error {
	logx.L().Warn("exchangerateapi.fetch_failed",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("date", date.Format(domain.DateLayout)),
		zap.Error(cause),
	)
	return fmt.Errorf("exchangerate-api: %v: %w", cause, domain.ErrNoRate)
}
