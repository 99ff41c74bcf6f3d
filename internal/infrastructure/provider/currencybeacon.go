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

const currencyBeaconHistoricalPath = "historical"

// CurrencyBeacon fetches historical rates from the CurrencyBeacon API.
// Request shape: GET {base}/historical?api_key=KEY&base=USD&date=2024-01-15&symbols=EUR
// Response shape: {"response": {"rates": {"EUR": 0.85}}}
type CurrencyBeacon struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

var _ application.RateSource = (*CurrencyBeacon)(nil)

func NewCurrencyBeacon(baseURL, apiKey string, timeout time.Duration) *CurrencyBeacon {
	return &CurrencyBeacon{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &httpx.Client{HTTP: &http.Client{Timeout: timeout}},
	}
}

func (p *CurrencyBeacon) Name() domain.ProviderName { return domain.ProviderCurrencyBeacon }

type beaconHistoricalResp struct {
	Response struct {
		Date  string                 `json:"date"`
		Base  string                 `json:"base"`
		Rates map[string]json.Number `json:"rates"`
	} `json:"response"`
}

func (p *CurrencyBeacon) FetchRate(ctx context.Context, source, target string, date time.Time) (decimal.Decimal, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return decimal.Decimal{}, fmt.Errorf("currencybeacon: missing configuration: %w", domain.ErrProviderUnavailable)
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("currencybeacon: invalid base url: %w", domain.ErrProviderUnavailable)
	}
	u = u.JoinPath(currencyBeaconHistoricalPath)
	q := u.Query()
	q.Set("api_key", p.APIKey)
	q.Set("base", source)
	q.Set("date", date.Format(domain.DateLayout))
	q.Set("symbols", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Decimal{}, p.miss(source, target, date, fmt.Errorf("create request: %v", err))
	}

	var body beaconHistoricalResp
	if err := p.Client.DoJSON(ctx, req, &body); err != nil {
		return decimal.Decimal{}, p.miss(source, target, date, err)
	}

	raw, ok := body.Response.Rates[target]
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

// miss logs and normalizes transport, HTTP, and payload failures to the
// ordinary "no rate" signal so the caller just falls through to the next
// provider.
func (p *CurrencyBeacon) miss(source, target string, date time.Time, cause error) error {
	logx.L().Warn("currencybeacon.fetch_failed",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("date", date.Format(domain.DateLayout)),
		zap.Error(cause),
	)
	return fmt.Errorf("currencybeacon: %v: %w", cause, domain.ErrNoRate)
}
