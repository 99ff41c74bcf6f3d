package domain

import "time"

// ProviderName is the closed set of registered adapter identifiers.
// Adding a provider means adding an entry here, implementing the adapter,
// and registering its constructor in the provider registry.
type ProviderName string

const (
	ProviderCurrencyBeacon  ProviderName = "currency_beacon"
	ProviderExchangeRateAPI ProviderName = "exchange_rate_api"
	ProviderMock            ProviderName = "mock"
)

var providerDisplay = map[ProviderName]string{
	ProviderCurrencyBeacon:  "CurrencyBeacon",
	ProviderExchangeRateAPI: "ExchangeRate-API",
	ProviderMock:            "Mock",
}

func (n ProviderName) Valid() bool {
	_, ok := providerDisplay[n]
	return ok
}

// Display returns the human-readable provider name used in admin-facing errors.
func (n ProviderName) Display() string {
	if d, ok := providerDisplay[n]; ok {
		return d
	}
	return string(n)
}

// ProviderConfig is the administrator-managed operational state of one
// registered adapter. Lower priority is tried first; priorities are unique.
// Toggling IsActive removes a provider from resolution without deleting it.
type ProviderConfig struct {
	ID        string
	Name      ProviderName
	Priority  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
