package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Server struct {
	resolver   *application.RateResolver
	rates      application.RateRepo
	currencies *application.CurrencyService
	providers  *application.ProviderService
	jobs       application.BackfillJobRepo
	idem       application.IdempotencyStore
	ping       func(context.Context) error
}

func NewServer(
	resolver *application.RateResolver,
	rates application.RateRepo,
	currencies *application.CurrencyService,
	providers *application.ProviderService,
	jobs application.BackfillJobRepo,
	idem application.IdempotencyStore,
) *Server {
	if idem == nil {
		idem = application.NoopIdempotency{}
	}
	return &Server{
		resolver:   resolver,
		rates:      rates,
		currencies: currencies,
		providers:  providers,
		jobs:       jobs,
		idem:       idem,
	}
}

// WithPing wires the readiness probe to a storage ping.
func (s *Server) WithPing(ping func(context.Context) error) *Server {
	s.ping = ping
	return s
}

type conversionResponse struct {
	SourceCurrency    string `json:"source_currency"`
	ExchangedCurrency string `json:"exchanged_currency"`
	Amount            string `json:"amount"`
	Rate              string `json:"rate"`
	ConvertedAmount   string `json:"converted_amount"`
	ValuationDate     string `json:"valuation_date"`
}

func (s *Server) ConvertRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, target := q.Get("source"), q.Get("target")
	if source == "" || target == "" {
		writeError(w, http.StatusBadRequest, "source and target are required")
		return
	}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}
	date := time.Now().UTC()
	if raw := q.Get("date"); raw != "" {
		if date, err = time.Parse(domain.DateLayout, raw); err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
			return
		}
	}

	conv, err := s.resolver.ConvertAmount(r.Context(), source, target, amount, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversionResponse{
		SourceCurrency:    conv.SourceCurrency,
		ExchangedCurrency: conv.TargetCurrency,
		Amount:            conv.Amount.String(),
		Rate:              conv.Rate.String(),
		ConvertedAmount:   conv.ConvertedAmount.String(),
		ValuationDate:     conv.ValuationDate.Format(domain.DateLayout),
	})
}

type rateResponse struct {
	SourceCurrency string `json:"source_currency"`
	TargetCurrency string `json:"target_currency"`
	ValuationDate  string `json:"valuation_date"`
	Rate           string `json:"rate"`
}

func (s *Server) RateTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := domain.NormalizeCode(q.Get("source_currency"))
	if !domain.ValidCode(source) {
		writeError(w, http.StatusBadRequest, "source_currency must be a 3-letter code")
		return
	}
	from, err := time.Parse(domain.DateLayout, q.Get("date_from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_from must be formatted YYYY-MM-DD")
		return
	}
	to, err := time.Parse(domain.DateLayout, q.Get("date_to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_to must be formatted YYYY-MM-DD")
		return
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "date_from must be before or equal to date_to")
		return
	}

	rates, err := s.rates.ListBySource(r.Context(), source, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]rateResponse, 0, len(rates))
	for _, rt := range rates {
		out = append(out, rateResponse{
			SourceCurrency: rt.SourceCode,
			TargetCurrency: rt.TargetCode,
			ValuationDate:  rt.ValuationDate.Format(domain.DateLayout),
			Rate:           rt.RateValue.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type currencyPayload struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type currencyResponse struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCurrencyResponse(c domain.Currency) currencyResponse {
	return currencyResponse{
		Code:      c.Code,
		Name:      c.Name,
		Symbol:    c.Symbol,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (s *Server) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	list, err := s.currencies.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]currencyResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCurrencyResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var body currencyPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c, err := s.currencies.Register(r.Context(), body.Code, body.Name, body.Symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCurrencyResponse(c))
}

func (s *Server) GetCurrency(w http.ResponseWriter, r *http.Request) {
	c, err := s.currencies.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCurrencyResponse(c))
}

func (s *Server) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var body currencyPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c, err := s.currencies.Rename(r.Context(), chi.URLParam(r, "code"), body.Name, body.Symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCurrencyResponse(c))
}

func (s *Server) DeleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.currencies.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type providerPayload struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	IsActive *bool  `json:"is_active"`
}

type providerResponse struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProviderResponse(p domain.ProviderConfig) providerResponse {
	return providerResponse{
		Name:        string(p.Name),
		DisplayName: p.Name.Display(),
		Priority:    p.Priority,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (s *Server) ListProviders(w http.ResponseWriter, r *http.Request) {
	list, err := s.providers.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]providerResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProviderResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var body providerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	p, err := s.providers.Create(r.Context(), domain.ProviderConfig{
		Name:     domain.ProviderName(body.Name),
		Priority: body.Priority,
		IsActive: active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProviderResponse(p))
}

func (s *Server) GetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := s.providers.Get(r.Context(), domain.ProviderName(chi.URLParam(r, "name")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

func (s *Server) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	var body providerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := domain.ProviderName(chi.URLParam(r, "name"))
	current, err := s.providers.Get(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if body.Priority != 0 {
		current.Priority = body.Priority
	}
	if body.IsActive != nil {
		current.IsActive = *body.IsActive
	}
	p, err := s.providers.Update(r.Context(), current)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

func (s *Server) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := s.providers.Delete(r.Context(), domain.ProviderName(chi.URLParam(r, "name"))); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type backfillPayload struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

type backfillJobResponse struct {
	JobID       string     `json:"job_id"`
	DateFrom    string     `json:"date_from"`
	DateTo      string     `json:"date_to"`
	Status      string     `json:"status"`
	RatesLoaded int        `json:"rates_loaded"`
	Errors      []string   `json:"errors,omitempty"`
	Error       *string    `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toBackfillJobResponse(j domain.BackfillJob) backfillJobResponse {
	return backfillJobResponse{
		JobID:       j.ID,
		DateFrom:    j.DateFrom.Format(domain.DateLayout),
		DateTo:      j.DateTo.Format(domain.DateLayout),
		Status:      string(j.Status),
		RatesLoaded: j.RatesLoaded,
		Errors:      j.Errors,
		Error:       j.Error,
		RequestedAt: j.RequestedAt,
		CompletedAt: j.CompletedAt,
	}
}

func (s *Server) CreateBackfill(w http.ResponseWriter, r *http.Request) {
	var body backfillPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	from, err := time.Parse(domain.DateLayout, body.DateFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_from must be formatted YYYY-MM-DD")
		return
	}
	to, err := time.Parse(domain.DateLayout, body.DateTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_to must be formatted YYYY-MM-DD")
		return
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "date_from must be before or equal to date_to")
		return
	}

	if key := r.Header.Get("X-Idempotency-Key"); key != "" {
		ok, err := s.idem.TryReserve(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "duplicate request")
			return
		}
	}

	job, err := s.jobs.CreateQueued(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toBackfillJobResponse(job))
}

func (s *Server) GetBackfill(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBackfillJobResponse(job))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Error: msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCurrencyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAllProvidersFailed):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("rate unavailable: %v", err))
	case errors.Is(err, domain.ErrNoProviderAvailable), errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("rate unavailable: %v", err))
	default:
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
