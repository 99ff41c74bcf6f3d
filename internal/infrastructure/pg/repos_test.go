package pg_test

import (
	"context"
	"testing"
	"time"

	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/pg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedCurrencies(t *testing.T, repo *pg.CurrencyRepo, codes ...string) {
	t.Helper()
	for _, c := range codes {
		_, err := repo.Create(context.Background(), domain.Currency{Code: c, Name: c})
		require.NoError(t, err)
	}
}

func TestCurrencyRepo_CRUD(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	repo := pg.NewCurrencyRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Currency{Code: "USD", Name: "US Dollar", Symbol: "$"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, domain.Currency{Code: "USD", Name: "Duplicate"})
	require.ErrorIs(t, err, domain.ErrValidation)

	got, err := repo.GetByCode(ctx, "USD")
	require.NoError(t, err)
	require.Equal(t, "US Dollar", got.Name)

	got.Name = "Dollar"
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)

	_, err = repo.GetByCode(ctx, "EUR")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "USD"))
	require.ErrorIs(t, repo.Delete(ctx, "USD"), domain.ErrNotFound)
}

func TestRateRepo_InsertIsIdempotent(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	currencies := pg.NewCurrencyRepo(db)
	rates := pg.NewRateRepo(db)
	ctx := context.Background()
	seedCurrencies(t, currencies, "USD", "EUR")

	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	first := domain.ExchangeRate{
		SourceCode:    "USD",
		TargetCode:    "EUR",
		ValuationDate: date,
		RateValue:     decimal.RequireFromString("0.851234"),
	}
	require.NoError(t, rates.Insert(ctx, first))

	second := first
	second.RateValue = decimal.RequireFromString("0.99")
	require.NoError(t, rates.Insert(ctx, second))

	got, err := rates.Get(ctx, "USD", "EUR", date)
	require.NoError(t, err)
	require.True(t, got.RateValue.Equal(decimal.RequireFromString("0.851234")))
}

func TestRateRepo_BulkInsertCountsNewRowsOnly(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	currencies := pg.NewCurrencyRepo(db)
	rates := pg.NewRateRepo(db)
	ctx := context.Background()
	seedCurrencies(t, currencies, "USD", "EUR", "GBP")

	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	batch := []domain.ExchangeRate{
		{SourceCode: "USD", TargetCode: "EUR", ValuationDate: date, RateValue: decimal.RequireFromString("0.85")},
		{SourceCode: "USD", TargetCode: "GBP", ValuationDate: date, RateValue: decimal.RequireFromString("0.73")},
	}
	n, err := rates.BulkInsert(ctx, batch)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = rates.BulkInsert(ctx, batch)
	require.NoError(t, err)
	require.Zero(t, n)

	existing, err := rates.ExistingForDate(ctx, date)
	require.NoError(t, err)
	require.True(t, existing["USD/EUR"])
	require.True(t, existing["USD/GBP"])
	require.False(t, existing["EUR/USD"])
}

func TestRateRepo_ListBySourceOrdered(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	currencies := pg.NewCurrencyRepo(db)
	rates := pg.NewRateRepo(db)
	ctx := context.Background()
	seedCurrencies(t, currencies, "USD", "EUR", "GBP")

	d1 := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	_, err := rates.BulkInsert(ctx, []domain.ExchangeRate{
		{SourceCode: "USD", TargetCode: "GBP", ValuationDate: d2, RateValue: decimal.RequireFromString("0.73")},
		{SourceCode: "USD", TargetCode: "EUR", ValuationDate: d2, RateValue: decimal.RequireFromString("0.85")},
		{SourceCode: "USD", TargetCode: "EUR", ValuationDate: d1, RateValue: decimal.RequireFromString("0.84")},
		{SourceCode: "EUR", TargetCode: "USD", ValuationDate: d1, RateValue: decimal.RequireFromString("1.18")},
	})
	require.NoError(t, err)

	got, err := rates.ListBySource(ctx, "USD", d1, d2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "EUR", got[0].TargetCode)
	require.True(t, got[0].ValuationDate.Equal(d1))
	require.Equal(t, "EUR", got[1].TargetCode)
	require.Equal(t, "GBP", got[2].TargetCode)
}

func TestRateRepo_DeleteOlderThan(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	currencies := pg.NewCurrencyRepo(db)
	rates := pg.NewRateRepo(db)
	ctx := context.Background()
	seedCurrencies(t, currencies, "USD", "EUR")

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	_, err := rates.BulkInsert(ctx, []domain.ExchangeRate{
		{SourceCode: "USD", TargetCode: "EUR", ValuationDate: old, RateValue: decimal.RequireFromString("0.9")},
		{SourceCode: "USD", TargetCode: "EUR", ValuationDate: recent, RateValue: decimal.RequireFromString("0.85")},
	})
	require.NoError(t, err)

	n, err := rates.DeleteOlderThan(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = rates.Get(ctx, "USD", "EUR", recent)
	require.NoError(t, err)
	_, err = rates.Get(ctx, "USD", "EUR", old)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProviderRepo_PriorityLookupAndOrdering(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	repo := pg.NewProviderRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, domain.ProviderConfig{Name: domain.ProviderMock, Priority: 2, IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.ProviderConfig{Name: domain.ProviderCurrencyBeacon, Priority: 1, IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.ProviderConfig{Name: domain.ProviderExchangeRateAPI, Priority: 3, IsActive: false})
	require.NoError(t, err)

	holder, err := repo.GetByPriority(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderMock, holder.Name)

	_, err = repo.GetByPriority(ctx, 9)
	require.ErrorIs(t, err, domain.ErrNotFound)

	active, err := repo.ListActiveOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, domain.ProviderCurrencyBeacon, active[0].Name)
	require.Equal(t, domain.ProviderMock, active[1].Name)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestProviderRepo_UniqueBackstop(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	repo := pg.NewProviderRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, domain.ProviderConfig{Name: domain.ProviderMock, Priority: 1, IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.ProviderConfig{Name: domain.ProviderCurrencyBeacon, Priority: 1, IsActive: true})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestBackfillJobRepo_Lifecycle(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	repo := pg.NewBackfillJobRepo(db)
	ctx := context.Background()

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	job, err := repo.CreateQueued(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, domain.BackfillJobQueued, job.Status)

	claimed, err := repo.ClaimQueued(ctx, 5)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, job.ID, claimed[0].ID)
	require.Equal(t, domain.BackfillJobProcessing, claimed[0].Status)

	// A second claim finds nothing left.
	claimed, err = repo.ClaimQueued(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, claimed)

	require.NoError(t, repo.Complete(ctx, job.ID, 42, []string{"USD/GBP 2024-06-02: no rate"}))

	done, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BackfillJobDone, done.Status)
	require.Equal(t, 42, done.RatesLoaded)
	require.Len(t, done.Errors, 1)
	require.NotNil(t, done.CompletedAt)
}

func TestBackfillJobRepo_Fail(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	repo := pg.NewBackfillJobRepo(db)
	ctx := context.Background()

	job, err := repo.CreateQueued(ctx,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, repo.Fail(ctx, job.ID, "no active provider"))
	failed, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BackfillJobFailed, failed.Status)
	require.NotNil(t, failed.Error)
	require.Equal(t, "no active provider", *failed.Error)
}
