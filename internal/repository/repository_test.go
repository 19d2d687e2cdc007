package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/epeers/insight/internal/database"
	"github.com/epeers/insight/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		fmt.Println("PG_URL environment variable not set, skipping repository integration tests")
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.New(ctx, pgURL)
	if err != nil {
		cancel()
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx); err != nil {
		cancel()
		fmt.Printf("Failed to migrate database: %v\n", err)
		os.Exit(1)
	}
	cancel()
	testPool = db.Pool

	code := m.Run()
	db.Close()
	os.Exit(code)
}

// createTestPortfolio inserts a throwaway portfolio and removes it when the
// test ends.
func createTestPortfolio(t *testing.T, name string) *models.Portfolio {
	t.Helper()
	ctx := context.Background()
	repo := NewPortfolioRepository(testPool)

	p := &models.Portfolio{OwnerID: 424242, Name: fmt.Sprintf("%s-%d", name, time.Now().UnixNano()), Strategy: "Balanced AI", Threshold: 5}
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, p))
	require.NoError(t, tx.Commit(ctx))

	t.Cleanup(func() {
		tx, err := repo.BeginTx(ctx)
		if err != nil {
			return
		}
		_ = repo.Delete(ctx, tx, p.ID)
		_ = tx.Commit(ctx)
	})
	return p
}

func TestPortfolioRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPortfolioRepository(testPool)
	p := createTestPortfolio(t, "crud")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, 5.0, got.Threshold)
	assert.Nil(t, got.Comment)

	dup := &models.Portfolio{OwnerID: p.OwnerID, Name: p.Name}
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	err = repo.Create(ctx, tx, dup)
	assert.ErrorIs(t, err, ErrConflict)
	_ = tx.Rollback(ctx)

	comment := "retirement"
	got.Strategy = "Buy & Hold"
	got.Comment = &comment
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, tx, got))
	require.NoError(t, tx.Commit(ctx))

	again, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy & Hold", again.Strategy)
	require.NotNil(t, again.Comment)
	assert.Equal(t, "retirement", *again.Comment)

	list, err := repo.GetByUserID(ctx, p.OwnerID)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, err = repo.GetByID(ctx, -1)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestAssetRepository_HoldingsAndPositions(t *testing.T) {
	ctx := context.Background()
	portfolios := NewPortfolioRepository(testPool)
	assets := NewAssetRepository(testPool)
	positions := NewPositionRepository()
	p := createTestPortfolio(t, "holdings")

	tx, err := portfolios.BeginTx(ctx)
	require.NoError(t, err)
	aapl := &models.Asset{PortfolioID: p.ID, Symbol: "AAPL", Name: "Apple", AssetClass: "stock"}
	bond := &models.Asset{PortfolioID: p.ID, Symbol: "BND", Name: "Bond ETF", AssetClass: "fixed_income"}
	require.NoError(t, assets.Create(ctx, tx, aapl))
	require.NoError(t, assets.Create(ctx, tx, bond))

	pos, err := positions.GetForUpdate(ctx, tx, aapl.ID)
	require.NoError(t, err)
	assert.Zero(t, pos.Quantity)
	pos.Quantity = 10
	pos.AveragePrice = 150
	require.NoError(t, positions.Upsert(ctx, tx, pos))
	require.NoError(t, tx.Commit(ctx))

	holdings, err := assets.ListHoldings(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, 10.0, holdings[0].Quantity)
	assert.Equal(t, 150.0, holdings[0].AveragePrice)
	assert.Zero(t, holdings[1].Quantity)

	tx, err = portfolios.BeginTx(ctx)
	require.NoError(t, err)
	err = assets.Create(ctx, tx, &models.Asset{PortfolioID: p.ID, Symbol: "AAPL", AssetClass: "stock"})
	assert.ErrorIs(t, err, ErrConflict)
	_ = tx.Rollback(ctx)

	symbols, err := assets.DistinctSymbols(ctx)
	require.NoError(t, err)
	assert.Contains(t, symbols, "BND")

	_, err = assets.GetBySymbol(ctx, p.ID, "MSFT")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestQuoteCacheRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQuoteCacheRepository(testPool)
	symbol := fmt.Sprintf("ZZ%d", time.Now().UnixNano()%100000)
	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM quote_cache WHERE symbol = $1`, symbol)
	})

	old := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.CacheQuote(ctx, &models.Quote{Symbol: symbol, Price: 12.5, FetchedAt: old}))

	fresh, err := repo.GetCachedQuote(ctx, symbol, 5*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, fresh)

	latest, err := repo.GetLatestQuote(ctx, symbol)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 12.5, latest.Price)

	// An older quote never overwrites a newer one.
	require.NoError(t, repo.CacheQuote(ctx, &models.Quote{Symbol: symbol, Price: 1, FetchedAt: old.Add(-time.Hour)}))
	latest, err = repo.GetLatestQuote(ctx, symbol)
	require.NoError(t, err)
	assert.Equal(t, 12.5, latest.Price)
}

func TestTransactionRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	portfolios := NewPortfolioRepository(testPool)
	assets := NewAssetRepository(testPool)
	txns := NewTransactionRepository(testPool)
	p := createTestPortfolio(t, "ledger")

	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	tx, err := portfolios.BeginTx(ctx)
	require.NoError(t, err)
	vti := &models.Asset{PortfolioID: p.ID, Symbol: "VTI", AssetClass: "stock"}
	require.NoError(t, assets.Create(ctx, tx, vti))
	buy := &models.Transaction{PortfolioID: p.ID, AssetID: vti.ID, Type: models.TransactionBuy, Quantity: 10, Price: 250.5, Fees: 1, TradeDate: day}
	require.NoError(t, txns.Create(ctx, tx, buy))
	require.NoError(t, tx.Commit(ctx))
	assert.NotZero(t, buy.ID)

	// A rolled back insert leaves no trace.
	tx, err = portfolios.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, txns.Create(ctx, tx, &models.Transaction{PortfolioID: p.ID, AssetID: vti.ID, Type: models.TransactionSell, Quantity: 1, Price: 260, TradeDate: day}))
	require.NoError(t, tx.Rollback(ctx))

	tx, err = portfolios.BeginTx(ctx)
	require.NoError(t, err)
	sell := &models.Transaction{PortfolioID: p.ID, AssetID: vti.ID, Type: models.TransactionSell, Quantity: 4, Price: 270, TradeDate: day.AddDate(0, 0, 1)}
	require.NoError(t, txns.Create(ctx, tx, sell))
	require.NoError(t, tx.Commit(ctx))

	list, err := txns.ListByPortfolio(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.TransactionBuy, list[0].Type)
	assert.Equal(t, "VTI", list[0].Symbol)
	assert.Equal(t, 250.5, list[0].Price)
	assert.Equal(t, 1.0, list[0].Fees)
	assert.Equal(t, models.TransactionSell, list[1].Type)
	assert.Equal(t, 4.0, list[1].Quantity)
}

func TestDividendRepository_TotalsByAsset(t *testing.T) {
	ctx := context.Background()
	portfolios := NewPortfolioRepository(testPool)
	assets := NewAssetRepository(testPool)
	dividends := NewDividendRepository(testPool)
	p := createTestPortfolio(t, "dividends")

	tx, err := portfolios.BeginTx(ctx)
	require.NoError(t, err)
	fii := &models.Asset{PortfolioID: p.ID, Symbol: "HGLG11", AssetClass: "real_estate_fund"}
	bond := &models.Asset{PortfolioID: p.ID, Symbol: "BND", AssetClass: "fixed_income"}
	require.NoError(t, assets.Create(ctx, tx, fii))
	require.NoError(t, assets.Create(ctx, tx, bond))
	require.NoError(t, tx.Commit(ctx))

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for i, d := range []*models.Dividend{
		{PortfolioID: p.ID, AssetID: fii.ID, Amount: 1.1, PaymentDate: day},
		{PortfolioID: p.ID, AssetID: fii.ID, Amount: 2.2, PaymentDate: day.AddDate(0, 1, 0)},
		{PortfolioID: p.ID, AssetID: bond.ID, Amount: 0.35, PaymentDate: day},
	} {
		require.NoError(t, dividends.Create(ctx, d), "dividend %d", i)
		assert.NotZero(t, d.ID)
	}

	list, err := dividends.ListByPortfolio(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "HGLG11", list[0].Symbol)
	assert.Equal(t, 2.2, list[0].Amount)

	totals, err := dividends.TotalsByAsset(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "BND", totals[0].Symbol)
	assert.InDelta(t, 0.35, totals[0].Total, 1e-9)
	assert.Equal(t, 1, totals[0].Count)
	assert.Equal(t, "HGLG11", totals[1].Symbol)
	assert.InDelta(t, 3.3, totals[1].Total, 1e-9)
	assert.Equal(t, 2, totals[1].Count)
}
