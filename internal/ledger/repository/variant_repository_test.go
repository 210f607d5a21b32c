package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/testutil"
)

// Unit Tests

func TestNewSQLVariantRepository(t *testing.T) {
	db := &sqlx.DB{}
	repo := NewSQLVariantRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func insertVariant(t *testing.T, db *sqlx.DB, stock, reserved int) string {
	t.Helper()

	productID := uuid.NewString()
	_, err := db.Exec(`INSERT INTO products (id, name, is_active) VALUES (?, 'Silk scarf', 1)`, productID)
	require.NoError(t, err)

	variantID := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO product_variants (id, product_id, color_name, stock_quantity, reserved_quantity, reorder_level, unit_price, is_active)
		VALUES (?, ?, ?, ?, ?, 2, 150.00, 1)
	`, variantID, productID, "Red-"+variantID[:8], stock, reserved)
	require.NoError(t, err)

	return variantID
}

func TestVariantRepository_FindVariantByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLVariantRepository(db)
	id := insertVariant(t, db, 10, 3)

	v, err := repo.FindVariantByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 10, v.StockQuantity)
	assert.Equal(t, 3, v.ReservedQuantity)
	assert.Equal(t, 7, v.AvailableQuantity())
	assert.Equal(t, "150", v.UnitPrice.String())

	_, err = repo.FindVariantByID(context.Background(), uuid.NewString())
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestVariantRepository_AdjustStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLVariantRepository(db)
	id := insertVariant(t, db, 10, 0)
	ctx := context.Background()

	require.NoError(t, repo.AdjustStock(ctx, id, -10))

	err := repo.AdjustStock(ctx, id, -1)
	_, ok := apperrors.IsInvalidAdjustmentError(err)
	assert.True(t, ok)

	err = repo.AdjustStock(ctx, uuid.NewString(), 5)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	v, err := repo.FindVariantByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, v.StockQuantity)
}

func TestVariantRepository_ReleaseAndConsumeFloorAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLVariantRepository(db)
	id := insertVariant(t, db, 3, 2)
	ctx := context.Background()

	require.NoError(t, repo.Release(ctx, id, 5))
	require.NoError(t, repo.Reserve(ctx, id, 1))
	require.NoError(t, repo.Consume(ctx, id, 4))

	v, err := repo.FindVariantByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, v.StockQuantity)
	assert.Equal(t, 0, v.ReservedQuantity)
}

func TestVariantRepository_CounterUpdatesReportMissingVariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLVariantRepository(db)
	ctx := context.Background()
	missing := uuid.NewString()

	updates := map[string]func() error{
		"reserve": func() error { return repo.Reserve(ctx, missing, 1) },
		"release": func() error { return repo.Release(ctx, missing, 1) },
		"consume": func() error { return repo.Consume(ctx, missing, 1) },
	}
	for name, update := range updates {
		t.Run(name, func(t *testing.T) {
			err := update()
			nfe, ok := apperrors.IsNotFoundError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, "product variant "+missing+" not found", nfe.Message)
		})
	}
}

func TestVariantRepository_ConcurrentReserves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLVariantRepository(db)
	id := insertVariant(t, db, 10, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Reserve(context.Background(), id, 1))
		}()
	}
	wg.Wait()

	v, err := repo.FindVariantByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 50, v.ReservedQuantity)
}

func TestMovementRepository_AppendAndPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSQLMovementRepository(db)
	ctx := context.Background()
	variantID := uuid.NewString()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		m := domain.NewMovement(variantID, domain.MovementReserved, i+1, &domain.Reference{Type: domain.ReferenceOrder, ID: uuid.NewString()}, "Order", nil, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.AppendMovement(ctx, m))
	}

	first, err := repo.ListMovementsPage(ctx, variantID, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].Quantity)
	assert.Equal(t, 2, first[1].Quantity)

	last := first[1]
	rest, err := repo.ListMovementsPage(ctx, variantID, &domain.MovementCursor{PerformedAt: last.PerformedAt, ID: last.ID}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, 3, rest[0].Quantity)

	filtered, err := repo.ListMovements(ctx, domain.MovementFilter{VariantID: variantID, Type: domain.MovementReserved, Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered, 3)
	assert.Equal(t, 3, filtered[0].Quantity)
}
