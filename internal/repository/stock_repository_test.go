// Package repository содержит unit тесты складского журнала.
package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/flower-shop/internal/domain"
)

// setupMockDB создаёт мок базы данных с GORM.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Ошибка создания sqlmock")

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Ошибка инициализации GORM")

	return gormDB, mock, func() { _ = db.Close() }
}

// =====================================
// Тесты PostStockDelta
// =====================================

func TestPostStockDelta_StockOut(t *testing.T) {
	t.Run("успешное списание", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `products` SET").
			WithArgs(5, sqlmock.AnyArg(), "prod-1", 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `stock_transactions`").
			WithArgs(sqlmock.AnyArg(), "prod-1", "STOCK_OUT", 5, "Order #ORD-abc", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		repo := NewStockRepository(gormDB)
		txID, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-1",
			Type:      domain.StockOut,
			Quantity:  5,
			Reason:    domain.ReasonOrderCreated,
			OrderCode: "ORD-abc",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, txID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("нехватка остатка", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		// Условный UPDATE не затронул строк: остатка не хватило.
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `products` SET").
			WithArgs(10, sqlmock.AnyArg(), "prod-1", 10).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		// Товар существует, значит проблема в остатке.
		rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `products` WHERE id = \\?").
			WithArgs("prod-1").WillReturnRows(rows)

		repo := NewStockRepository(gormDB)
		_, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-1",
			Type:      domain.StockOut,
			Quantity:  10,
			Reason:    domain.ReasonOrderCreated,
			OrderCode: "ORD-abc",
		})

		require.ErrorIs(t, err, domain.ErrStockInsufficient)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("товар не найден", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `products` SET").
			WithArgs(1, sqlmock.AnyArg(), "missing", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(0)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `products` WHERE id = \\?").
			WithArgs("missing").WillReturnRows(rows)

		repo := NewStockRepository(gormDB)
		_, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "missing",
			Type:      domain.StockOut,
			Quantity:  1,
		})

		require.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostStockDelta_StockIn(t *testing.T) {
	t.Run("успешный возврат на склад", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `products` SET").
			WithArgs(3, sqlmock.AnyArg(), "prod-2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `stock_transactions`").
			WithArgs(sqlmock.AnyArg(), "prod-2", "STOCK_IN", 3, "Order #ORD-x canceled by admin #USR-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		repo := NewStockRepository(gormDB)
		txID, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-2",
			Type:      domain.StockIn,
			Quantity:  3,
			Reason:    domain.ReasonOrderCanceled,
			OrderCode: "ORD-x",
			ActorCode: "USR-1",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, txID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("явная заметка имеет приоритет над синтезом", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `products` SET").
			WithArgs(7, sqlmock.AnyArg(), "prod-3").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `stock_transactions`").
			WithArgs(sqlmock.AnyArg(), "prod-3", "STOCK_IN", 7, "Поставка от флориста", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		repo := NewStockRepository(gormDB)
		_, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-3",
			Type:      domain.StockIn,
			Quantity:  7,
			Note:      "Поставка от флориста",
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostStockDelta_Validation(t *testing.T) {
	gormDB, _, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStockRepository(gormDB)

	t.Run("нулевое количество отклоняется", func(t *testing.T) {
		_, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-1",
			Type:      domain.StockOut,
			Quantity:  0,
		})
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("отрицательное количество отклоняется", func(t *testing.T) {
		_, err := repo.PostStockDelta(context.Background(), StockDeltaRequest{
			ProductID: "prod-1",
			Type:      domain.StockIn,
			Quantity:  -3,
		})
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

// =====================================
// Тесты ListByProduct
// =====================================

func TestListByProduct(t *testing.T) {
	t.Run("история движений с пагинацией", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		countRows := sqlmock.NewRows([]string{"count"}).AddRow(2)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `stock_transactions`").
			WithArgs("prod-1").WillReturnRows(countRows)

		rows := sqlmock.NewRows([]string{"id", "product_id", "type", "quantity", "note"}).
			AddRow("tx-2", "prod-1", "STOCK_IN", 3, "Order #ORD-1 canceled").
			AddRow("tx-1", "prod-1", "STOCK_OUT", 3, "Order #ORD-1")
		mock.ExpectQuery("SELECT \\* FROM `stock_transactions` WHERE product_id = \\?").
			WithArgs("prod-1", 20).WillReturnRows(rows)

		repo := NewStockRepository(gormDB)
		transactions, total, err := repo.ListByProduct(context.Background(), "prod-1", 0, 20)

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, transactions, 2)
		assert.Equal(t, domain.StockIn, transactions[0].Type)
		assert.Equal(t, domain.StockOut, transactions[1].Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка БД", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `stock_transactions`").
			WithArgs("prod-1").WillReturnError(sql.ErrConnDone)

		repo := NewStockRepository(gormDB)
		_, _, err := repo.ListByProduct(context.Background(), "prod-1", 0, 20)

		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}

// =====================================
// Тесты MonthlyReport
// =====================================

func TestMonthlyReport(t *testing.T) {
	t.Run("перенос остатка с предыдущих периодов", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		// Роза: 10 пришло до марта, в марте +5 и -8; финал 10+5-8=7.
		// Тюльпан: движений до марта нет, в марте +20 и -4; финал 16.
		rows := sqlmock.NewRows([]string{"product_id", "product_name", "initial_stock", "stock_in", "stock_out"}).
			AddRow("prod-1", "Роза", 10, 5, 8).
			AddRow("prod-2", "Тюльпан", 0, 20, 4)
		mock.ExpectQuery("SELECT products.id AS product_id").
			WillReturnRows(rows)

		repo := NewStockRepository(gormDB)
		report, err := repo.MonthlyReport(context.Background(), 2026, 3)

		require.NoError(t, err)
		require.Len(t, report, 2)

		assert.Equal(t, 10, report[0].InitialStock)
		assert.Equal(t, 5, report[0].StockIn)
		assert.Equal(t, 8, report[0].StockOut)
		assert.Equal(t, 7, report[0].FinalStock)

		assert.Equal(t, 0, report[1].InitialStock)
		assert.Equal(t, 16, report[1].FinalStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ошибка БД", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT products.id AS product_id").
			WillReturnError(sql.ErrConnDone)

		repo := NewStockRepository(gormDB)
		_, err := repo.MonthlyReport(context.Background(), 2026, 3)

		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}
