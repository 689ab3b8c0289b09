package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"example.com/flower-shop/internal/domain"
)

// StockRepository — складской журнал, единственный путь изменения
// Product.Stock. Каждое движение атомарно обновляет остаток и
// добавляет запись в append-only журнал.
type StockRepository interface {
	// PostStockDelta проводит одно движение остатков: изменяет
	// Product.Stock на ±Quantity и вставляет запись журнала.
	// Обе записи должны выполняться внутри объемлющей транзакции,
	// поэтому метод вызывается только через Repositories.WithinTransaction.
	PostStockDelta(ctx context.Context, req StockDeltaRequest) (string, error)

	// ListByProduct возвращает историю движений товара, новые первыми.
	ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*domain.StockTransaction, int64, error)

	// MonthlyReport возвращает сводку движений по товарам за месяц:
	// остаток на начало, приход, списание и остаток на конец периода.
	MonthlyReport(ctx context.Context, year int, month time.Month) ([]StockReportRow, error)
}

// StockDeltaRequest — параметры одного движения остатков.
// Если Note пуст, текст синтезируется из Reason, OrderCode и ActorCode.
type StockDeltaRequest struct {
	ProductID string
	Type      domain.StockTransactionType
	Quantity  int
	Note      string
	Reason    domain.StockReason
	OrderCode string
	ActorCode string
}

// StockReportRow — строка месячной сводки движений.
// InitialStock — остаток на начало месяца, перенесённый из предыдущих
// периодов; FinalStock = InitialStock + StockIn - StockOut.
type StockReportRow struct {
	ProductID    string `gorm:"column:product_id" json:"product_id"`
	ProductName  string `gorm:"column:product_name" json:"product_name"`
	InitialStock int    `gorm:"column:initial_stock" json:"initial_stock"`
	StockIn      int    `gorm:"column:stock_in" json:"stock_in"`
	StockOut     int    `gorm:"column:stock_out" json:"stock_out"`
	FinalStock   int    `gorm:"-" json:"final_stock"`
}

// StockTransactionModel — GORM модель для таблицы stock_transactions.
// Записи никогда не обновляются и не удаляются.
type StockTransactionModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	ProductID string    `gorm:"column:product_id;type:varchar(36);not null;index"`
	Type      string    `gorm:"column:type;type:varchar(10);not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Note      string    `gorm:"column:note;type:varchar(512)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName возвращает имя таблицы в БД.
func (StockTransactionModel) TableName() string {
	return "stock_transactions"
}

// toDomain конвертирует GORM модель движения в доменную сущность.
func (m *StockTransactionModel) toDomain() *domain.StockTransaction {
	return &domain.StockTransaction{
		ID:        m.ID,
		ProductID: m.ProductID,
		Type:      domain.StockTransactionType(m.Type),
		Quantity:  m.Quantity,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
}

// stockRepository — GORM реализация StockRepository.
type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository создаёт новый складской журнал.
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

// PostStockDelta проводит движение остатков.
//
// Списание выполняется условным UPDATE (stock = stock - q WHERE stock >= q),
// счётчик затронутых строк закрывает гонку между конкурентными заказами:
// остаток никогда не уходит в минус независимо от уровня изоляции.
func (r *stockRepository) PostStockDelta(ctx context.Context, req StockDeltaRequest) (string, error) {
	if req.Quantity <= 0 {
		return "", domain.ErrInvalidQuantity
	}

	var result *gorm.DB
	switch req.Type {
	case domain.StockOut:
		result = r.db.WithContext(ctx).
			Model(&ProductModel{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Quantity).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock - ?", req.Quantity),
				"updated_at": time.Now(),
			})
	case domain.StockIn:
		result = r.db.WithContext(ctx).
			Model(&ProductModel{}).
			Where("id = ?", req.ProductID).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("stock + ?", req.Quantity),
				"updated_at": time.Now(),
			})
	default:
		return "", fmt.Errorf("неизвестный тип движения остатков: %s", req.Type)
	}

	if result.Error != nil {
		return "", fmt.Errorf("ошибка обновления остатка: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Либо товара нет, либо остатка не хватило на списание.
		if req.Type == domain.StockOut {
			return "", r.classifyStockOutFailure(ctx, req.ProductID)
		}
		return "", domain.ErrProductNotFound
	}

	note := req.Note
	if note == "" {
		note = domain.StockNote(req.Reason, req.OrderCode, req.ActorCode)
	}

	model := &StockTransactionModel{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		Type:      string(req.Type),
		Quantity:  req.Quantity,
		Note:      note,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("ошибка записи складского журнала: %w", err)
	}

	return model.ID, nil
}

// classifyStockOutFailure различает отсутствие товара и нехватку остатка
// после неуспешного условного UPDATE.
func (r *stockRepository) classifyStockOutFailure(ctx context.Context, productID string) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", productID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrProductNotFound
	}
	return domain.ErrStockInsufficient
}

// ListByProduct возвращает историю движений товара.
func (r *stockRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*domain.StockTransaction, int64, error) {
	var models []StockTransactionModel
	var totalCount int64

	query := r.db.WithContext(ctx).
		Model(&StockTransactionModel{}).
		Where("product_id = ?", productID)

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	transactions := make([]*domain.StockTransaction, len(models))
	for i := range models {
		transactions[i] = models[i].toDomain()
	}

	return transactions, totalCount, nil
}

// MonthlyReport возвращает сводку движений по товарам за месяц.
//
// Остаток на начало месяца не хранится отдельно: он сворачивается из
// всех движений до начала периода. Стартовый остаток товара тоже
// проходит через журнал (приход при создании), поэтому свёртка точна.
func (r *stockRepository) MonthlyReport(ctx context.Context, year int, month time.Month) ([]StockReportRow, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var rows []StockReportRow
	err := r.db.WithContext(ctx).
		Model(&StockTransactionModel{}).
		Select(`products.id AS product_id,
			products.name AS product_name,
			COALESCE(SUM(CASE WHEN stock_transactions.created_at < ? THEN
				CASE WHEN stock_transactions.type = ? THEN stock_transactions.quantity ELSE -stock_transactions.quantity END
				ELSE 0 END), 0) AS initial_stock,
			COALESCE(SUM(CASE WHEN stock_transactions.created_at >= ? AND stock_transactions.type = ? THEN stock_transactions.quantity ELSE 0 END), 0) AS stock_in,
			COALESCE(SUM(CASE WHEN stock_transactions.created_at >= ? AND stock_transactions.type = ? THEN stock_transactions.quantity ELSE 0 END), 0) AS stock_out`,
			from, string(domain.StockIn),
			from, string(domain.StockIn),
			from, string(domain.StockOut)).
		Joins("JOIN products ON products.id = stock_transactions.product_id").
		Where("stock_transactions.created_at < ?", to).
		Group("products.id, products.name").
		Order("products.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования отчёта по остаткам: %w", err)
	}

	for i := range rows {
		rows[i].FinalStock = rows[i].InitialStock + rows[i].StockIn - rows[i].StockOut
	}

	return rows, nil
}
