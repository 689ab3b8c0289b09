package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/flower-shop/internal/cache"
	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/codes"
	"example.com/flower-shop/pkg/logger"
	"example.com/flower-shop/pkg/metrics"
)

// ProductService — каталог товаров и управление остатками.
type ProductService interface {
	// Create создаёт товар; начальный остаток проводится через
	// складской журнал, а не пишется напрямую.
	Create(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error)

	// Get возвращает товар по ID.
	Get(ctx context.Context, id string) (*domain.Product, error)

	// List возвращает товары по фильтру.
	List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*domain.Product, int64, error)

	// Update обновляет карточку товара. Деактивация каскадно
	// удаляет товар из всех корзин.
	Update(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error)

	// ManageStock проводит ручное движение остатков (приход от
	// поставщика, списание брака).
	ManageStock(ctx context.Context, productID string, movementType domain.StockTransactionType, quantity int, note string) (*domain.Product, error)

	// StockHistory возвращает историю движений товара.
	StockHistory(ctx context.Context, productID string, page, pageSize int) ([]*domain.StockTransaction, int64, error)

	// MonthlyStockReport возвращает сводку движений по товарам за месяц.
	MonthlyStockReport(ctx context.Context, year int, month time.Month) ([]repository.StockReportRow, error)

	// Delete удаляет товар и его позиции из всех корзин.
	Delete(ctx context.Context, id string) error
}

// CreateProductCommand — создание товара.
type CreateProductCommand struct {
	Name         string
	Price        int64
	Description  string
	InitialStock int
	Image        *domain.FileUpload
}

// UpdateProductCommand — правка карточки товара.
// Остаток здесь отсутствует: он меняется только через ManageStock.
type UpdateProductCommand struct {
	ID          string
	Name        string
	Price       int64
	Description string
	IsActive    bool
	Image       *domain.FileUpload
}

// productService — реализация ProductService.
type productService struct {
	repos   *repository.Repositories
	codes   *codes.Generator
	effects *Effects
	cache   *cache.ProductCache // nil — чтение всегда из базы
}

// NewProductService создаёт сервис каталога. productCache опционален.
func NewProductService(repos *repository.Repositories, gen *codes.Generator, effects *Effects, productCache *cache.ProductCache) ProductService {
	return &productService{
		repos:   repos,
		codes:   gen,
		effects: effects,
		cache:   productCache,
	}
}

// Create создаёт товар.
func (s *productService) Create(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	code, err := s.codes.Generate(codes.KindProduct)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации кода товара: %w", err)
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		Code:        code,
		Name:        cmd.Name,
		Price:       cmd.Price,
		Description: cmd.Description,
		IsActive:    true,
	}
	if err := product.Validate(); err != nil {
		log.Warn().Err(err).Str("name", cmd.Name).Msg("Ошибка валидации товара")
		return nil, err
	}

	var imageRemoteID string
	if cmd.Image != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.Image, folderProducts, code)
		if err != nil {
			return nil, err
		}
		imageRemoteID = uploaded.RemoteID
		product.ImageURL = uploaded.URL
		product.ImageID = uploaded.RemoteID
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Products.Create(ctx, product); err != nil {
			return err
		}
		if cmd.InitialStock > 0 {
			_, err := tx.Stock.PostStockDelta(ctx, repository.StockDeltaRequest{
				ProductID: product.ID,
				Type:      domain.StockIn,
				Quantity:  cmd.InitialStock,
				Note:      "Initial stock",
			})
			if err != nil {
				return err
			}
			metrics.RecordStockMovement(string(domain.StockIn))
			product.Stock = cmd.InitialStock
		}
		return nil
	})
	if err != nil {
		s.effects.Compensate(ctx, imageRemoteID)
		log.Warn().Err(err).Str("name", cmd.Name).Msg("Создание товара откатилось")
		return nil, err
	}

	log.Info().
		Str("product_id", product.ID).
		Str("code", product.Code).
		Str("name", product.Name).
		Msg("Товар создан")

	return product, nil
}

// Get возвращает товар по ID. Снимок кэшируется с коротким TTL —
// движения склада из заказов кэш не инвалидируют.
func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if product, ok := s.cache.Get(ctx, id); ok {
			return product, nil
		}
	}

	product, err := s.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	return product, nil
}

// List возвращает товары по фильтру с пагинацией.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	products, total, err := s.repos.Products.List(ctx, filter)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Ошибка получения каталога")
		return nil, 0, fmt.Errorf("ошибка получения каталога: %w", err)
	}

	return products, total, nil
}

// Update обновляет карточку товара.
// Деактивированный товар нельзя заказать, поэтому его позиции
// удаляются из всех корзин в той же транзакции.
func (s *productService) Update(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	var newImageRemoteID string
	var replacedRemoteID string
	var updated *domain.Product

	var uploadedURL, uploadedID string
	if cmd.Image != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.Image, folderProducts, cmd.ID)
		if err != nil {
			return nil, err
		}
		newImageRemoteID = uploaded.RemoteID
		uploadedURL = uploaded.URL
		uploadedID = uploaded.RemoteID
	}

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		product, err := tx.Products.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}

		wasActive := product.IsActive

		product.Name = cmd.Name
		product.Price = cmd.Price
		product.Description = cmd.Description
		product.IsActive = cmd.IsActive
		if cmd.Image != nil {
			replacedRemoteID = product.ImageID
			product.ImageURL = uploadedURL
			product.ImageID = uploadedID
		}

		if err := product.Validate(); err != nil {
			return err
		}
		if err := tx.Products.Update(ctx, product); err != nil {
			return err
		}

		// Деактивация каскадно выносит товар из корзин.
		if wasActive && !product.IsActive {
			if err := tx.Carts.DeleteByProduct(ctx, product.ID); err != nil {
				return fmt.Errorf("ошибка очистки корзин при деактивации товара: %w", err)
			}
		}

		updated = product
		return nil
	})
	if err != nil {
		s.effects.Compensate(ctx, newImageRemoteID)
		log.Warn().Err(err).Str("product_id", cmd.ID).Msg("Правка товара откатилась")
		return nil, err
	}

	s.effects.CleanupRemote(ctx, replacedRemoteID)
	if s.cache != nil {
		s.cache.Invalidate(ctx, updated.ID)
	}

	log.Info().
		Str("product_id", updated.ID).
		Bool("is_active", updated.IsActive).
		Msg("Товар обновлён")

	return updated, nil
}

// ManageStock проводит ручное движение остатков.
func (s *productService) ManageStock(ctx context.Context, productID string, movementType domain.StockTransactionType, quantity int, note string) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	var product *domain.Product
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		_, err := tx.Stock.PostStockDelta(ctx, repository.StockDeltaRequest{
			ProductID: productID,
			Type:      movementType,
			Quantity:  quantity,
			Note:      note,
			Reason:    domain.ReasonManual,
		})
		if err != nil {
			return err
		}
		metrics.RecordStockMovement(string(movementType))

		product, err = tx.Products.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		log.Warn().Err(err).
			Str("product_id", productID).
			Str("type", string(movementType)).
			Int("quantity", quantity).
			Msg("Движение остатков не проведено")
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}

	log.Info().
		Str("product_id", productID).
		Str("type", string(movementType)).
		Int("quantity", quantity).
		Int("stock", product.Stock).
		Msg("Движение остатков проведено")

	return product, nil
}

// StockHistory возвращает историю движений товара.
func (s *productService) StockHistory(ctx context.Context, productID string, page, pageSize int) ([]*domain.StockTransaction, int64, error) {
	if _, err := s.repos.Products.GetByID(ctx, productID); err != nil {
		return nil, 0, err
	}

	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)

	return s.repos.Stock.ListByProduct(ctx, productID, (page-1)*pageSize, pageSize)
}

// MonthlyStockReport возвращает сводку движений за месяц.
func (s *productService) MonthlyStockReport(ctx context.Context, year int, month time.Month) ([]repository.StockReportRow, error) {
	return s.repos.Stock.MonthlyReport(ctx, year, month)
}

// Delete удаляет товар вместе с его позициями во всех корзинах.
// Изображение чистится из хранилища после коммита.
func (s *productService) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	var imageRemoteID string
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		product, err := tx.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		imageRemoteID = product.ImageID

		if err := tx.Carts.DeleteByProduct(ctx, id); err != nil {
			return fmt.Errorf("ошибка очистки корзин при удалении товара: %w", err)
		}
		return tx.Products.Delete(ctx, id)
	})
	if err != nil {
		log.Warn().Err(err).Str("product_id", id).Msg("Удаление товара не выполнено")
		return err
	}

	s.effects.CleanupRemote(ctx, imageRemoteID)
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	log.Info().Str("product_id", id).Msg("Товар удалён")
	return nil
}
