package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/notify"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/codes"
	"example.com/flower-shop/pkg/logger"
	"example.com/flower-shop/pkg/metrics"
)

// Константы для валидации пагинации.
const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	minPageSize     = 1
)

// RecapOrderService — жизненный цикл заказов для админского канала myrekap.
type RecapOrderService interface {
	// Create создаёт заказ: прайсинг позиций, списание остатков и
	// вставка заказа — одна атомарная единица.
	Create(ctx context.Context, actor domain.Actor, cmd domain.CreateOrderCommand) (*domain.Order, error)

	// Update правит заказ: набор позиций заменяется целиком,
	// остатки двигаются по чистой разнице количеств.
	Update(ctx context.Context, actor domain.Actor, cmd domain.UpdateOrderCommand) (*domain.Order, error)

	// UpdateStatus переводит заказ по машине состояний с компенсирующими
	// складскими движениями (возврат при отмене, списание при реактивации).
	UpdateStatus(ctx context.Context, actor domain.Actor, cmd domain.UpdateStatusCommand) (*domain.Order, error)

	// Get возвращает заказ по ID.
	Get(ctx context.Context, orderID string) (*domain.Order, error)

	// List возвращает заказы по фильтру с пагинацией.
	List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error)

	// Remove жёстко удаляет заказ. Остатки не компенсируются.
	Remove(ctx context.Context, orderID string) error
}

// recapOrderService — реализация RecapOrderService.
type recapOrderService struct {
	repos   *repository.Repositories
	codes   *codes.Generator
	effects *Effects
}

// NewRecapOrderService создаёт сервис заказов админского канала.
func NewRecapOrderService(repos *repository.Repositories, gen *codes.Generator, effects *Effects) RecapOrderService {
	return &recapOrderService{
		repos:   repos,
		codes:   gen,
		effects: effects,
	}
}

// Create создаёт заказ из админки.
//
// Подтверждение оплаты загружается до транзакции; при откате файл
// удаляется компенсацией. Уведомление уходит после коммита.
func (s *recapOrderService) Create(ctx context.Context, actor domain.Actor, cmd domain.CreateOrderCommand) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	if err := cmd.Validate(); err != nil {
		log.Warn().Err(err).Msg("Ошибка валидации команды создания заказа")
		metrics.RecordOrder("myrekap", "create", "rejected")
		return nil, err
	}

	orderCode, err := s.codes.Generate(codes.KindOrder)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации кода заказа: %w", err)
	}

	// Побочный эффект до транзакции: загрузка подтверждения оплаты.
	var proofRemoteID string
	var proofImage *domain.OrderImage
	if cmd.PaymentProof != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.PaymentProof, folderPaymentProofs, orderCode)
		if err != nil {
			metrics.RecordOrder("myrekap", "create", "error")
			return nil, err
		}
		proofRemoteID = uploaded.RemoteID
		proofImage = &domain.OrderImage{
			ID:       uuid.NewString(),
			Type:     domain.ImagePaymentProof,
			URL:      uploaded.URL,
			RemoteID: uploaded.RemoteID,
		}
	}

	order := &domain.Order{
		ID:               uuid.NewString(),
		OrderCode:        orderCode,
		Source:           domain.SourceMyRekap,
		UserID:           actor.ID,
		CustomerName:     cmd.CustomerName,
		CustomerCategory: cmd.CustomerCategory,
		PhoneNumber:      cmd.PhoneNumber,
		DeliveryOption:   cmd.DeliveryOption,
		DeliveryAddress:  cmd.DeliveryAddress,
		ShippingCost:     cmd.ShippingCost,
		PaymentMethod:    cmd.PaymentMethod,
		PaymentStatus:    cmd.PaymentStatus,
		OrderStatus:      domain.OrderStatusInProcess,
		ReadyDate:        cmd.ReadyDate,
		OrderDate:        time.Now(),
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		return createOrderTx(ctx, tx, order, cmd.Items, proofImage)
	})
	if err != nil {
		// Откат состоялся, подтверждение оплаты осталось в хранилище — удаляем.
		s.effects.Compensate(ctx, proofRemoteID)
		log.Warn().Err(err).Str("order_code", orderCode).Msg("Создание заказа откатилось")
		metrics.RecordOrder("myrekap", "create", "error")
		return nil, err
	}

	metrics.RecordOrder("myrekap", "create", "ok")
	s.effects.Notify(ctx, notify.OrderCreated, order.ID, map[string]string{
		"order_code": order.OrderCode,
		"source":     string(order.Source),
	})

	log.Info().
		Str("order_id", order.ID).
		Str("order_code", order.OrderCode).
		Int64("total_price", order.TotalPrice).
		Int("items_count", len(order.Items)).
		Msg("Заказ успешно создан")

	return order, nil
}

// createOrderTx — общая атомарная часть создания заказа для обоих каналов:
// снимок каталога, прайсинг, списание остатков и вставка заказа.
func createOrderTx(ctx context.Context, tx *repository.Repositories, order *domain.Order, requested []domain.RequestedItem, proofImage *domain.OrderImage) error {
	ids := make([]string, 0, len(requested))
	for _, it := range requested {
		ids = append(ids, it.ProductID)
	}

	catalog, err := tx.Products.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("ошибка чтения каталога: %w", err)
	}

	items, total, err := domain.PriceItems(requested, catalog)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = order.ID
	}
	order.Items = items
	order.TotalPrice = total

	if proofImage != nil {
		proofImage.OrderID = order.ID
		order.Images = []domain.OrderImage{*proofImage}
	}

	if err := tx.Orders.Create(ctx, order); err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for _, item := range order.Items {
		_, err := tx.Stock.PostStockDelta(ctx, repository.StockDeltaRequest{
			ProductID: item.ProductID,
			Type:      domain.StockOut,
			Quantity:  item.Quantity,
			Reason:    domain.ReasonOrderCreated,
			OrderCode: order.OrderCode,
		})
		if err != nil {
			return err
		}
		metrics.RecordStockMovement(string(domain.StockOut))
	}

	return nil
}

// Update правит заказ админского канала.
func (s *recapOrderService) Update(ctx context.Context, actor domain.Actor, cmd domain.UpdateOrderCommand) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	if err := cmd.Validate(); err != nil {
		log.Warn().Err(err).Str("order_id", cmd.OrderID).Msg("Ошибка валидации команды правки заказа")
		metrics.RecordOrder("myrekap", "update", "rejected")
		return nil, err
	}

	// Новое подтверждение оплаты загружается до транзакции.
	var newProofRemoteID string
	var newProof *domain.OrderImage
	if cmd.PaymentProof != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.PaymentProof, folderPaymentProofs, cmd.OrderID)
		if err != nil {
			metrics.RecordOrder("myrekap", "update", "error")
			return nil, err
		}
		newProofRemoteID = uploaded.RemoteID
		newProof = &domain.OrderImage{
			ID:       uuid.NewString(),
			OrderID:  cmd.OrderID,
			Type:     domain.ImagePaymentProof,
			URL:      uploaded.URL,
			RemoteID: uploaded.RemoteID,
		}
	}

	var updated *domain.Order
	var replacedRemoteID string

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		// Банковский перевод без подтверждения недопустим: нужен либо
		// новый файл, либо уже сохранённое подтверждение без удаления.
		if cmd.PaymentMethod == domain.PaymentMethodBankTransfer && newProof == nil {
			_, hasProof := order.ImageOfType(domain.ImagePaymentProof)
			if !hasProof || cmd.RemoveProof {
				return domain.ErrPaymentProofRequired
			}
		}

		ids := make([]string, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			ids = append(ids, it.ProductID)
		}
		catalog, err := tx.Products.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("ошибка чтения каталога: %w", err)
		}

		newItems, total, err := domain.RepriceItems(cmd.Items, catalog)
		if err != nil {
			return err
		}
		for i := range newItems {
			newItems[i].ID = uuid.NewString()
			newItems[i].OrderID = order.ID
		}

		// Складские движения по чистой разнице старого и нового набора.
		for _, delta := range domain.DiffItems(order.Items, newItems) {
			req := repository.StockDeltaRequest{
				ProductID: delta.ProductID,
				Reason:    domain.ReasonOrderEdited,
				OrderCode: order.OrderCode,
			}
			if delta.Delta > 0 {
				req.Type = domain.StockOut
				req.Quantity = delta.Delta
			} else {
				req.Type = domain.StockIn
				req.Quantity = -delta.Delta
			}
			if _, err := tx.Stock.PostStockDelta(ctx, req); err != nil {
				return err
			}
			metrics.RecordStockMovement(string(req.Type))
		}

		if err := tx.Orders.ReplaceItems(ctx, order.ID, newItems); err != nil {
			return fmt.Errorf("ошибка замены позиций заказа: %w", err)
		}

		order.CustomerName = cmd.CustomerName
		order.CustomerCategory = cmd.CustomerCategory
		order.PhoneNumber = cmd.PhoneNumber
		order.DeliveryOption = cmd.DeliveryOption
		order.DeliveryAddress = cmd.DeliveryAddress
		order.ShippingCost = cmd.ShippingCost
		order.PaymentMethod = cmd.PaymentMethod
		order.PaymentStatus = cmd.PaymentStatus
		order.ReadyDate = cmd.ReadyDate
		order.Items = newItems
		order.TotalPrice = total

		if err := tx.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("ошибка сохранения заказа: %w", err)
		}

		switch {
		case newProof != nil:
			if old, ok := order.ImageOfType(domain.ImagePaymentProof); ok {
				replacedRemoteID = old.RemoteID
			}
			if err := tx.Orders.UpsertImage(ctx, newProof); err != nil {
				return fmt.Errorf("ошибка сохранения подтверждения оплаты: %w", err)
			}
		case cmd.RemoveProof:
			removed, err := tx.Orders.DeleteImage(ctx, order.ID, domain.ImagePaymentProof)
			if err != nil {
				return fmt.Errorf("ошибка удаления подтверждения оплаты: %w", err)
			}
			if removed != nil {
				replacedRemoteID = removed.RemoteID
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		s.effects.Compensate(ctx, newProofRemoteID)
		log.Warn().Err(err).Str("order_id", cmd.OrderID).Msg("Правка заказа откатилась")
		metrics.RecordOrder("myrekap", "update", "error")
		return nil, err
	}

	// Замещённый файл больше не нужен — чистим хранилище best-effort.
	s.effects.CleanupRemote(ctx, replacedRemoteID)

	metrics.RecordOrder("myrekap", "update", "ok")
	log.Info().
		Str("order_id", updated.ID).
		Int64("total_price", updated.TotalPrice).
		Int("items_count", len(updated.Items)).
		Msg("Заказ успешно обновлён")

	return updated, nil
}

// UpdateStatus переводит заказ по машине состояний.
//
// Заказы с витрины админ может переводить только в работу или в доставку;
// их завершение и отмена остаются за покупателем.
func (s *recapOrderService) UpdateStatus(ctx context.Context, actor domain.Actor, cmd domain.UpdateStatusCommand) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	// Фото готового букета загружается до транзакции.
	var photoRemoteID string
	var photo *domain.OrderImage
	if cmd.FinishedProduct != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.FinishedProduct, folderFinishedProducts, cmd.OrderID)
		if err != nil {
			metrics.RecordOrder("myrekap", "update_status", "error")
			return nil, err
		}
		photoRemoteID = uploaded.RemoteID
		photo = &domain.OrderImage{
			ID:       uuid.NewString(),
			OrderID:  cmd.OrderID,
			Type:     domain.ImageFinishedProduct,
			URL:      uploaded.URL,
			RemoteID: uploaded.RemoteID,
		}
	}

	var updated *domain.Order
	var replacedRemoteID string

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		if !order.AllowedForRecapUpdate(cmd.Status) {
			return domain.ErrOrderSourceMismatch
		}

		effect, err := order.PlanStatusChange(cmd.Status)
		if err != nil {
			return err
		}

		if err := applyStockEffect(ctx, tx, order, effect, actor.Code); err != nil {
			return err
		}

		order.ApplyStatus(cmd.Status)
		if err := tx.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("ошибка сохранения статуса заказа: %w", err)
		}

		if photo != nil {
			if old, ok := order.ImageOfType(domain.ImageFinishedProduct); ok {
				replacedRemoteID = old.RemoteID
			}
			if err := tx.Orders.UpsertImage(ctx, photo); err != nil {
				return fmt.Errorf("ошибка сохранения фото готового букета: %w", err)
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		s.effects.Compensate(ctx, photoRemoteID)
		log.Warn().Err(err).
			Str("order_id", cmd.OrderID).
			Str("target_status", string(cmd.Status)).
			Msg("Смена статуса заказа откатилась")
		metrics.RecordOrder("myrekap", "update_status", "error")
		return nil, err
	}

	s.effects.CleanupRemote(ctx, replacedRemoteID)

	metrics.RecordOrder("myrekap", "update_status", "ok")
	s.effects.Notify(ctx, notify.OrderStatusChanged, updated.ID, map[string]string{
		"order_code": updated.OrderCode,
		"status":     string(updated.OrderStatus),
		"source":     string(updated.Source),
	})

	log.Info().
		Str("order_id", updated.ID).
		Str("status", string(updated.OrderStatus)).
		Msg("Статус заказа обновлён")

	return updated, nil
}

// applyStockEffect проводит складские движения, требуемые сменой статуса.
func applyStockEffect(ctx context.Context, tx *repository.Repositories, order *domain.Order, effect domain.StockEffect, actorCode string) error {
	if effect == domain.StockEffectNone {
		return nil
	}

	for _, item := range order.Items {
		req := repository.StockDeltaRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			OrderCode: order.OrderCode,
		}
		switch effect {
		case domain.StockEffectRestock:
			req.Type = domain.StockIn
			req.Reason = domain.ReasonOrderCanceled
			req.ActorCode = actorCode
		case domain.StockEffectDeduct:
			req.Type = domain.StockOut
			req.Reason = domain.ReasonOrderReactivated
			req.ActorCode = actorCode
		}
		if _, err := tx.Stock.PostStockDelta(ctx, req); err != nil {
			return err
		}
		metrics.RecordStockMovement(string(req.Type))
	}

	return nil
}

// Get возвращает заказ по ID.
func (s *recapOrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List возвращает заказы по фильтру с пагинацией.
func (s *recapOrderService) List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error) {
	log := logger.FromContext(ctx)

	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	orders, total, err := s.repos.Orders.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка получения списка заказов")
		return nil, 0, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}

	return orders, total, nil
}

// Remove жёстко удаляет заказ вместе с позициями и изображениями.
// Остатки намеренно не компенсируются; удалённые файлы чистятся
// best-effort после коммита.
func (s *recapOrderService) Remove(ctx context.Context, orderID string) error {
	log := logger.FromContext(ctx)

	var remoteIDs []string
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, img := range order.Images {
			remoteIDs = append(remoteIDs, img.RemoteID)
		}
		return tx.Orders.Delete(ctx, orderID)
	})
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("Удаление заказа не выполнено")
		metrics.RecordOrder("myrekap", "remove", "error")
		return err
	}

	for _, id := range remoteIDs {
		s.effects.CleanupRemote(ctx, id)
	}

	metrics.RecordOrder("myrekap", "remove", "ok")
	log.Info().Str("order_id", orderID).Msg("Заказ удалён")
	return nil
}

// normalizePage нормализует номер страницы.
// Возвращает минимум 1.
func normalizePage(page int) int {
	if page < 1 {
		return defaultPage
	}
	return page
}

// normalizePageSize нормализует размер страницы.
// Возвращает значение в диапазоне [minPageSize, maxPageSize].
func normalizePageSize(pageSize int) int {
	if pageSize < minPageSize {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
