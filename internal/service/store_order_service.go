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

// StoreOrderService — жизненный цикл заказов покупательской витрины myflower.
type StoreOrderService interface {
	// Checkout оформляет заказ из корзины покупателя.
	// Корзина очищается после коммита, best-effort.
	Checkout(ctx context.Context, actor domain.Actor, cmd domain.CheckoutCommand) (*domain.Order, error)

	// List возвращает заказы покупателя.
	List(ctx context.Context, actor domain.Actor, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int64, error)

	// Get возвращает заказ покупателя. Чужие заказы не видны.
	Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)

	// Cancel отменяет заказ покупателя с возвратом остатков.
	Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)

	// Confirm подтверждает получение заказа. Остатки не меняются.
	Confirm(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
}

// storeOrderService — реализация StoreOrderService.
type storeOrderService struct {
	repos   *repository.Repositories
	codes   *codes.Generator
	effects *Effects
}

// NewStoreOrderService создаёт сервис заказов витрины.
func NewStoreOrderService(repos *repository.Repositories, gen *codes.Generator, effects *Effects) StoreOrderService {
	return &storeOrderService{
		repos:   repos,
		codes:   gen,
		effects: effects,
	}
}

// Checkout оформляет заказ из корзины.
//
// Данные покупателя снимаются с Actor на момент оформления. Стоимость
// доставки всегда 0 — её назначает менеджер при подтверждении.
func (s *storeOrderService) Checkout(ctx context.Context, actor domain.Actor, cmd domain.CheckoutCommand) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	if err := cmd.Validate(); err != nil {
		log.Warn().Err(err).Msg("Ошибка валидации оформления заказа")
		metrics.RecordOrder("myflower", "checkout", "rejected")
		return nil, err
	}

	cartItems, err := s.repos.Carts.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения корзины: %w", err)
	}
	if len(cartItems) == 0 {
		metrics.RecordOrder("myflower", "checkout", "rejected")
		return nil, domain.ErrCartEmpty
	}

	requested := make([]domain.RequestedItem, 0, len(cartItems))
	for _, ci := range cartItems {
		requested = append(requested, domain.RequestedItem{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
		})
	}

	orderCode, err := s.codes.Generate(codes.KindOrder)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации кода заказа: %w", err)
	}

	var proofRemoteID string
	var proofImage *domain.OrderImage
	if cmd.PaymentProof != nil {
		uploaded, err := s.effects.Upload(ctx, cmd.PaymentProof, folderPaymentProofs, orderCode)
		if err != nil {
			metrics.RecordOrder("myflower", "checkout", "error")
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
		Source:           domain.SourceMyFlower,
		UserID:           actor.ID,
		CustomerName:     actor.FullName,
		CustomerCategory: actor.CustomerCategory,
		PhoneNumber:      actor.PhoneNumber,
		DeliveryOption:   cmd.DeliveryOption,
		DeliveryAddress:  cmd.DeliveryAddress,
		ShippingCost:     0,
		PaymentMethod:    cmd.PaymentMethod,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		OrderStatus:      domain.OrderStatusInProcess,
		ReadyDate:        cmd.ReadyDate,
		OrderDate:        time.Now(),
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		return createOrderTx(ctx, tx, order, requested, proofImage)
	})
	if err != nil {
		s.effects.Compensate(ctx, proofRemoteID)
		log.Warn().Err(err).Str("order_code", orderCode).Msg("Оформление заказа откатилось")
		metrics.RecordOrder("myflower", "checkout", "error")
		return nil, err
	}

	// Корзина очищается после коммита: неудача не откатывает заказ.
	if err := s.repos.Carts.ClearByUser(ctx, actor.ID); err != nil {
		log.Error().Err(err).
			Str("user_id", actor.ID).
			Str("order_id", order.ID).
			Msg("Не удалось очистить корзину после оформления заказа")
	}

	metrics.RecordOrder("myflower", "checkout", "ok")
	s.effects.Notify(ctx, notify.OrderCreated, order.ID, map[string]string{
		"order_code": order.OrderCode,
		"source":     string(order.Source),
	})
	s.effects.Notify(ctx, notify.NewOrderForManager, order.ID, map[string]string{
		"order_code":    order.OrderCode,
		"customer_name": order.CustomerName,
	})

	log.Info().
		Str("order_id", order.ID).
		Str("order_code", order.OrderCode).
		Int64("total_price", order.TotalPrice).
		Int("items_count", len(order.Items)).
		Msg("Заказ с витрины успешно оформлен")

	return order, nil
}

// List возвращает заказы покупателя с пагинацией.
func (s *storeOrderService) List(ctx context.Context, actor domain.Actor, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int64, error) {
	page = normalizePage(page)
	pageSize = normalizePageSize(pageSize)

	filter := repository.OrderFilter{
		UserID: actor.ID,
		Source: domain.SourceMyFlower,
		Status: status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}

	orders, total, err := s.repos.Orders.List(ctx, filter)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("user_id", actor.ID).
			Msg("Ошибка получения заказов покупателя")
		return nil, 0, fmt.Errorf("ошибка получения заказов: %w", err)
	}

	return orders, total, nil
}

// Get возвращает заказ покупателя.
// Чужой заказ неотличим от несуществующего.
func (s *storeOrderService) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// Cancel отменяет заказ покупателя: возврат остатков и смена статуса —
// одна атомарная единица.
func (s *storeOrderService) Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	var updated *domain.Order
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != actor.ID {
			return domain.ErrOrderNotFound
		}

		if err := order.CancelByCustomer(); err != nil {
			return err
		}

		for _, item := range order.Items {
			_, err := tx.Stock.PostStockDelta(ctx, repository.StockDeltaRequest{
				ProductID: item.ProductID,
				Type:      domain.StockIn,
				Quantity:  item.Quantity,
				Reason:    domain.ReasonOrderCanceled,
				OrderCode: order.OrderCode,
			})
			if err != nil {
				return err
			}
			metrics.RecordStockMovement(string(domain.StockIn))
		}

		if err := tx.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("ошибка сохранения отмены заказа: %w", err)
		}

		updated = order
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("Отмена заказа не выполнена")
		metrics.RecordOrder("myflower", "cancel", "error")
		return nil, err
	}

	metrics.RecordOrder("myflower", "cancel", "ok")
	s.effects.Notify(ctx, notify.OrderStatusChanged, updated.ID, map[string]string{
		"order_code": updated.OrderCode,
		"status":     string(updated.OrderStatus),
	})

	log.Info().Str("order_id", updated.ID).Msg("Заказ отменён покупателем")
	return updated, nil
}

// Confirm подтверждает получение заказа покупателем.
// Товар уже списан при оформлении, остатки не меняются.
func (s *storeOrderService) Confirm(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	var updated *domain.Order
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != actor.ID {
			return domain.ErrOrderNotFound
		}

		if err := order.ConfirmByCustomer(); err != nil {
			return err
		}

		if err := tx.Orders.Update(ctx, order); err != nil {
			return fmt.Errorf("ошибка сохранения подтверждения заказа: %w", err)
		}

		updated = order
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("Подтверждение заказа не выполнено")
		metrics.RecordOrder("myflower", "confirm", "error")
		return nil, err
	}

	metrics.RecordOrder("myflower", "confirm", "ok")
	s.effects.Notify(ctx, notify.OrderStatusChanged, updated.ID, map[string]string{
		"order_code": updated.OrderCode,
		"status":     string(updated.OrderStatus),
	})

	log.Info().Str("order_id", updated.ID).Msg("Получение заказа подтверждено покупателем")
	return updated, nil
}
