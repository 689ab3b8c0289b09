package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/logger"
)

// CartService — корзина покупателя витрины myflower.
type CartService interface {
	// Add добавляет товар в корзину; повторное добавление
	// увеличивает количество.
	Add(ctx context.Context, actor domain.Actor, productID string, quantity int) (*domain.CartItem, error)

	// List возвращает корзину покупателя с товарами.
	List(ctx context.Context, actor domain.Actor) ([]*domain.CartItem, error)

	// UpdateQuantity устанавливает новое количество позиции.
	UpdateQuantity(ctx context.Context, actor domain.Actor, itemID string, quantity int) error

	// Increment увеличивает количество позиции на единицу.
	Increment(ctx context.Context, actor domain.Actor, itemID string) error

	// Decrement уменьшает количество позиции на единицу.
	// Позиция с количеством 1 удаляется из корзины.
	Decrement(ctx context.Context, actor domain.Actor, itemID string) error

	// Remove удаляет позицию из корзины.
	Remove(ctx context.Context, actor domain.Actor, itemID string) error

	// Clear очищает корзину покупателя.
	Clear(ctx context.Context, actor domain.Actor) error
}

// cartService — реализация CartService.
type cartService struct {
	repos *repository.Repositories
}

// NewCartService создаёт сервис корзин.
func NewCartService(repos *repository.Repositories) CartService {
	return &cartService{repos: repos}
}

// Add добавляет товар в корзину.
// Корзина принимает только активные товары; остаток проверяется
// при оформлении заказа, а не здесь.
func (s *cartService) Add(ctx context.Context, actor domain.Actor, productID string, quantity int) (*domain.CartItem, error) {
	log := logger.FromContext(ctx)

	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}

	item := &domain.CartItem{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repos.Carts.Upsert(ctx, item); err != nil {
		log.Error().Err(err).
			Str("user_id", actor.ID).
			Str("product_id", productID).
			Msg("Ошибка добавления товара в корзину")
		return nil, fmt.Errorf("ошибка добавления в корзину: %w", err)
	}

	item.Product = product
	log.Debug().
		Str("user_id", actor.ID).
		Str("product_id", productID).
		Int("quantity", item.Quantity).
		Msg("Товар добавлен в корзину")

	return item, nil
}

// List возвращает корзину покупателя.
func (s *cartService) List(ctx context.Context, actor domain.Actor) ([]*domain.CartItem, error) {
	items, err := s.repos.Carts.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения корзины: %w", err)
	}
	return items, nil
}

// UpdateQuantity устанавливает новое количество позиции.
// Чужая позиция неотличима от несуществующей.
func (s *cartService) UpdateQuantity(ctx context.Context, actor domain.Actor, itemID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	item, err := s.repos.Carts.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != actor.ID {
		return domain.ErrCartItemNotFound
	}

	return s.repos.Carts.UpdateQuantity(ctx, itemID, quantity)
}

// Increment увеличивает количество позиции на единицу.
func (s *cartService) Increment(ctx context.Context, actor domain.Actor, itemID string) error {
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	return s.repos.Carts.UpdateQuantity(ctx, itemID, item.Quantity+1)
}

// Decrement уменьшает количество позиции на единицу.
// Уменьшение единственной штуки удаляет позицию целиком.
func (s *cartService) Decrement(ctx context.Context, actor domain.Actor, itemID string) error {
	item, err := s.ownedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}

	if item.Quantity <= 1 {
		if err := s.repos.Carts.Delete(ctx, itemID); err != nil {
			return err
		}
		logger.Ctx(ctx).Debug().
			Str("user_id", actor.ID).
			Str("cart_item_id", itemID).
			Msg("Позиция удалена из корзины уменьшением количества")
		return nil
	}

	return s.repos.Carts.UpdateQuantity(ctx, itemID, item.Quantity-1)
}

// ownedItem возвращает позицию корзины текущего покупателя.
// Чужая позиция неотличима от несуществующей.
func (s *cartService) ownedItem(ctx context.Context, actor domain.Actor, itemID string) (*domain.CartItem, error) {
	item, err := s.repos.Carts.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != actor.ID {
		return nil, domain.ErrCartItemNotFound
	}
	return item, nil
}

// Remove удаляет позицию из корзины.
func (s *cartService) Remove(ctx context.Context, actor domain.Actor, itemID string) error {
	item, err := s.repos.Carts.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != actor.ID {
		return domain.ErrCartItemNotFound
	}

	return s.repos.Carts.Delete(ctx, itemID)
}

// Clear очищает корзину покупателя.
func (s *cartService) Clear(ctx context.Context, actor domain.Actor) error {
	return s.repos.Carts.ClearByUser(ctx, actor.ID)
}
