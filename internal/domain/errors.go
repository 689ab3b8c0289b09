// Package domain содержит бизнес-сущности и доменные ошибки магазина цветов.
package domain

import "errors"

// Доменные ошибки.
// Используются для передачи бизнес-ошибок между слоями приложения;
// HTTP-слой маппит их на статус-коды.
var (
	// ErrOrderNotFound возвращается, когда заказ не найден в базе данных.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrProductNotFound возвращается, когда товар не найден или не активен.
	ErrProductNotFound = errors.New("товар не найден")

	// ErrCartItemNotFound возвращается, когда позиция корзины не найдена.
	ErrCartItemNotFound = errors.New("позиция корзины не найдена")

	// ErrCartEmpty возвращается при попытке оформить заказ из пустой корзины.
	ErrCartEmpty = errors.New("корзина пуста")

	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("пользователь не найден")

	// ErrEmptyOrderItems возвращается при попытке создать заказ без позиций.
	ErrEmptyOrderItems = errors.New("заказ должен содержать хотя бы одну позицию")

	// ErrInvalidQuantity возвращается, когда количество товара меньше или равно нулю.
	ErrInvalidQuantity = errors.New("количество должно быть больше нуля")

	// ErrInvalidPrice возвращается, когда цена товара меньше или равна нулю.
	ErrInvalidPrice = errors.New("цена должна быть больше нуля")

	// ErrProductNameRequired возвращается при пустом названии товара.
	ErrProductNameRequired = errors.New("название товара не может быть пустым")

	// ErrStockInsufficient возвращается, когда запрошенное количество превышает остаток.
	ErrStockInsufficient = errors.New("недостаточно товара на складе")

	// ErrProductInactive возвращается при попытке заказать деактивированный товар.
	ErrProductInactive = errors.New("товар снят с продажи")

	// ErrProductNameTaken возвращается при попытке создать товар с занятым названием.
	ErrProductNameTaken = errors.New("товар с таким названием уже существует")

	// ErrUserAlreadyExists возвращается при регистрации с занятым email или username.
	ErrUserAlreadyExists = errors.New("пользователь с такими данными уже существует")

	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("неверный логин или пароль")

	// ErrOrderNotInProcess возвращается, когда покупатель пытается отменить или
	// подтвердить заказ в финальном статусе.
	ErrOrderNotInProcess = errors.New("заказ уже завершён или отменён")

	// ErrDeliveryOptionMismatch возвращается при переводе самовывозного заказа
	// в статус доставки.
	ErrDeliveryOptionMismatch = errors.New("заказ с самовывозом нельзя перевести в доставку")

	// ErrOrderSourceMismatch возвращается, когда статус недопустим для канала,
	// из которого создан заказ.
	ErrOrderSourceMismatch = errors.New("статус недоступен для заказа из этого канала")

	// ErrDeliveryAddressRequired возвращается, когда для доставки не указан адрес.
	ErrDeliveryAddressRequired = errors.New("для доставки необходимо указать адрес")

	// ErrPaymentProofRequired возвращается, когда для безналичной оплаты
	// не приложено подтверждение платежа.
	ErrPaymentProofRequired = errors.New("для банковского перевода необходимо подтверждение оплаты")

	// ErrPaymentMethodRequired возвращается, когда заказ помечен оплаченным
	// без указания способа оплаты.
	ErrPaymentMethodRequired = errors.New("для оплаченного заказа необходимо указать способ оплаты")

	// ErrInvalidOrderStatus возвращается при неизвестном целевом статусе заказа.
	ErrInvalidOrderStatus = errors.New("некорректный статус заказа")

	// ErrForbidden возвращается, когда у пользователя нет прав на операцию.
	ErrForbidden = errors.New("недостаточно прав для выполнения операции")
)
