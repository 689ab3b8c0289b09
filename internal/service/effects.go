// Package service содержит бизнес-логику магазина: заказы обоих каналов,
// каталог с остатками, корзины и аутентификацию.
package service

import (
	"context"
	"fmt"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/filestore"
	"example.com/flower-shop/internal/notify"
	"example.com/flower-shop/pkg/logger"
)

// Папки удалённого хранилища по типу файла.
const (
	folderPaymentProofs    = "payment-proofs"
	folderFinishedProducts = "finished-products"
	folderProducts         = "products"
)

// Effects — координатор нетранзакционных побочных эффектов вокруг
// атомарного ядра: загрузка файлов с компенсацией и уведомления.
//
// Порядок всегда один: файл загружается до транзакции, его идентификатор
// пишется внутри транзакции, при откате загруженный файл удаляется
// best-effort. Уведомления уходят только после коммита и не откатывают его.
type Effects struct {
	files    filestore.FileStore
	notifier notify.Notifier
}

// NewEffects создаёт координатор побочных эффектов.
func NewEffects(files filestore.FileStore, notifier notify.Notifier) *Effects {
	return &Effects{files: files, notifier: notifier}
}

// Upload загружает файл в удалённое хранилище до начала транзакции.
func (e *Effects) Upload(ctx context.Context, file *domain.FileUpload, folder, name string) (*filestore.UploadResult, error) {
	result, err := e.files.Store(ctx, file.Data, folder, name)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки файла %q: %w", file.Name, err)
	}
	return result, nil
}

// Compensate удаляет ранее загруженный файл после отката транзакции.
// Неудачная компенсация только логируется: повторов нет, заказ уже
// откатился и согласованность данных не нарушена.
func (e *Effects) Compensate(ctx context.Context, remoteID string) {
	if remoteID == "" {
		return
	}
	if err := e.files.Delete(ctx, remoteID); err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("remote_id", remoteID).
			Msg("Компенсация не удалась: загруженный файл остался в хранилище")
	}
}

// CleanupRemote удаляет замещённый или осиротевший файл после коммита.
// Ошибка логируется и не влияет на результат операции.
func (e *Effects) CleanupRemote(ctx context.Context, remoteID string) {
	if remoteID == "" {
		return
	}
	if err := e.files.Delete(ctx, remoteID); err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Str("remote_id", remoteID).
			Msg("Не удалось удалить файл из хранилища")
	}
}

// Notify отправляет уведомление после коммита. Fire-and-forget.
func (e *Effects) Notify(ctx context.Context, kind notify.Kind, orderID string, extra map[string]string) {
	e.notifier.Notify(ctx, kind, orderID, extra)
}
