// Package filestore предоставляет доступ к удалённому хранилищу файлов.
// Используется для изображений товаров, подтверждений оплаты и фото
// готовых букетов. Ошибки хранилища не зависят от логики заказов.
package filestore

import "context"

// UploadResult — результат загрузки файла.
type UploadResult struct {
	URL      string // Публичная ссылка на файл
	RemoteID string // Идентификатор для последующего удаления
}

// FileStore определяет интерфейс удалённого хранилища файлов.
type FileStore interface {
	// Store загружает файл в указанную папку и возвращает ссылку
	// и идентификатор для удаления.
	Store(ctx context.Context, data []byte, folder, name string) (*UploadResult, error)

	// Delete удаляет файл по идентификатору.
	// Используется в том числе как компенсация при откате транзакции.
	Delete(ctx context.Context, remoteID string) error
}
