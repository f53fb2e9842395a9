// Package artifact публикует артефакты успешно завершённых jobs.
//
// Публикация — best-effort: отсутствие объявленного пути или ошибка
// копирования записываются как диагностики и статус job не меняют.
package artifact

import (
	"context"
	"errors"
)

// Ошибки публикации.
var (
	// ErrNotFound — объявленный путь артефакта не существует.
	ErrNotFound = errors.New("artifact path not found")
)

// Publisher — внешний коллаборатор хранения артефактов.
//
// Publish принимает путь, объявленный в определении job,
// и возвращает путь в хранилище.
type Publisher interface {
	Publish(ctx context.Context, jobName, path string) (string, error)
}
