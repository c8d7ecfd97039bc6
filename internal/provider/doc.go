// Package provider — адаптеры социальных сетей.
//
// Provider описывает операции одной сети: публикация поста и комментариев,
// обновление токена и выполнение plug-ов. Registry хранит провайдеры
// по идентификатору.
//
// Bridge — реализация поверх HTTP bridge-сервиса. Сетевые ошибки, 429 и 5xx
// повторяются с экспоненциальной задержкой (failsafe-go). Отказы провайдера
// возвращаются как RejectionError:
//   - ErrRefreshNeeded — токен нужно обновить
//   - ErrBadBody       — содержимое отклонено, повтор бесполезен
package provider
