// Package dedupe — идемпотентные claim-ы в Redis.
//
// Activity с внешними побочными эффектами (уведомления, webhooks) может
// выполниться повторно после таймаута или рестарта worker-а. Перед эффектом
// activity захватывает ключ своего выполнения через Claim; повторная попытка
// с тем же ключом видит claim и пропускает эффект.
package dedupe
