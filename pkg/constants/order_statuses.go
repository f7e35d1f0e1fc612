package constants

// --- СТАТУСЫ ЗАКАЗ-НАРЯДОВ ---
// Статус - свободная метка рабочего процесса. Сервер не проверяет переходы,
// константы ниже лишь задают значения, которые использует интерфейс мастерской.
const (
	OrderStatusNew        = "new"
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
)

// Способы оплаты, которые предлагает интерфейс.
const (
	PaymentCash     = "Наличные"
	PaymentCard     = "Картой"
	PaymentTransfer = "Перевод"
)
