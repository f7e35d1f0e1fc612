// pkg/constants/constants.go
package constants

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis/кеше.
const (
	// Ключ, указывающий, что логин заблокирован из-за неудачных попыток входа.
	// Формат: lockout:<login> -> "locked"
	CacheKeyLockout = "lockout:%s"

	// Ключ для подсчета неудачных попыток входа.
	// Формат: login_attempts:<login> -> count
	CacheKeyLoginAttempts = "login_attempts:%s"
)

//============== ID PREFIXES ==============

// Префиксы сгенерированных идентификаторов. Формат сохранён для совместимости
// с данными, созданными прежней версией сервера.
const (
	ClientIDPrefix = "client-"
	OrderIDPrefix  = "ord-"
	SearchIDPrefix = "search-"
	WeekIDPrefix   = "week-"
)

//============== LIMITS ==============

const (
	// SearchResultsLimit - максимум клиентов в ответе на поиск.
	SearchResultsLimit = 10
	// SearchHistoryLimit - сколько последних запросов пользователя отдаём.
	SearchHistoryLimit = 10
	// SearchLogMinLength - запросы короче (после TrimSpace) не пишутся в историю.
	SearchLogMinLength = 2
)

// DefaultNewClientName используется, когда клиент создаётся из заказ-наряда без имени.
const DefaultNewClientName = "Новый клиент"
