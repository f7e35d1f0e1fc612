package websocket

import (
	"encoding/json"
	"time"
)

// Типы сообщений сервер -> клиент.
const (
	TypeInitialData          = "initialData"
	TypeDataUpdate           = "dataUpdate"
	TypeClientSearchResults  = "clientSearchResults"
	TypeSearchHistoryResults = "searchHistoryResults"
	TypeServerError          = "serverError"
)

// Envelope - это "конверт", в котором мы отправляем наши сообщения.
// Тип сообщения позволяет фронтенду понять, что делать с Payload.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Inbound - команда от клиента: {"type": "addOrder", "payload": {...}}.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode сериализует конверт один раз, дальше байты раздаются всем соединениям.
func Encode(messageType string, payload interface{}, now time.Time) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: now.UTC(),
	})
}
