package models

// Incoming — сырое сообщение из канала-источника.
// Фильтрация "этот чат вообще отслеживается" происходит выше.
type Incoming struct {
	ChatID    int64
	MessageID int
	Text      string
}

// HistoryMessage — элемент истории для бэкафилла.
type HistoryMessage struct {
	MessageID int
	Text      string
}
