package notifier

const messageConfirmation = "confirmation"

// Message сообщение в очереди уведомлений, формат понимает бот WhatsApp
type Message struct {
	Message string        `json:"message"`
	Detail  MessageDetail `json:"detail"`
}

// MessageDetail адресат и код
type MessageDetail struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
