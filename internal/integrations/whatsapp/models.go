package whatsapp

import (
	"fmt"
	"strings"
)

const chatSuffix = "@c.us"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// SendMessageRequest тело запроса sendMessage
type SendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// SendMessageResponse ответ шлюза
type SendMessageResponse struct {
	IDMessage string `json:"idMessage"`
}

var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// ChatID переводит номер телефона в идентификатор чата WhatsApp.
// Локальные префиксы: 0XXX -> 996XXX, 8XXX -> 7XXX.
func ChatID(phone string) string {
	clean := phoneCleaner.Replace(phone)
	if strings.HasSuffix(clean, chatSuffix) {
		return clean
	}

	clean = strings.TrimPrefix(clean, "+")
	switch {
	case strings.HasPrefix(clean, "0"):
		clean = "996" + clean[1:]
	case strings.HasPrefix(clean, "8"):
		clean = "7" + clean[1:]
	}

	return clean + chatSuffix
}

// ConfirmationText текст сообщения с кодом
func ConfirmationText(code string) string {
	return fmt.Sprintf("Код подтверждения записи: %s", code)
}

// MaskPhone скрывает середину номера для логов
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
