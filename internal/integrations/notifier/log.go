package notifier

import "context"

// LogNotifier пишет код в лог вместо отправки. Для локального запуска без брокера.
type LogNotifier struct {
	log Logger
}

// NewLogNotifier создает notifier, который только логирует
func NewLogNotifier(log Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendConfirmationCode пишет код на уровне debug
func (n *LogNotifier) SendConfirmationCode(ctx context.Context, phone, code string) error {
	n.log.Debug("Notifier: confirmation code for %s: %s", phone, code)
	return nil
}

// Close ничего не делает
func (n *LogNotifier) Close() error {
	return nil
}
