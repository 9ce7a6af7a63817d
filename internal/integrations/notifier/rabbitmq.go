package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-AppointmentService/pkg/tracing"
)

// RabbitMQ публикует коды подтверждения в очередь, откуда их забирает бот
type RabbitMQ struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	timeout time.Duration
	log     Logger
}

// Dial подключается к брокеру и объявляет очередь
func Dial(url, queue string, timeout time.Duration, log Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: failed to open channel: %v", ErrConnect, err)
	}

	// Очередь долговечная: коды не должны теряться при рестарте брокера
	if _, err := channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("%w: failed to declare queue: %v", ErrConnect, err)
	}

	r := NewRabbitMQ(channel, queue, timeout, log)
	r.conn = conn
	return r, nil
}

// NewRabbitMQ создает публикатор поверх готового канала
func NewRabbitMQ(channel Channel, queue string, timeout time.Duration, log Logger) *RabbitMQ {
	return &RabbitMQ{
		channel: channel,
		queue:   queue,
		timeout: timeout,
		log:     log,
	}
}

// SendConfirmationCode кладёт код в очередь
func (r *RabbitMQ) SendConfirmationCode(ctx context.Context, phone, code string) error {
	body, err := json.Marshal(Message{
		Message: messageConfirmation,
		Detail:  MessageDetail{Phone: phone, Code: code},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	headers := amqp.Table{}
	for k, v := range tracing.InjectMap(ctx) {
		headers[k] = v
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	r.log.Info("Notifier: confirmation code queued to %s", r.queue)
	return nil
}

// Close закрывает канал и соединение
func (r *RabbitMQ) Close() error {
	var errs []error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}

	return nil
}
