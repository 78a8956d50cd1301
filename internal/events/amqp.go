package events

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// AMQPClient publishes and consumes payment messages over RabbitMQ.
type AMQPClient struct {
	conn *amqp.Connection
}

func NewAMQPClient(url string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &AMQPClient{conn: conn}, nil
}

func (c *AMQPClient) Close() error { return c.conn.Close() }

func (c *AMQPClient) PublishPaymentRequest(ctx context.Context, req PaymentRequest) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(QueuePaymentRequests, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",                   // exchange
		QueuePaymentRequests, // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

// ConsumePaymentUpdates applies payment status updates from the payment
// worker until ctx is cancelled. Messages are acked only after the store
// write succeeds; duplicates (per dedup) and unprocessable updates are acked
// and dropped, transient store failures are requeued.
func (c *AMQPClient) ConsumePaymentUpdates(ctx context.Context, store OrderStore, dedup Dedup) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(QueuePaymentUpdates, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				handleUpdate(ctx, store, dedup, d)
			}
		}
	}()
	return nil
}

func handleUpdate(ctx context.Context, store OrderStore, dedup Dedup, d amqp.Delivery) {
	var update PaymentUpdate
	if err := json.Unmarshal(d.Body, &update); err != nil {
		log.Error().Err(err).Msg("events: failed to decode payment update")
		_ = d.Nack(false, false)
		return
	}

	if dedup != nil && update.EventID != "" {
		seen, err := dedup.Seen(ctx, update.EventID)
		if err != nil {
			log.Warn().Err(err).Str("event_id", update.EventID).Msg("events: dedup check failed, processing anyway")
		} else if seen {
			_ = d.Ack(false)
			return
		}
	}

	if err := store.ApplyPaymentUpdate(ctx, update.OrderID, update.PaymentStatus); err != nil {
		if errors.Is(err, ErrBadUpdate) {
			log.Error().Err(err).Int64("order_id", update.OrderID).Msg("events: dropping unprocessable payment update")
			_ = d.Ack(false)
			return
		}
		log.Error().Err(err).Int64("order_id", update.OrderID).Msg("events: failed to apply payment update")
		_ = d.Nack(false, true)
		return
	}

	// Mark only after the write, so a requeued delivery is retried instead of
	// being mistaken for a duplicate.
	if dedup != nil && update.EventID != "" {
		if err := dedup.Mark(ctx, update.EventID); err != nil {
			log.Warn().Err(err).Str("event_id", update.EventID).Msg("events: failed to record event id")
		}
	}

	log.Info().Int64("order_id", update.OrderID).Str("payment_status", update.PaymentStatus).Msg("payment update applied")
	_ = d.Ack(false)
}
