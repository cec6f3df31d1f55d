package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes reservation events to a durable RabbitMQ
// queue.  Each publish dials its own connection, so a broker restart never
// leaves the publisher holding a dead channel.
type RabbitPublisher struct {
    URL   string
    Queue string
}

// NewRabbitPublisher returns a publisher for queue on the broker at url.
func NewRabbitPublisher(url, queue string) *RabbitPublisher {
    return &RabbitPublisher{URL: url, Queue: queue}
}

// Publish sends ev as a persistent JSON message through the default
// exchange, routed by queue name.  Errors are returned so the caller can
// log them and carry on.
func (p *RabbitPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := declareQueue(ch, p.Queue); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

// declareQueue declares name as a durable, non-exclusive queue.  It is
// idempotent and shared by the publisher and the consumer.
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(
        name,  // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    )
    if err != nil {
        return q, fmt.Errorf("queue declare %s: %w", name, err)
    }
    return q, nil
}

// Discard drops every event.  It is used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, ReservationEvent) error { return nil }
