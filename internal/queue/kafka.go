package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    "github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes reservation events to a Kafka topic keyed by
// reservation id, so all events of one reservation land on one partition
// in order.
type KafkaPublisher struct {
    Writer *kafka.Writer
}

// NewKafkaWriter builds a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
    return &kafka.Writer{
        Addr:         kafka.TCP(brokers...),
        Topic:        topic,
        Balancer:     &kafka.Hash{},
        RequiredAcks: kafka.RequireAll,
        BatchTimeout: 10 * time.Millisecond,
    }
}

// NewKafkaPublisher wraps writer.
func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
    return &KafkaPublisher{Writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    return p.Writer.WriteMessages(ctx, kafka.Message{
        Key:   []byte(strconv.FormatUint(ev.ReservationID, 10)),
        Value: body,
        Headers: []kafka.Header{
            {Key: "type", Value: []byte(ev.Type)},
        },
    })
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error { return p.Writer.Close() }
