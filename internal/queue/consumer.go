package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Logger is the subset of github.com/labstack/gommon/log used by the consumer.
type Logger interface {
    Infof(format string, args ...interface{})
    Warnf(format string, args ...interface{})
}

// AuditConsumer drains the reservation event queue into an append-only
// audit file, one line per event.
type AuditConsumer struct {
    URL    string
    Queue  string
    LogDir string
    Log    Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures trigger a reconnect with exponential backoff capped at 30s.
// Messages that cannot be handled are rejected without requeue so a bad
// payload cannot spin the loop.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warnf("audit-consumer: dial failed: %v; retrying in %s", err, backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warnf("audit-consumer: consume loop ended: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warnf("audit-consumer: set QoS failed: %v", err)
    }
    if _, err := declareQueue(ch, c.Queue); err != nil {
        return err
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.Log.Warnf("audit-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handle appends one audit line for a reservation event.
func (c *AuditConsumer) handle(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event without type or reservation id")
    }
    if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.LogDir, "reservation.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders ev as a single human-friendly log line.
func FormatAuditLine(ev ReservationEvent) string {
    line := fmt.Sprintf("[%s] %s | reservation_id=%d | user_id=%d | table_id=%d | status=%s | pay_status=%s | total=%d cents",
        ev.OccurredAt, ev.Type, ev.ReservationID, ev.UserID, ev.TableID, ev.Status, ev.PayStatus, ev.TotalCents)
    if ev.PreviousStatus != "" {
        line += " | previous_status=" + ev.PreviousStatus
    }
    if ev.PreviousTableID != 0 {
        line += fmt.Sprintf(" | previous_table_id=%d", ev.PreviousTableID)
    }
    if ev.DepositCents > 0 {
        line += fmt.Sprintf(" | deposit=%d cents", ev.DepositCents)
    }
    return line + "\n"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
