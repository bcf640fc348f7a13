// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/makshevelkin/MIPTORENT/internal/queue"
)

// PublishMail publishes a MailEvent to the mail.outbound queue.  The
// function never panics; any error is logged and returned so callers
// can choose to ignore it, since a lost email must never fail the HTTP
// request that triggered it.  Messages are marked persistent.
func PublishMail(ctx context.Context, event q.MailEvent) error {
    if event.QueuedAt == "" {
        event.QueuedAt = time.Now().UTC().Format(time.RFC3339)
    }

    conn, err := amqp.Dial(q.BrokerURL())
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.MailQueueName, // name
        true,            // durable
        false,           // autoDelete
        false,           // exclusive
        false,           // noWait
        nil,             // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",              // default exchange
        q.MailQueueName, // routing key = queue name
        false,           // mandatory
        false,           // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }

    return nil
}
