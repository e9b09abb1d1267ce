package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Domenick1991/tourplanner/internal/kafka"
	"github.com/Domenick1991/tourplanner/internal/rabbitmq"
	kafkago "github.com/segmentio/kafka-go"
)

// KafkaTransport sends events to one topic. Each instance reads it with its
// own consumer group, so every instance sees every event.
type KafkaTransport struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	topic    string
}

func NewKafkaTransport(producer *kafka.Producer, consumer *kafka.Consumer, topic string) *KafkaTransport {
	return &KafkaTransport{producer: producer, consumer: consumer, topic: topic}
}

func (t *KafkaTransport) Send(ctx context.Context, ev Event) error {
	return t.producer.Publish(ctx, t.topic, string(ev.Channel), ev)
}

func (t *KafkaTransport) Receive(ctx context.Context, handle func(Event)) error {
	return t.consumer.Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
		ev, err := decodeEvent(msg.Value)
		if err != nil {
			log.Printf("[relay] skipping kafka message at offset %d: %v", msg.Offset, err)
			return nil
		}
		handle(ev)
		return nil
	})
}

func (t *KafkaTransport) Close() error {
	perr := t.producer.Close()
	cerr := t.consumer.Close()
	if perr != nil {
		return perr
	}
	return cerr
}

// AMQPTransport sends events through a fanout exchange.
type AMQPTransport struct {
	client *rabbitmq.Client
}

func NewAMQPTransport(client *rabbitmq.Client) *AMQPTransport {
	return &AMQPTransport{client: client}
}

func (t *AMQPTransport) Send(ctx context.Context, ev Event) error {
	return t.client.Publish(ctx, string(ev.Channel), ev)
}

func (t *AMQPTransport) Receive(ctx context.Context, handle func(Event)) error {
	return t.client.Consume(ctx, func(body []byte) error {
		ev, err := decodeEvent(body)
		if err != nil {
			return err
		}
		handle(ev)
		return nil
	})
}

func (t *AMQPTransport) Close() error {
	return t.client.Close()
}

func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if ev.Channel == "" {
		return Event{}, fmt.Errorf("decode change event: channel missing")
	}
	return ev, nil
}

var (
	_ Transport = (*KafkaTransport)(nil)
	_ Transport = (*AMQPTransport)(nil)
)
