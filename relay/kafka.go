// Package relay forwards publications observed by a centrifuge.Client or
// centrifuge.Subscription into an external message broker, so a service can
// fan a channel's traffic out to consumers that don't speak the Centrifuge
// protocol themselves.
package relay

import (
	"github.com/IBM/sarama"
)

// KafkaRelay publishes every relayed publication to a Kafka topic, keyed by
// channel so a topic with multiple partitions preserves per-channel order.
type KafkaRelay struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaRelay builds a KafkaRelay backed by a synchronous producer dialed
// against brokers.
func NewKafkaRelay(brokers []string, topic string) (*KafkaRelay, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaRelay{producer: producer, topic: topic}, nil
}

// Relay publishes data under channel's key. Wire it up as:
//
//	sub.OnPublication(func(e centrifuge.PublicationEvent) {
//	    _ = relay.Relay(channel, e.Data)
//	})
func (r *KafkaRelay) Relay(channel string, data []byte) error {
	_, _, err := r.producer.SendMessage(&sarama.ProducerMessage{
		Topic: r.topic,
		Key:   sarama.StringEncoder(channel),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

// Close releases the underlying producer's connections.
func (r *KafkaRelay) Close() error {
	return r.producer.Close()
}
