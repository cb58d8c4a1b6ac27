package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/quizzy-ai/quizzy/internal/config"
)

// KafkaWriter publishes cloud events to a Kafka topic using a sync producer.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

func NewKafkaWriter(cfg *config.Config) (*KafkaWriter, error) {
	saramaConfig := cfg.Service.Kafka.SaramaConfig
	if saramaConfig == nil {
		saramaConfig = sarama.NewConfig()
		saramaConfig.Version = cfg.Service.Kafka.Version
		saramaConfig.ClientID = cfg.Service.Kafka.ClientID
		saramaConfig.Producer.Return.Successes = true
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	}

	producer, err := sarama.NewSyncProducer(cfg.Service.Kafka.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	return &KafkaWriter{producer: producer}, nil
}

func (w *KafkaWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, _, err = w.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.ID()),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (w *KafkaWriter) Close(_ context.Context) error {
	return w.producer.Close()
}
