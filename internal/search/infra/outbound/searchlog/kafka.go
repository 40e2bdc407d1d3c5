package searchlog

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// messageWriter es la parte de *kafka.Writer que usamos.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaRecorder publica cada búsqueda como un mensaje JSON, con el modelo como clave.
type KafkaRecorder struct {
	writer messageWriter
	log    *zap.Logger
}

func NewKafkaRecorder(writer messageWriter, log *zap.Logger) *KafkaRecorder {
	return &KafkaRecorder{writer: writer, log: log}
}

// NewKafkaWriter crea el writer para el topic de búsquedas.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func (r *KafkaRecorder) Record(ctx context.Context, records []searchDomain.SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.PartitionKey()),
			Value: data,
		})
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		r.log.Error("Error publishing search records to Kafka", zap.Int("count", len(msgs)), zap.Error(err))
		return err
	}

	r.log.Debug("Search records published", zap.Int("count", len(msgs)))
	return nil
}

// Verificación estática
var _ searchDomain.SearchRecorder = (*KafkaRecorder)(nil)
