package mandelseed

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/everFinance/mandelseed/schema"
	"github.com/segmentio/kafka-go"
)

const (
	TokenTopic = "mandelseed_token"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(ctx context.Context, key, body []byte) error {
	return kw.w.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: body,
		},
	)
}

// Publish writes event keyed by token id, so one token's events stay ordered.
func (kw *KWriter) Publish(ctx context.Context, event schema.KafkaTokenResolved) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return kw.Write(ctx, []byte(strconv.FormatUint(event.TokenId, 10)), body)
}

func (kw *KWriter) Close() error {
	return kw.w.Close()
}
