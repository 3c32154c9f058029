package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StockReplenisher applies warehouse restocks to the catalog.
type StockReplenisher interface {
	Restock(ctx context.Context, productID int64, quantity int) (*domain.Product, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultProcessAttempts = 3
	defaultRetryBackoff    = 500 * time.Millisecond
)

// errMalformedEvent marks messages that no retry can fix.
var errMalformedEvent = errors.New("malformed inventory event")

// KafkaConsumer reads StockReplenishedEvent messages. A message is committed
// only once it is settled: either the restock was applied or the message was
// written to the dead-letter topic.
type KafkaConsumer struct {
	reader      messageReader
	deadLetter  messageWriter
	replenisher StockReplenisher
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewKafkaConsumer(brokers []string, topic, deadLetterTopic, groupID string, replenisher StockReplenisher, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})

	deadLetter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        deadLetterTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaConsumer{
		reader:      reader,
		deadLetter:  deadLetter,
		replenisher: replenisher,
		logger:      logger,
		maxAttempts: defaultProcessAttempts,
		backoff:     defaultRetryBackoff,
	}
}

func (kc *KafkaConsumer) Start(ctx context.Context) {
	ctx, kc.cancel = context.WithCancel(ctx)
	kc.done = make(chan struct{})

	kc.logger.Info("Kafka consumer started")
	go kc.consume(ctx)
}

func (kc *KafkaConsumer) consume(ctx context.Context) {
	defer close(kc.done)

	for {
		msg, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				kc.logger.Info("Kafka consumer stopped")
				return
			}
			kc.logger.Error("Error reading message", zap.Error(err))
			continue
		}

		// 정산되지 않은 메시지는 커밋하지 않고 종료, 재시작 시 다시 전달됨
		if err := kc.settle(ctx, msg); err != nil {
			kc.logger.Info("Kafka consumer stopped before settling message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			return
		}

		if err := kc.reader.CommitMessages(ctx, msg); err != nil {
			kc.logger.Error("Error committing message", zap.Error(err))
		}
	}
}

// settle applies msg, retrying transient failures, and dead-letters it when
// it cannot be applied. It returns an error only when ctx ends first.
func (kc *KafkaConsumer) settle(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= kc.maxAttempts; attempt++ {
		if err = kc.processMessage(ctx, msg); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errMalformedEvent) {
			break
		}
		kc.logger.Warn("Error processing message, retrying",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt))
		if attempt < kc.maxAttempts {
			if werr := wait(ctx, kc.backoff); werr != nil {
				return werr
			}
		}
	}

	kc.logger.Error("Error processing message, sending to dead letter topic",
		zap.Error(err),
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))

	dead := deadLetterMessage(msg, err)
	for {
		derr := kc.deadLetter.WriteMessages(ctx, dead)
		if derr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		kc.logger.Error("Error writing dead letter message",
			zap.Error(derr),
			zap.Int64("offset", msg.Offset))
		if werr := wait(ctx, kc.backoff); werr != nil {
			return werr
		}
	}
}

// deadLetterMessage copies msg and records where it came from and why it failed.
func deadLetterMessage(msg kafka.Message, cause error) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq-error", Value: []byte(cause.Error())},
		kafka.Header{Key: "dlq-source-topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq-source-partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq-source-offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event StockReplenishedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if event.Quantity <= 0 {
		return fmt.Errorf("%w: event %s has non-positive quantity %d", errMalformedEvent, event.EventID, event.Quantity)
	}

	product, err := kc.replenisher.Restock(ctx, event.ProductID, event.Quantity)
	if err != nil {
		return fmt.Errorf("restock of product %d failed: %w", event.ProductID, err)
	}

	kc.logger.Info("Stock replenished",
		zap.String("event_id", event.EventID),
		zap.Int64("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity),
		zap.Int("new_stock", product.Stock))

	return nil
}

// Stop cancels the consume loop, waits for it to exit and closes the reader
// and the dead-letter writer.
func (kc *KafkaConsumer) Stop() error {
	kc.logger.Info("Stopping Kafka consumer")
	if kc.cancel != nil {
		kc.cancel()
		<-kc.done
	}
	err := kc.reader.Close()
	if kc.deadLetter != nil {
		err = errors.Join(err, kc.deadLetter.Close())
	}
	return err
}
