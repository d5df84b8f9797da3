package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"field-booking/internal/config"
	"field-booking/internal/logger"
	"field-booking/internal/models"

	"github.com/IBM/sarama"
)

// EventHandler обрабатывает одно доменное событие.
type EventHandler func(ctx context.Context, event *models.Event) error

// Consumer читает события из Kafka и раздает их по зарегистрированным
// обработчикам типов.
type Consumer struct {
	group    sarama.ConsumerGroup
	topics   []string
	groupID  string
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConsumer создает consumer group по конфигурации.
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		group:    group,
		topics:   []string{cfg.Topics.Bookings, cfg.Topics.Coupons},
		groupID:  cfg.GroupID,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// RegisterHandler регистрирует обработчик для типа события.
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = handler
}

// HandlerCount возвращает число зарегистрированных обработчиков.
func (c *Consumer) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Start запускает цикл потребления в фоне.
func (c *Consumer) Start() error {
	if c.group == nil {
		return fmt.Errorf("consumer group is not initialized")
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.group.Consume(c.ctx, c.topics, &consumerGroupHandler{consumer: c}); err != nil {
				c.log.WithError(err).Error("Kafka consume loop error")
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	c.log.WithField("topics", c.topics).Info("Kafka consumer started")
	return nil
}

// Stop останавливает потребление и закрывает группу.
func (c *Consumer) Stop() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

// processMessage декодирует сообщение и вызывает обработчик его типа.
func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	c.mu.RLock()
	handler, ok := c.handlers[event.Type]
	c.mu.RUnlock()

	if !ok {
		c.log.WithFields(map[string]interface{}{
			"type":  event.Type,
			"topic": msg.Topic,
		}).Debug("No handler registered for event type")
		return nil
	}

	if err := handler(c.ctx, &event); err != nil {
		return fmt.Errorf("handler failed for event %s: %w", event.ID, err)
	}

	return nil
}

// consumerGroupHandler адаптирует Consumer под sarama.ConsumerGroupHandler.
type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.consumer.processMessage(msg); err != nil {
			h.consumer.log.WithError(err).WithField("topic", msg.Topic).Error("Failed to process message")
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
