package kafka

import (
	"encoding/json"
	"fmt"

	"field-booking/internal/config"
	"field-booking/internal/logger"
	"field-booking/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронный producer.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Successfully connected to Kafka")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает producer.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publishEvent сериализует событие и отправляет его в топик.
func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"type":      event.Type,
	}).Debug("Event published")

	return nil
}

// PublishBookingCreated публикует событие о создании брони.
func (p *Producer) PublishBookingCreated(booking *models.Booking) error {
	event := models.NewEvent(models.EventTypeBookingCreated, map[string]interface{}{
		"booking_id":  booking.BookingID,
		"field_no":    booking.FieldNo,
		"date":        booking.Date,
		"duration_h":  booking.DurationH,
		"price_total": booking.PriceTotal,
		"source":      booking.Source,
	})
	return p.publishEvent(p.topics.Bookings, *event)
}

// PublishBookingUpdated публикует событие об изменении брони.
func (p *Producer) PublishBookingUpdated(booking *models.Booking) error {
	event := models.NewEvent(models.EventTypeBookingUpdated, map[string]interface{}{
		"booking_id":  booking.BookingID,
		"field_no":    booking.FieldNo,
		"date":        booking.Date,
		"duration_h":  booking.DurationH,
		"price_total": booking.PriceTotal,
		"has_promo":   booking.HasPromo,
	})
	return p.publishEvent(p.topics.Bookings, *event)
}

// PublishCouponReleased публикует событие о возврате купона клиенту.
func (p *Producer) PublishCouponReleased(redemptionID uuid.UUID, bookingID string) error {
	event := models.NewEvent(models.EventTypeCouponReleased, map[string]interface{}{
		"redemption_id": redemptionID.String(),
		"booking_id":    bookingID,
	})
	return p.publishEvent(p.topics.Coupons, *event)
}

// PublishPromoBurned публикует событие о сжигании легаси-промокода.
func (p *Producer) PublishPromoBurned(code, bookingID string) error {
	event := models.NewEvent(models.EventTypePromoBurned, map[string]interface{}{
		"code":       code,
		"booking_id": bookingID,
	})
	return p.publishEvent(p.topics.Coupons, *event)
}
