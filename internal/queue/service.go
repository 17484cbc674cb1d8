package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mahirjain10/imagsharp/internal/types"
	"github.com/mahirjain10/imagsharp/internal/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const routingKey = "status"

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMqService publishes one status message per settled job.
type RabbitMqService struct {
	mu       sync.Mutex
	channel  Channel
	exchange string
	runId    string
	closed   bool
}

func NewRabbitMqService(channel Channel, exchange string, runId string) (*RabbitMqService, error) {
	service := &RabbitMqService{channel: channel, exchange: exchange, runId: runId}
	if err := service.declareExchange(); err != nil {
		return nil, err
	}
	return service, nil
}

func (rabbitMqService *RabbitMqService) declareExchange() error {
	err := rabbitMqService.channel.ExchangeDeclare(
		rabbitMqService.exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("error while declaring an exchange: %w", err)
	}
	return nil
}

// Publish sends the status of result. amqp channels are not safe for
// concurrent publishing, so calls are serialized.
func (rabbitMqService *RabbitMqService) Publish(ctx context.Context, result types.JobResult) error {
	statusMessage := utils.InitStatusMessage(utils.InitStatusData(rabbitMqService.runId, result))
	serializedMessage, err := utils.SerializeJSON(statusMessage)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rabbitMqService.mu.Lock()
	defer rabbitMqService.mu.Unlock()
	if rabbitMqService.closed {
		return fmt.Errorf("status channel is closed")
	}

	err = rabbitMqService.channel.PublishWithContext(ctx,
		rabbitMqService.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        serializedMessage,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	log.WithField("status", statusMessage.Data.Status).Debugf("published status for %s", result.Job.SourcePath)
	return nil
}

func (rabbitMqService *RabbitMqService) Close() error {
	rabbitMqService.mu.Lock()
	defer rabbitMqService.mu.Unlock()
	if rabbitMqService.closed {
		return nil
	}
	rabbitMqService.closed = true
	return rabbitMqService.channel.Close()
}
