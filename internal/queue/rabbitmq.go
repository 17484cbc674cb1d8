package queue

import (
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

func NewRabbitMQClient(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}
	return conn, nil
}

func NewChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel :%v", err)
	}
	return ch, nil
}

func IsFatalError(err error) bool {
	errorStr := strings.ToLower(err.Error())

	if strings.Contains(errorStr, "connection closed") || strings.Contains(errorStr, "channel closed") {
		return true
	}
	if strings.Contains(errorStr, "access refused") || strings.Contains(errorStr, "not_allowed") {
		return true
	}
	return false
}
