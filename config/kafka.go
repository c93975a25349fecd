package config

import (
	"fmt"
	"net"
	"pickem/utils"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// CreateActivityTopic creates the round activity topic if the broker is
// configured. Callers treat an error as non-fatal: the activity stream
// is best-effort.
func CreateActivityTopic() error {
	broker := Env().KafkaBroker
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer utils.Closer(conn)()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer utils.Closer(controllerConn)()

	topicConfig := kafka.TopicConfig{
		Topic:             Env().ActivityTopic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			{
				ConfigName:  "compression.type",
				ConfigValue: "zstd",
			},
			// 30 days retention
			{
				ConfigName:  "retention.ms",
				ConfigValue: "2592000000",
			},
		},
	}

	return controllerConn.CreateTopics(topicConfig)
}

// NewActivityWriter returns a writer for the activity topic, or nil when
// no broker is configured.
func NewActivityWriter() *kafka.Writer {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    Env().ActivityTopic,
		Balancer: &kafka.LeastBytes{},
	}
}
