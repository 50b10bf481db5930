package kafka_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot/go-backend/internal/cfg"
	infraKafka "github.com/stockpilot/go-backend/internal/infrastructure/kafka"
	"github.com/stockpilot/go-backend/pkg/logger"
)

func newTestProducer(t *testing.T, broker string) *infraKafka.Producer {
	t.Helper()
	p, err := infraKafka.NewProducer(logger.NewSlogLogger(), &cfg.KafkaCfg{
		Topic:             "product-events",
		Brokers:           []string{broker},
		NetworkMode:       "tcp",
		Partitions:        1,
		ReplicationFactor: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestProducer_EnsureTopicBrokerUnreachable(t *testing.T) {
	// Занимаем порт и сразу отпускаем: по этому адресу никто не слушает.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := newTestProducer(t, addr)
	require.Error(t, p.EnsureTopic(time.Second))
}

func TestProducer_EnsureTopicBrokenConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Сервер рвёт соединение сразу после accept: и ReadPartitions,
	// и CreateTopics завершаются ошибкой, не дожидаясь таймаута.
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := newTestProducer(t, ln.Addr().String())

	done := make(chan error, 1)
	go func() {
		done <- p.EnsureTopic(5 * time.Second)
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("EnsureTopic did not return on broken connection")
	}
}
