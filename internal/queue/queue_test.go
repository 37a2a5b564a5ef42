package queue

import (
	"testing"

	"github.com/lumipure-api/internal/config"

	"github.com/hibiken/asynq"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderStatusEmail(OrderStatusEmailPayload{OrderID: 1, Status: "shipped"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should be disabled")
	}
	if err := nilClient.EnqueueOrderStatusEmail(OrderStatusEmailPayload{OrderID: 1}); err != nil {
		t.Fatalf("nil client enqueue should be a no-op, got %v", err)
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, serverCfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || serverCfg.Concurrency != 10 || serverCfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected defaults %+v %+v", opt, serverCfg)
	}

	opt, serverCfg = BuildServerConfig(&config.QueueConfig{
		Host:        " redis ",
		Port:        6380,
		Password:    "pw",
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{"critical": 5, "default": 1},
	})
	if opt.Addr != "redis:6380" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt %+v", opt)
	}
	if serverCfg.Concurrency != 4 || serverCfg.Queues["critical"] != 5 {
		t.Fatalf("unexpected server config %+v", serverCfg)
	}
}

func TestOrderStatusEmailTaskPayload(t *testing.T) {
	task, err := NewOrderStatusEmailTask(OrderStatusEmailPayload{OrderID: 7, Status: "delivered", Note: "left at door"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderStatusEmail {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	payload, err := ParseOrderStatusEmailPayload(task)
	if err != nil || payload.OrderID != 7 || payload.Note != "left at door" {
		t.Fatalf("unexpected payload %+v err=%v", payload, err)
	}
	if _, err := ParseOrderStatusEmailPayload(asynq.NewTask(TaskOrderStatusEmail, []byte("{"))); err == nil {
		t.Fatalf("malformed payload should fail")
	}
	if len(orderStatusEmailOptions("")) != 4 {
		t.Fatalf("expected queue, retry, timeout and unique options")
	}
}
