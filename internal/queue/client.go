package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	orderStatusEmailMaxRetry = 5
	orderStatusEmailTimeout  = 30 * time.Second
	// 同一订单同一状态在窗口内只投递一次，吸收重复提交
	orderStatusEmailUniqueTTL = time.Minute
)

// Client 订单通知任务的投递端，未启用队列时所有投递静默跳过
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{queue: DefaultQueue}, nil
	}
	return &Client{
		client: asynq.NewClient(buildRedisOpt(cfg)),
		queue:  DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderStatusEmail 投递订单状态邮件，窗口内的重复投递视为成功
func (c *Client) EnqueueOrderStatusEmail(payload OrderStatusEmailPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderStatusEmailTask(payload)
	if err != nil {
		return err
	}
	options := append(orderStatusEmailOptions(c.queue), opts...)
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func orderStatusEmailOptions(queue string) []asynq.Option {
	if strings.TrimSpace(queue) == "" {
		queue = DefaultQueue
	}
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(orderStatusEmailMaxRetry),
		asynq.Timeout(orderStatusEmailTimeout),
		asynq.Unique(orderStatusEmailUniqueTTL),
	}
}

// BuildServerConfig 生成 worker 端的 Redis 连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: net.JoinHostPort("127.0.0.1", "6379")}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
