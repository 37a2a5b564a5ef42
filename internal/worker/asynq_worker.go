package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/provider"
	"github.com/lumipure-api/internal/queue"
	"github.com/lumipure-api/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderStatusEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if !c.EmailService.Enabled() {
		logger.Debugw("worker_order_status_email_skip_disabled", "order_id", payload.OrderID)
		return nil
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	user := order.User
	if user == nil {
		user, err = c.UserRepo.GetByID(order.UserID)
		if err != nil {
			logger.Warnw("worker_order_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
			return err
		}
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_number", order.OrderNumber)
		return nil
	}

	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.OrderStatus
	}
	input := service.OrderStatusEmailInput{
		OrderNumber:  order.OrderNumber,
		CustomerName: user.Name,
		Status:       status,
		Note:         payload.Note,
		Total:        order.TotalPrice,
		Items:        order.Items,
	}
	if err := c.EmailService.SendOrderStatusEmail(strings.TrimSpace(user.Email), input); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) || errors.Is(err, service.ErrEmailRecipientRejected) {
			logger.Warnw("worker_order_status_email_receiver_rejected", "order_id", order.ID, "order_number", order.OrderNumber, "error", err)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"receiver_email", user.Email,
			"status", status,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_order_status_email_sent", "order_id", order.ID, "order_number", order.OrderNumber, "status", status)
	return nil
}
