// Package notify 审核结果通知的异步投递。
// 审核流程只把通知交给 Sink，持久化由后台 Dispatcher 完成，失败不回滚审核结果。
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

// Sink 通知接收方。Send 不阻塞，也不返回错误。
type Sink interface {
	Send(ctx context.Context, n *model.Notification)
}

// Store 通知持久化（由 NotificationRepository 实现）
type Store interface {
	Create(ctx context.Context, n *model.Notification) error
}

const defaultDeliverTimeout = 5 * time.Second

// Dispatcher 有界队列 + 单个投递协程
type Dispatcher struct {
	store   Store
	queue   chan *model.Notification
	logger  *zap.Logger
	timeout time.Duration
}

// NewDispatcher 创建 Dispatcher，buffer 为队列容量
func NewDispatcher(store Store, buffer int, logger *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		store:   store,
		queue:   make(chan *model.Notification, buffer),
		logger:  logger,
		timeout: defaultDeliverTimeout,
	}
}

// Send 入队；队列已满时丢弃并记录
func (d *Dispatcher) Send(_ context.Context, n *model.Notification) {
	if n == nil {
		return
	}
	select {
	case d.queue <- n:
		metrics.NotificationsQueued.Inc()
	default:
		metrics.NotificationsDroppedTotal.WithLabelValues("queue_full").Inc()
		d.logger.Warn("通知队列已满，丢弃通知",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
		)
	}
}

// Run 投递循环，阻塞直到 ctx 取消；退出前把队列中剩余的通知全部写完
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("通知投递协程已启动", zap.Int("buffer", cap(d.queue)))
	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("通知投递协程已停止")
			return
		case n := <-d.queue:
			metrics.NotificationsQueued.Dec()
			d.deliver(n)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case n := <-d.queue:
			metrics.NotificationsQueued.Dec()
			d.deliver(n)
		default:
			return
		}
	}
}

// deliver 使用独立的超时上下文，关闭阶段同样可以写入
func (d *Dispatcher) deliver(n *model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.store.Create(ctx, n); err != nil {
		metrics.NotificationsDroppedTotal.WithLabelValues("store_error").Inc()
		d.logger.Error("通知持久化失败",
			zap.String("user_id", n.UserID),
			zap.String("title", n.Title),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationsDeliveredTotal.Inc()
}

// Pending 队列中等待投递的数量
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}
