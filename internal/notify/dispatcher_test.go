package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

type memStore struct {
	mu    sync.Mutex
	items []*model.Notification
	err   error
}

func (s *memStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, n)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func newNotification(userID string) *model.Notification {
	return &model.Notification{UserID: userID, Type: model.NotificationDocumentReviewed, Title: "t", Message: "m"}
}

func TestDispatcher_DeliversWhileRunning(t *testing.T) {
	store := &memStore{}
	d := NewDispatcher(store, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Send(context.Background(), newNotification("u-1"))
	d.Send(context.Background(), newNotification("u-2"))

	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if store.count() != 2 {
		t.Errorf("期望投递 2 条，实际: %d", store.count())
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	store := &memStore{}
	d := NewDispatcher(store, 4, zap.NewNop())

	for i := 0; i < 3; i++ {
		d.Send(context.Background(), newNotification("u-1"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if store.count() != 3 {
		t.Errorf("关闭时应写完队列中的 3 条，实际: %d", store.count())
	}
	if d.Pending() != 0 {
		t.Errorf("队列应为空，实际: %d", d.Pending())
	}
}

func TestDispatcher_SendNeverBlocks(t *testing.T) {
	d := NewDispatcher(&memStore{}, 1, zap.NewNop())
	before := testutil.ToFloat64(metrics.NotificationsDroppedTotal.WithLabelValues("queue_full"))

	d.Send(context.Background(), newNotification("u-1"))
	d.Send(context.Background(), newNotification("u-2")) // 队列已满

	if d.Pending() != 1 {
		t.Errorf("期望队列中 1 条，实际: %d", d.Pending())
	}
	after := testutil.ToFloat64(metrics.NotificationsDroppedTotal.WithLabelValues("queue_full"))
	if after-before != 1 {
		t.Errorf("期望丢弃计数 +1，实际: %v", after-before)
	}
}

func TestDispatcher_StoreErrorIsSwallowed(t *testing.T) {
	store := &memStore{err: errors.New("db down")}
	d := NewDispatcher(store, 2, zap.NewNop())
	before := testutil.ToFloat64(metrics.NotificationsDroppedTotal.WithLabelValues("store_error"))

	d.Send(context.Background(), newNotification("u-1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	after := testutil.ToFloat64(metrics.NotificationsDroppedTotal.WithLabelValues("store_error"))
	if after-before != 1 {
		t.Errorf("期望 store_error 计数 +1，实际: %v", after-before)
	}
}

func TestDispatcher_IgnoresNil(t *testing.T) {
	d := NewDispatcher(&memStore{}, 1, zap.NewNop())
	d.Send(context.Background(), nil)
	if d.Pending() != 0 {
		t.Errorf("nil 通知不应入队")
	}
}
