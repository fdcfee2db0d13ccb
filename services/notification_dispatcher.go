package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/user"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []*user.DeviceToken, n *notification.Notification) error
}

// Notifier is what the domain services use to fire a push. Delivery is best
// effort and never reports back.
type Notifier interface {
	Notify(n *notification.Notification)
}

type DeviceTokenLister interface {
	ListDeviceTokens(ctx context.Context, userID string) ([]*user.DeviceToken, error)
}

// NotificationDispatcher delivers pushes on a small worker pool so request
// latency never depends on FCM.
type NotificationDispatcher struct {
	tokens       DeviceTokenLister
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(tokens DeviceTokenLister, provider PushNotificationProvider) *NotificationDispatcher {
	d := &NotificationDispatcher{
		tokens:       tokens,
		pushProvider: provider,
		workers:      5,
		jobQueue:     make(chan *notification.Notification, 100),
		stopChan:     make(chan struct{}),
	}
	d.startWorkers()
	return d
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.processJob(n)
		case <-d.stopChan:
			// drain what is already queued
			for {
				select {
				case n := <-d.jobQueue:
					d.processJob(n)
				default:
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) processJob(n *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.tokens.ListDeviceTokens(ctx, n.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Msg("failed to load device tokens")
		pushDeliveries.WithLabelValues("error").Inc()
		return
	}
	if len(tokens) == 0 || d.pushProvider == nil {
		log.Debug().Str("user_id", n.UserID).Int("tokens", len(tokens)).Msg("skipping push")
		pushDeliveries.WithLabelValues("skipped").Inc()
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, n); err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("push failed")
		pushDeliveries.WithLabelValues("failed").Inc()
		return
	}
	pushDeliveries.WithLabelValues("sent").Inc()
}

// Notify queues n without blocking. A full queue drops the push.
func (d *NotificationDispatcher) Notify(n *notification.Notification) {
	if n == nil || n.UserID == "" {
		return
	}
	select {
	case <-d.stopChan:
		log.Warn().Str("type", string(n.Type)).Msg("dispatcher stopped, push dropped")
		return
	default:
	}
	select {
	case d.jobQueue <- n:
	default:
		log.Warn().Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("push queue full, dropping notification")
		pushDeliveries.WithLabelValues("dropped").Inc()
	}
}

// Stop lets the workers finish the queue and waits for them.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Info().Msg("stopping notification dispatcher")
		close(d.stopChan)
		d.wg.Wait()
		log.Info().Msg("notification dispatcher stopped")
	})
}

// LogPushProvider only logs. Used when FCM is not configured.
type LogPushProvider struct{}

func (LogPushProvider) SendPush(ctx context.Context, tokens []*user.DeviceToken, n *notification.Notification) error {
	log.Info().Int("devices", len(tokens)).Str("user_id", n.UserID).Str("title", n.Title).Msg("push (log only)")
	return nil
}
