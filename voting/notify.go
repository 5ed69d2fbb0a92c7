package voting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/logging"
)

// Notifier delivers outbound notices (SMS today). Delivery failure is
// never fatal to the voting operation that triggered it.
type Notifier interface {
	Send(ctx context.Context, contactRef, message string) error
}

type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string, string) error { return nil }

type notification struct {
	contactRef string
	message    string
}

// AsyncNotifier decouples delivery from the request path: Send enqueues
// onto a buffered channel consumed by a single worker goroutine and never
// blocks. A full buffer drops the notice with a warning.
type AsyncNotifier struct {
	inner Notifier
	ch    chan notification
	done  chan struct{}
}

func NewAsyncNotifier(inner Notifier, buffer int) *AsyncNotifier {
	n := &AsyncNotifier{
		inner: inner,
		ch:    make(chan notification, buffer),
		done:  make(chan struct{}),
	}
	go n.worker()
	return n
}

func (n *AsyncNotifier) worker() {
	defer close(n.done)
	for msg := range n.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := n.inner.Send(ctx, msg.contactRef, msg.message); err != nil {
			logging.Log.Warnf("NOTIFY: delivery to %s failed: %v", msg.contactRef, err)
		}
		cancel()
	}
}

func (n *AsyncNotifier) Send(_ context.Context, contactRef, message string) error {
	select {
	case n.ch <- notification{contactRef: contactRef, message: message}:
	default:
		logging.Log.Warnf("NOTIFY: queue full, dropping notice for %s", contactRef)
	}
	return nil
}

// Close stops the worker after draining queued notices.
func (n *AsyncNotifier) Close() {
	close(n.ch)
	<-n.done
}

// SMSNotifier posts to an mnotify-style SMS gateway.
type SMSNotifier struct {
	APIKey   string
	SenderID string
	BaseURL  string
	Client   *http.Client
}

func (s *SMSNotifier) Send(ctx context.Context, phoneNumber, message string) error {
	payload, err := json.Marshal(map[string]any{
		"recipient": []string{phoneNumber},
		"sender":    s.SenderID,
		"message":   message,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/sms/quick?key=%s", s.BaseURL, s.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
