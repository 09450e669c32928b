// internal/notifications/pushover.go - Pushover delivery for alert events
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"hostguard/internal/alerting"
	"hostguard/internal/config"
)

const (
	PushoverAPIURL = "https://api.pushover.net/1/messages.json"
	UserAgent      = "hostguard/1.0"
)

// PushoverMessage is the payload sent to the Pushover API
type PushoverMessage struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Title     string `json:"title,omitempty"`
	Priority  int    `json:"priority,omitempty"`
	Sound     string `json:"sound,omitempty"`
	Device    string `json:"device,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// PushoverResponse is the API response
type PushoverResponse struct {
	Status int      `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

// Service pushes alert events to Pushover, throttled so a host pinned
// above a threshold does not page on every tick. Delivery here is
// best-effort; the durable sinks are the system of record.
type Service struct {
	config     *config.NotificationConfig
	httpClient *http.Client

	mu   sync.Mutex
	sent []time.Time
}

func NewService(cfg *config.NotificationConfig) *Service {
	return &Service{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Service) Enabled() bool {
	return s.config.Enabled && s.config.Pushover.Enabled
}

// Notify sends one alert event. Failures are logged and swallowed: push
// delivery must never disturb the alerting core.
func (s *Service) Notify(event alerting.AlertEvent) {
	if !s.Enabled() {
		return
	}
	if !s.allow(time.Now()) {
		logrus.WithField("metric", event.Metric).Debug("Pushover notification throttled")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.send(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"metric":   event.Metric,
			"observed": event.Observed,
		}).Error("Pushover notification failed")
		return
	}

	logrus.WithField("metric", event.Metric).Debug("Pushover notification sent")
}

// allow applies the sliding-window throttle.
func (s *Service) allow(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	throttle := s.config.Pushover.Throttle
	cutoff := now.Add(-throttle.Window)

	kept := s.sent[:0]
	for _, t := range s.sent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.sent = kept

	if len(s.sent) >= throttle.MaxPerWindow {
		return false
	}
	s.sent = append(s.sent, now)
	return true
}

func (s *Service) send(ctx context.Context, event alerting.AlertEvent) error {
	po := s.config.Pushover
	msg := PushoverMessage{
		Token:     po.APIToken,
		User:      po.UserKey,
		Title:     fmt.Sprintf("hostguard: %s", event.HostID),
		Message:   event.Line(),
		Priority:  po.Priority,
		Sound:     po.Sound,
		Device:    po.Device,
		Timestamp: event.Timestamp.Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, PushoverAPIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp PushoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Status != 1 {
		return fmt.Errorf("pushover rejected message: %v", apiResp.Errors)
	}
	return nil
}
