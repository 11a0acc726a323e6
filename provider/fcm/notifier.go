// Package fcm broadcasts sighting notifications through Firebase Cloud
// Messaging topics.
package fcm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-sightings"
)

const (
	defaultEndpoint = "https://fcm.googleapis.com/fcm/send"
	defaultTopic    = "sightings"
)

// Config holds the FCM dispatch settings.
type Config struct {
	// ServerKey is the legacy FCM server key used in the Authorization header.
	ServerKey string
	// Topic is the broadcast topic, "sightings" when empty.
	Topic string
	// Endpoint overrides the FCM send URL, mostly for tests.
	Endpoint string
	// Timeout bounds a single send attempt.
	Timeout time.Duration
}

// Notifier pushes approval broadcasts to an FCM topic. It satisfies
// sightings.Notifier.
type Notifier struct {
	config Config
}

var _ sightings.Notifier = (*Notifier)(nil)

type message struct {
	To   string            `json:"to"`
	Data map[string]string `json:"data"`
}

// NewNotifier creates a topic notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("fcm: server key is required")
	}

	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second * 10
	}

	return &Notifier{config: cfg}, nil
}

// NotifySightingApproved implements sightings.Notifier. Coordinates travel as
// strings in the data payload, empty when the sighting has no geolocated image.
func (n *Notifier) NotifySightingApproved(notification sightings.SightingNotification) error {
	payload := message{
		To: "/topics/" + n.config.Topic,
		Data: map[string]string{
			"postId":    notification.PostID,
			"userName":  notification.UserName,
			"latitude":  formatCoord(notification.Latitude),
			"longitude": formatCoord(notification.Longitude),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fcm: failed to encode message: %w", err)
	}

	agent := fiber.Post(n.config.Endpoint)
	agent.Timeout(n.config.Timeout)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Set(fiber.HeaderAuthorization, "key="+n.config.ServerKey)
	agent.Body(body)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("fcm: send failed: %w", errs[0])
	}

	if code >= 400 {
		return fmt.Errorf("fcm: send rejected with status %d", code)
	}

	return nil
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%f", *v)
}
