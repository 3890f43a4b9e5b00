package notifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/env"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

var client *http.Client
var topic string
var initialized bool

var baseURL = "https://ntfy.sh"

// Init initializes the notification client
func Init() {
	if env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{
		Timeout: 10 * time.Second,
	}
	topic = env.Cfg.NtfyTopic
	initialized = true

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

// Send sends a notification to ntfy.sh
func Send(title, message string) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	url := fmt.Sprintf("%s/%s", baseURL, topic)

	payload := map[string]interface{}{
		"topic":   topic,
		"title":   title,
		"message": message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

// Reporter pushes scene failures to ntfy. Nodes that fail to bind are left
// to the log; they are editing mistakes, not outages.
type Reporter struct{}

func (Reporter) Report(err error) {
	if !initialized || err == nil {
		return
	}
	var bindErr *scene.BindingError
	if errors.As(err, &bindErr) {
		return
	}

	title := "SVG playground error"
	var loadErr *scene.LoadError
	var redrawErr *scene.RedrawError
	switch {
	case errors.As(err, &loadErr):
		title = "Document failed to load"
	case errors.As(err, &redrawErr):
		title = "Redraw failed"
	}

	msg := err.Error()
	go func() {
		if err := Send(title, msg); err != nil {
			log.Warn().Err(err).Msg("Failed to send notification")
		}
	}()
}
