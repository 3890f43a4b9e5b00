package mqtt

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// Poster queues work for the goroutine that owns the controller.
type Poster interface {
	Post(fn func(*scene.Controller)) bool
}

type FeedConfig struct {
	TopicPrefix   string
	PayloadFormat string
	QoS           byte
}

// Feed turns broker messages into point updates on the update loop.
type Feed struct {
	sub    Subscriber
	poster Poster
	cfg    FeedConfig
}

func NewFeed(sub Subscriber, poster Poster, cfg FeedConfig) *Feed {
	if cfg.PayloadFormat == "" {
		cfg.PayloadFormat = FormatJSON
	}
	return &Feed{sub: sub, poster: poster, cfg: cfg}
}

// Start subscribes to every topic under the prefix.
func (f *Feed) Start() error {
	filter := f.cfg.TopicPrefix + "/#"
	if err := f.sub.Subscribe(filter, f.cfg.QoS, f.handle); err != nil {
		return fmt.Errorf("start mqtt feed: %w", err)
	}
	log.Info().
		Str("filter", filter).
		Str("format", f.cfg.PayloadFormat).
		Msg("MQTT telemetry feed started")
	return nil
}

func (f *Feed) handle(topic string, payload []byte) {
	msg, err := ParseMessage(f.cfg.TopicPrefix, f.cfg.PayloadFormat, topic, payload)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Dropping telemetry message")
		return
	}
	if !f.poster.Post(func(c *scene.Controller) { Apply(c, msg) }) {
		log.Debug().Str("topic", topic).Msg("Update loop stopped, dropping telemetry message")
	}
}

// Apply writes msg to the controller. Messages for points the loaded document
// does not use are ignored.
func Apply(c *scene.Controller, msg Message) bool {
	var applied bool
	switch msg.Kind {
	case telemetry.KindStatus:
		applied = c.UpdateStatus(msg.Address, msg.Status)
	case telemetry.KindAnalog:
		applied = c.UpdateAnalog(msg.Address, msg.Analog)
	case telemetry.KindVariable:
		applied = c.UpdateVariable(msg.ID, msg.Variable)
	}
	if !applied {
		ev := log.Debug().Str("kind", string(msg.Kind))
		if msg.Kind == telemetry.KindVariable {
			ev = ev.Str("id", msg.ID)
		} else {
			ev = ev.Int("channel", msg.Address.Channel).Int("rtu", msg.Address.RTU).Int("point", msg.Address.Point)
		}
		ev.Msg("Ignoring telemetry for unused point")
	}
	return applied
}
