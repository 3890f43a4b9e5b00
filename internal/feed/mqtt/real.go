package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// connectWait bounds how long NewRealSubscriber blocks on the first connect.
var connectWait = 10 * time.Second

type subscription struct {
	filter  string
	qos     byte
	handler Handler
}

// RealSubscriber receives from an actual MQTT broker. Subscriptions are
// replayed after every reconnect.
type RealSubscriber struct {
	client paho.Client

	mu   sync.Mutex
	subs []subscription
}

// NewRealSubscriber connects to broker. A random suffix keeps the client id
// unique when several playgrounds share a broker. A broker that is not up yet
// is not an error: the client keeps retrying and subscribes once connected.
func NewRealSubscriber(broker, clientID string) (*RealSubscriber, error) {
	s := &RealSubscriber{}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID + "-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
		})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectWait) {
		log.Warn().Str("broker", broker).Msg("MQTT broker not reachable yet, retrying in background")
		return s, nil
	}
	if err := token.Error(); err != nil {
		s.client.Disconnect(0)
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return s, nil
}

// Subscribe records the subscription and, when connected, subscribes now.
// Otherwise the next connect picks it up.
func (s *RealSubscriber) Subscribe(filter string, qos byte, handler Handler) error {
	sub := subscription{filter: filter, qos: qos, handler: handler}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	if !s.client.IsConnectionOpen() {
		return nil
	}
	return s.subscribe(sub)
}

func (s *RealSubscriber) subscribe(sub subscription) error {
	token := s.client.Subscribe(sub.filter, sub.qos, func(_ paho.Client, m paho.Message) {
		sub.handler(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s timeout", sub.filter)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", sub.filter, err)
	}
	log.Info().Str("filter", sub.filter).Uint8("qos", sub.qos).Msg("Subscribed to telemetry topics")
	return nil
}

func (s *RealSubscriber) onConnect(paho.Client) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()
	for _, sub := range subs {
		go func(sub subscription) {
			if err := s.subscribe(sub); err != nil {
				log.Warn().Err(err).Msg("Failed to resubscribe after reconnect")
			}
		}(sub)
	}
}

func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.client.Disconnect(1000) // 1 second timeout
	return nil
}
