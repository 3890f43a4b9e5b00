package mqtt

// Handler receives raw messages.
type Handler func(topic string, payload []byte)

// Subscriber receives messages from a broker.
type Subscriber interface {
	Subscribe(filter string, qos byte, handler Handler) error
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}
