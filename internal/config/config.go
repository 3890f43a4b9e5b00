package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type MQTT struct {
	Enabled       bool   `json:"enabled"`
	Broker        string `json:"broker"`
	ClientID      string `json:"client_id"`
	TopicPrefix   string `json:"topic_prefix"`
	PayloadFormat string `json:"payload_format"`
	QoS           byte   `json:"qos"`
}

// ModbusSource is one Modbus TCP gateway. Everything it reads lands on a
// single telemetry channel.
type ModbusSource struct {
	Name                string  `json:"name"`
	Host                string  `json:"host"`
	Port                int     `json:"port"`
	Channel             int     `json:"channel"`
	PollIntervalSeconds int     `json:"poll_interval_seconds"`
	TimeoutSeconds      int     `json:"timeout_seconds"`
	AnalogDataType      string  `json:"analog_data_type"`
	AnalogScale         float64 `json:"analog_scale"`
}

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	SVG        string

	LogFile          string  `json:"log_file"`
	StateFile        string  `json:"state_file"`
	BindingAttribute string  `json:"binding_attribute"`
	ZoomStep         float64 `json:"zoom_step"`
	QueueDepth       int     `json:"queue_depth"`
	APIPort          int     `json:"api_port"`
	DBPath           string  `json:"db_path"`
	RecentDocuments  int     `json:"recent_documents"`

	MQTT   MQTT           `json:"mqtt"`
	Modbus []ModbusSource `json:"modbus"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to playground config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.SVG, "svg", "", "SVG document to open at startup")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.BindingAttribute == "" {
		cfg.BindingAttribute = "oikelement"
	}
	if cfg.ZoomStep == 0 {
		cfg.ZoomStep = 1.5
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = 256
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/playground.db"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/session.json"
	}
	if cfg.RecentDocuments == 0 {
		cfg.RecentDocuments = 10
	}
	if cfg.DDAgentAddr == "" {
		cfg.DDAgentAddr = "127.0.0.1:8125"
	}
	if cfg.MQTT.PayloadFormat == "" {
		cfg.MQTT.PayloadFormat = "json"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "telemetry"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "svg-playground"
	}
	for i := range cfg.Modbus {
		m := &cfg.Modbus[i]
		if m.Port == 0 {
			m.Port = 502
		}
		if m.PollIntervalSeconds == 0 {
			m.PollIntervalSeconds = 5
		}
		if m.TimeoutSeconds == 0 {
			m.TimeoutSeconds = 2
		}
		if m.AnalogDataType == "" {
			m.AnalogDataType = "int16"
		}
		if m.AnalogScale == 0 {
			m.AnalogScale = 1
		}
	}
}

func (cfg *Config) validate() {
	var problems []string

	if cfg.ZoomStep <= 1 {
		problems = append(problems, fmt.Sprintf("zoom_step must be greater than 1, got %g", cfg.ZoomStep))
	}
	if cfg.QueueDepth < 0 {
		problems = append(problems, "queue_depth must not be negative")
	}
	if cfg.APIPort < 0 || cfg.APIPort > 65535 {
		problems = append(problems, fmt.Sprintf("api_port %d out of range", cfg.APIPort))
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			problems = append(problems, "mqtt.broker is required when mqtt is enabled")
		}
		switch cfg.MQTT.PayloadFormat {
		case "json", "msgpack":
		default:
			problems = append(problems, fmt.Sprintf("mqtt.payload_format must be json or msgpack, got %q", cfg.MQTT.PayloadFormat))
		}
		if cfg.MQTT.QoS > 2 {
			problems = append(problems, fmt.Sprintf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS))
		}
	}

	channels := map[int]string{}
	for i, m := range cfg.Modbus {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("modbus[%d]", i)
		}
		if m.Host == "" {
			problems = append(problems, name+": host is required")
		}
		if other, exists := channels[m.Channel]; exists {
			problems = append(problems, fmt.Sprintf("%s and %s both use channel %d", name, other, m.Channel))
		} else {
			channels[m.Channel] = name
		}
		switch m.AnalogDataType {
		case "int16", "uint16", "float32":
		default:
			problems = append(problems, fmt.Sprintf("%s: analog_data_type must be int16, uint16 or float32, got %q", name, m.AnalogDataType))
		}
	}

	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, "; "))
	}
}
