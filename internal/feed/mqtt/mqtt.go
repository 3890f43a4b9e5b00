// Package mqtt feeds telemetry published on an MQTT broker into the scene.
//
// Topics under the configured prefix:
//
//	<prefix>/ts/<channel>/<rtu>/<point>   status  {on, unreliable, malfunction, intermediate}
//	<prefix>/ti/<channel>/<rtu>/<point>   analog  {value, unit, unreliable}
//	<prefix>/var/<id>                     variable {on: true|false|null}
//
// Payloads are JSON or MessagePack. Fields missing from a payload are left
// untouched.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Message is one decoded telemetry update.
type Message struct {
	Kind    telemetry.Kind
	Address telemetry.Address
	ID      string

	Status   telemetry.StatusUpdate
	Analog   telemetry.AnalogUpdate
	Variable *bool
}

type variablePayload struct {
	On *bool `json:"on" msgpack:"on"`
}

// ParseMessage decodes a message received on topic.
func ParseMessage(prefix, format, topic string, payload []byte) (Message, error) {
	var msg Message
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if !ok {
		return msg, fmt.Errorf("topic %q is outside prefix %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")

	switch parts[0] {
	case "ts", "ti":
		if len(parts) != 4 {
			return msg, fmt.Errorf("topic %q: expected %s/<channel>/<rtu>/<point>", topic, parts[0])
		}
		var nums [3]int
		for i, p := range parts[1:] {
			n, err := strconv.Atoi(p)
			if err != nil {
				return msg, fmt.Errorf("topic %q: %w", topic, err)
			}
			nums[i] = n
		}
		msg.Address = telemetry.Address{Channel: nums[0], RTU: nums[1], Point: nums[2]}
		if parts[0] == "ts" {
			msg.Kind = telemetry.KindStatus
			return msg, decode(format, payload, &msg.Status)
		}
		msg.Kind = telemetry.KindAnalog
		return msg, decode(format, payload, &msg.Analog)
	case "var":
		if len(parts) != 2 || parts[1] == "" {
			return msg, fmt.Errorf("topic %q: expected var/<id>", topic)
		}
		msg.Kind = telemetry.KindVariable
		msg.ID = parts[1]
		var p variablePayload
		if err := decode(format, payload, &p); err != nil {
			return msg, err
		}
		msg.Variable = p.On
		return msg, nil
	default:
		return msg, fmt.Errorf("topic %q: unknown point type %q", topic, parts[0])
	}
}

func decode(format string, payload []byte, v any) error {
	var err error
	switch format {
	case FormatMsgpack:
		err = msgpack.Unmarshal(payload, v)
	case FormatJSON, "":
		err = json.Unmarshal(payload, v)
	default:
		return fmt.Errorf("unknown payload format %q", format)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", format, err)
	}
	return nil
}

// Encode is the inverse of the payload half of ParseMessage. It is used by
// tools that publish test telemetry.
func Encode(format string, v any) ([]byte, error) {
	switch format {
	case FormatMsgpack:
		return msgpack.Marshal(v)
	case FormatJSON, "":
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}

// StatusTopic and its siblings build topics for a prefix.
func StatusTopic(prefix string, a telemetry.Address) string {
	return fmt.Sprintf("%s/ts/%d/%d/%d", prefix, a.Channel, a.RTU, a.Point)
}

func AnalogTopic(prefix string, a telemetry.Address) string {
	return fmt.Sprintf("%s/ti/%d/%d/%d", prefix, a.Channel, a.RTU, a.Point)
}

func VariableTopic(prefix, id string) string {
	return prefix + "/var/" + id
}
