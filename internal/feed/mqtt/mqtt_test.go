package mqtt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/svg-playground/internal/binding"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/svgdoc"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

func boolPtr(b bool) *bool { return &b }

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		topic   string
		payload any
		check   func(t *testing.T, m Message)
	}{
		{
			name: "status json", format: FormatJSON, topic: "plant/ts/1/2/3",
			payload: map[string]any{"on": true, "malfunction": false},
			check: func(t *testing.T, m Message) {
				assert.Equal(t, telemetry.KindStatus, m.Kind)
				assert.Equal(t, telemetry.Address{Channel: 1, RTU: 2, Point: 3}, m.Address)
				assert.Equal(t, boolPtr(true), m.Status.On)
				assert.Equal(t, boolPtr(false), m.Status.Malfunction)
				assert.Nil(t, m.Status.Unreliable)
			},
		},
		{
			name: "analog msgpack", format: FormatMsgpack, topic: "plant/ti/4/5/6",
			payload: map[string]any{"value": 21.5, "unit": "°C"},
			check: func(t *testing.T, m Message) {
				assert.Equal(t, telemetry.KindAnalog, m.Kind)
				require.NotNil(t, m.Analog.Value)
				assert.Equal(t, 21.5, *m.Analog.Value)
				assert.Equal(t, "°C", *m.Analog.Unit)
				assert.Nil(t, m.Analog.Unreliable)
			},
		},
		{
			name: "variable null", format: FormatJSON, topic: "plant/var/auto_mode",
			payload: map[string]any{"on": nil},
			check: func(t *testing.T, m Message) {
				assert.Equal(t, telemetry.KindVariable, m.Kind)
				assert.Equal(t, "auto_mode", m.ID)
				assert.Nil(t, m.Variable)
			},
		},
		{
			name: "variable msgpack", format: FormatMsgpack, topic: "plant/var/auto_mode",
			payload: map[string]any{"on": false},
			check: func(t *testing.T, m Message) {
				assert.Equal(t, boolPtr(false), m.Variable)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Encode(tt.format, tt.payload)
			require.NoError(t, err)

			msg, err := ParseMessage("plant", tt.format, tt.topic, payload)
			require.NoError(t, err)
			tt.check(t, msg)
		})
	}
}

func TestParseMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"other prefix", "other/ts/1/2/3", `{}`},
		{"short status topic", "plant/ts/1/2", `{}`},
		{"non numeric address", "plant/ti/1/x/3", `{}`},
		{"unknown type", "plant/alarm/1", `{}`},
		{"empty variable id", "plant/var/", `{}`},
		{"bad json", "plant/ts/1/2/3", `{"on": "yes"`},
		{"wrong type", "plant/ti/1/2/3", `{"value": "hot"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage("plant", FormatJSON, tt.topic, []byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestTopics(t *testing.T) {
	addr := telemetry.Address{Channel: 1, RTU: 2, Point: 3}
	assert.Equal(t, "plant/ts/1/2/3", StatusTopic("plant", addr))
	assert.Equal(t, "plant/ti/1/2/3", AnalogTopic("plant", addr))
	assert.Equal(t, "plant/var/x", VariableTopic("plant", "x"))
}

const feedSVG = `<svg>
  <rect id="pump" oikelement="{status: '1:1:5', fill: {on: green, off: red}}"/>
  <text id="flow" oikelement="{analog: '1:2:7', text: value_with_unit}">0</text>
</svg>`

type svgLoader struct{}

func (svgLoader) Load(string) (scene.Document, error) {
	return svgdoc.Parse(strings.NewReader(feedSVG))
}

type countingSurface struct{ n int }

func (s *countingSurface) RequestRedraw() { s.n++ }

func TestFeed_AppliesThroughLoop(t *testing.T) {
	surface := &countingSurface{}
	c := scene.NewController(svgLoader{}, binding.Factory{}, surface, nil, scene.Options{})
	loop := scene.NewLoop(c, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	require.NoError(t, loop.Do(ctx, func(c *scene.Controller) error { return c.Load("plant.svg") }))

	sub := NewFakeSubscriber()
	feed := NewFeed(sub, loop, FeedConfig{TopicPrefix: "plant"})
	require.NoError(t, feed.Start())
	assert.Equal(t, []string{"plant/#"}, sub.Filters())

	sub.Deliver("plant/ts/1/1/5", []byte(`{"on": true}`))
	sub.Deliver("plant/ti/1/2/7", []byte(`{"value": 3.5, "unit": "bar"}`))
	sub.Deliver("plant/ts/9/9/9", []byte(`{"on": true}`))
	sub.Deliver("plant/ts/garbage", []byte(`{}`))

	var on bool
	var text string
	require.NoError(t, loop.Do(ctx, func(c *scene.Controller) error {
		on = c.IsStatusOn(0)
		text = c.AnalogValueWithUnitString(0)
		return nil
	}))
	assert.True(t, on)
	assert.Equal(t, "3.5 bar", text)
}

func TestFeed_StartError(t *testing.T) {
	sub := NewFakeSubscriber()
	sub.SubscribeError = assert.AnError

	err := NewFeed(sub, nil, FeedConfig{TopicPrefix: "plant"}).Start()

	assert.ErrorIs(t, err, assert.AnError)
}
