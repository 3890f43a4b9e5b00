// Package modbus polls Modbus TCP gateways for the points a loaded document
// uses. Each gateway is one telemetry channel: the RTU number is the slave id,
// statuses are coils and analogs are holding registers.
package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/config"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// Loop is the update loop the poller reads addresses from and posts
// results to.
type Loop interface {
	Do(ctx context.Context, fn func(*scene.Controller) error) error
	Post(fn func(*scene.Controller)) bool
}

type Poller struct {
	src    config.ModbusSource
	reader registerReader
	loop   Loop
}

func NewPoller(src config.ModbusSource, loop Loop) *Poller {
	timeout := time.Duration(src.TimeoutSeconds) * time.Second
	return &Poller{
		src:    src,
		reader: newTCPReader(src.Host, src.Port, timeout),
		loop:   loop,
	}
}

func (p *Poller) Run(ctx context.Context) {
	defer p.reader.Close()

	if c, ok := p.reader.(interface{ Connect() error }); ok {
		if err := c.Connect(); err != nil {
			log.Warn().Err(err).Str("source", p.src.Name).Str("host", p.src.Host).Msg("Modbus gateway not reachable yet")
		}
	}

	interval := time.Duration(p.src.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Str("source", p.src.Name).
		Str("host", p.src.Host).
		Int("channel", p.src.Channel).
		Dur("interval", interval).
		Msg("Modbus poller started")

	for {
		if err := p.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("source", p.src.Name).Msg("Modbus poll failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type statusReading struct {
	addr telemetry.Address
	upd  telemetry.StatusUpdate
}

type analogReading struct {
	addr telemetry.Address
	upd  telemetry.AnalogUpdate
}

// PollOnce reads every registered point on this channel and posts the
// results as a single action, so a poll costs one recompute pass.
func (p *Poller) PollOnce(ctx context.Context) error {
	var statuses, analogs []telemetry.Address
	err := p.loop.Do(ctx, func(c *scene.Controller) error {
		statuses = c.Addresses(telemetry.KindStatus, p.src.Channel)
		analogs = c.Addresses(telemetry.KindAnalog, p.src.Channel)
		return nil
	})
	if err != nil {
		return err
	}
	if len(statuses) == 0 && len(analogs) == 0 {
		return nil
	}

	var failures int
	statusReadings := make([]statusReading, 0, len(statuses))
	for _, a := range statuses {
		r := p.readStatus(a)
		if r.upd.Unreliable != nil && *r.upd.Unreliable {
			failures++
		}
		statusReadings = append(statusReadings, r)
	}
	analogReadings := make([]analogReading, 0, len(analogs))
	for _, a := range analogs {
		r := p.readAnalog(a)
		if r.upd.Unreliable != nil && *r.upd.Unreliable {
			failures++
		}
		analogReadings = append(analogReadings, r)
	}

	p.loop.Post(func(c *scene.Controller) {
		for _, r := range statusReadings {
			c.UpdateStatus(r.addr, r.upd)
		}
		for _, r := range analogReadings {
			c.UpdateAnalog(r.addr, r.upd)
		}
	})

	log.Debug().
		Str("source", p.src.Name).
		Int("statuses", len(statuses)).
		Int("analogs", len(analogs)).
		Int("failures", failures).
		Msg("Modbus poll complete")

	if failures > 0 {
		return fmt.Errorf("%d of %d reads failed", failures, len(statuses)+len(analogs))
	}
	return nil
}

func (p *Poller) readStatus(a telemetry.Address) statusReading {
	unreliable := true
	r := statusReading{addr: a, upd: telemetry.StatusUpdate{Unreliable: &unreliable}}

	slave, addr, err := registerAddress(a)
	if err == nil {
		var on bool
		on, err = p.reader.ReadCoil(slave, addr)
		if err == nil {
			unreliable = false
			r.upd.On = &on
		}
	}
	if err != nil {
		log.Debug().Err(err).Int("channel", a.Channel).Int("rtu", a.RTU).Int("point", a.Point).Msg("Coil read failed")
	}
	return r
}

func (p *Poller) readAnalog(a telemetry.Address) analogReading {
	unreliable := true
	r := analogReading{addr: a, upd: telemetry.AnalogUpdate{Unreliable: &unreliable}}

	slave, addr, err := registerAddress(a)
	if err == nil {
		var v float64
		v, err = p.readValue(slave, addr)
		if err == nil {
			unreliable = false
			r.upd.Value = &v
		}
	}
	if err != nil {
		log.Debug().Err(err).Int("channel", a.Channel).Int("rtu", a.RTU).Int("point", a.Point).Msg("Register read failed")
	}
	return r
}

func (p *Poller) readValue(slave byte, addr uint16) (float64, error) {
	qty := uint16(1)
	if p.src.AnalogDataType == "float32" {
		qty = 2
	}
	data, err := p.reader.ReadHoldingRegisters(slave, addr, qty)
	if err != nil {
		return 0, err
	}
	v, err := decodeRegisters(data, p.src.AnalogDataType)
	if err != nil {
		return 0, err
	}
	scale := p.src.AnalogScale
	if scale == 0 {
		scale = 1
	}
	return v * scale, nil
}

func registerAddress(a telemetry.Address) (byte, uint16, error) {
	if a.RTU < 0 || a.RTU > 247 {
		return 0, 0, fmt.Errorf("rtu %d is not a valid slave id", a.RTU)
	}
	if a.Point < 0 || a.Point > math.MaxUint16 {
		return 0, 0, fmt.Errorf("point %d is not a valid register address", a.Point)
	}
	return byte(a.RTU), uint16(a.Point), nil
}

// decodeRegisters reads big-endian register data.
func decodeRegisters(data []byte, dataType string) (float64, error) {
	switch dataType {
	case "float32":
		if len(data) < 4 {
			return 0, fmt.Errorf("float32 needs 4 bytes, got %d", len(data))
		}
		f := math.Float32frombits(binary.BigEndian.Uint32(data[:4]))
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return 0, fmt.Errorf("register holds non-finite value")
		}
		return float64(f), nil
	case "uint16":
		if len(data) < 2 {
			return 0, fmt.Errorf("uint16 needs 2 bytes, got %d", len(data))
		}
		return float64(binary.BigEndian.Uint16(data[:2])), nil
	case "int16", "":
		if len(data) < 2 {
			return 0, fmt.Errorf("int16 needs 2 bytes, got %d", len(data))
		}
		return float64(int16(binary.BigEndian.Uint16(data[:2]))), nil
	default:
		return 0, fmt.Errorf("unsupported data type %s", dataType)
	}
}
