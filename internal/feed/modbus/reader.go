package modbus

import (
	"fmt"
	"time"

	mb "github.com/goburrow/modbus"
)

// registerReader is the slice of a Modbus client the poller needs. The slave
// id is per call because one gateway serves every RTU on its channel.
type registerReader interface {
	ReadCoil(slave byte, address uint16) (bool, error)
	ReadHoldingRegisters(slave byte, address, quantity uint16) ([]byte, error)
	Close() error
}

// tcpReader talks Modbus TCP to one gateway.
type tcpReader struct {
	handler *mb.TCPClientHandler
	client  mb.Client
}

func newTCPReader(host string, port int, timeout time.Duration) *tcpReader {
	h := mb.NewTCPClientHandler(fmt.Sprintf("%s:%d", host, port))
	h.Timeout = timeout
	h.IdleTimeout = 60 * time.Second
	return &tcpReader{handler: h, client: mb.NewClient(h)}
}

func (r *tcpReader) Connect() error {
	return r.handler.Connect()
}

func (r *tcpReader) ReadCoil(slave byte, address uint16) (bool, error) {
	r.handler.SlaveId = slave
	data, err := r.client.ReadCoils(address, 1)
	if err != nil {
		return false, err
	}
	return len(data) > 0 && data[0]&0x01 == 0x01, nil
}

func (r *tcpReader) ReadHoldingRegisters(slave byte, address, quantity uint16) ([]byte, error) {
	r.handler.SlaveId = slave
	return r.client.ReadHoldingRegisters(address, quantity)
}

func (r *tcpReader) Close() error {
	return r.handler.Close()
}
