// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

// SPI parameters. The ADXL345 supports up to 5MHz in mode 3.
var (
	SPIFrequency = 2 * physic.MegaHertz
	SPIMode      = spi.Mode3
	SPIBits      = 8
)

const (
	spiRead      byte = 0x80
	spiMultiByte byte = 0x40
)

// transport encapsulates register access over either I²C or SPI.
type transport struct {
	c     conn.Conn
	spi   bool
	debug DebugF
}

func newI2CTransport(b i2c.Bus, addr uint16) *transport {
	return &transport{c: &i2c.Dev{Bus: b, Addr: addr}, debug: noop}
}

func newSPITransport(p spi.Port) (*transport, error) {
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		return nil, err
	}
	return &transport{c: c, spi: true, debug: noop}, nil
}

func (t *transport) String() string {
	return t.c.String()
}

// readRegs reads len(b) consecutive registers starting at reg in a single
// transaction.
func (t *transport) readRegs(reg byte, b []byte) error {
	t.debug("read %d register(s) from %#02x", len(b), reg)
	var err error
	if t.spi {
		err = t.readRegsSPI(reg, b)
	} else {
		err = t.c.Tx([]byte{reg}, b)
	}
	if err != nil {
		return &BusError{Op: "read", Reg: reg, Err: err}
	}
	t.debug("register content % x", b)
	return nil
}

func (t *transport) readRegsSPI(reg byte, b []byte) error {
	w := make([]byte, len(b)+1)
	w[0] = reg | spiRead
	if len(b) > 1 {
		w[0] |= spiMultiByte
	}
	r := make([]byte, len(w))
	if err := t.c.Tx(w, r); err != nil {
		return err
	}
	copy(b, r[1:])
	return nil
}

// writeRegs writes b to consecutive registers starting at reg in a single
// transaction.
func (t *transport) writeRegs(reg byte, b ...byte) error {
	t.debug("write register %#02x value % x", reg, b)
	w := make([]byte, len(b)+1)
	w[0] = reg
	copy(w[1:], b)
	var r []byte
	if t.spi {
		if len(b) > 1 {
			w[0] |= spiMultiByte
		}
		r = make([]byte, len(w))
	}
	if err := t.c.Tx(w, r); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (t *transport) readByte(reg byte) (byte, error) {
	var b [1]byte
	err := t.readRegs(reg, b[:])
	return b[0], err
}

// updateReg clears the bits in clear, sets the bits in set and leaves the
// rest of the register untouched. It returns the value written.
func (t *transport) updateReg(reg, clear, set byte) (byte, error) {
	v, err := t.readByte(reg)
	if err != nil {
		return 0, err
	}
	t.debug("update register %#02x: current %#02x, clear %#02x, set %#02x", reg, v, clear, set)
	v = v&^clear | set
	return v, t.writeRegs(reg, v)
}

func noop(string, ...interface{}) {}
