// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adxl345test provides a simulated ADXL345 on an I²C bus.
//
// Sim keeps a copy of the 64 device registers, applies writes to them and
// serves reads from them with the device's address auto-increment. Every
// transaction is recorded, which lets tests assert the exact bus traffic.
package adxl345test

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// NumRegs is the size of the register file.
const NumRegs = 0x40

// ErrNack is returned for a transaction addressed to another device.
var ErrNack = errors.New("adxl345test: no ACK from device")

// Sim is a simulated ADXL345 implementing i2c.Bus.
type Sim struct {
	sync.Mutex
	Addr uint16        // Device address
	Regs [NumRegs]byte // Register file
	Ops  []i2ctest.IO  // Recorded transactions, reads include the returned data

	// Err, when set, makes every transaction starting with number FailAt
	// (0 based) return Err without touching the registers.
	Err    error
	FailAt int
}

// New returns a simulated device in its power on state.
func New(addr uint16) *Sim {
	s := &Sim{Addr: addr}
	s.Regs[0x00] = 0xE5 // DEVID
	s.Regs[0x2C] = 0x0A // BW_RATE
	s.Regs[0x30] = 0x02 // INT_SOURCE
	return s
}

func (s *Sim) String() string {
	return fmt.Sprintf("adxl345test.Sim(%#x)", s.Addr)
}

// Tx implements i2c.Bus.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.Lock()
	defer s.Unlock()
	if s.Err != nil && len(s.Ops) >= s.FailAt {
		s.Ops = append(s.Ops, i2ctest.IO{Addr: addr, W: clone(w)})
		return s.Err
	}
	if addr != s.Addr {
		return ErrNack
	}
	if len(w) == 0 {
		return errors.New("adxl345test: missing register address")
	}
	reg := int(w[0])
	for i, v := range w[1:] {
		s.Regs[(reg+i)%NumRegs] = v
	}
	for i := range r {
		r[i] = s.Regs[(reg+i)%NumRegs]
	}
	s.Ops = append(s.Ops, i2ctest.IO{Addr: addr, W: clone(w), R: clone(r)})
	return nil
}

// SetSpeed implements i2c.Bus.
func (s *Sim) SetSpeed(f physic.Frequency) error {
	return nil
}

// Reset clears the recorded transactions.
func (s *Sim) Reset() {
	s.Lock()
	defer s.Unlock()
	s.Ops = nil
}

// Writes returns the recorded transactions that wrote to a register.
func (s *Sim) Writes() []i2ctest.IO {
	s.Lock()
	defer s.Unlock()
	var out []i2ctest.IO
	for _, op := range s.Ops {
		if len(op.W) > 1 {
			out = append(out, op)
		}
	}
	return out
}

// SetSample stores a raw sample in the data registers.
func (s *Sim) SetSample(x, y, z int16) {
	s.Lock()
	defer s.Unlock()
	for i, v := range []int16{x, y, z} {
		s.Regs[0x32+2*i] = byte(uint16(v))
		s.Regs[0x33+2*i] = byte(uint16(v) >> 8)
	}
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

var _ i2c.Bus = &Sim{}
