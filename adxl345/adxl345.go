// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// DefaultOpts is the power on configuration of the device.
var DefaultOpts = Opts{
	ExpectedDeviceID: DeviceID,
	Range:            Range2G,
	Rate:             Rate100Hz,
}

// Opts holds the configuration written to the device by NewI2C, NewSPI and
// Configure.
type Opts struct {
	ExpectedDeviceID byte            // Expected content of DEVID. 0 means DeviceID.
	Range            Range           // Full scale range
	Rate             Rate            // Output data rate
	FullResolution   bool            // Keep 3.9 mg/LSB in every range
	LowPower         bool            // Reduced power operation at the expense of noise
	Offset           [3]int8         // X, Y, Z offsets in 15.6 mg/LSB, added to the output
	Interrupts       InterruptConfig // Written with SetInterrupts semantics
}

// ScaleFactor returns the acceleration of one LSB in µg for this
// configuration.
func (o *Opts) ScaleFactor() int32 {
	return scaleFactor(o.Range, o.FullResolution)
}

func (o *Opts) validate() error {
	if !o.Range.valid() {
		return fmt.Errorf("%w: range %d", ErrInvalid, o.Range)
	}
	if !o.Rate.valid() {
		return fmt.Errorf("%w: rate %d", ErrInvalid, o.Rate)
	}
	return nil
}

// Dev is a driver for the ADXL345 accelerometer.
//
// It is not safe for concurrent use.
type Dev struct {
	t       *transport
	opts    Opts
	scale   int32
	pending Interrupt // latched sources read by DataReady, not yet returned by InterruptSource
}

// NewI2C returns a device connected over I²C at addr, which is AddrLow or
// AddrHigh depending on the wiring of the ALT ADDRESS pin.
//
// The device is verified to be an ADXL345, configured with opts and left in
// standby. Call SetMeasure to start sampling. opts can be nil, in which case
// DefaultOpts is used.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	d := &Dev{t: newI2CTransport(b, addr)}
	if err := d.Configure(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// NewSPI returns a device connected over SPI. It behaves like NewI2C.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	t, err := newSPITransport(p)
	if err != nil {
		return nil, err
	}
	d := &Dev{t: t}
	if err := d.Configure(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ADXL345{%s, Range:%s, Rate:%s, FullRes:%t}", d.t, d.opts.Range, d.opts.Rate, d.opts.FullResolution)
}

// EnableDebug sets a function called for each register access.
func (d *Dev) EnableDebug(f DebugF) {
	if f == nil {
		f = noop
	}
	d.t.debug = f
}

// Configure verifies the device identity, puts the device in standby and
// writes the whole configuration: offsets, data format, rate, interrupts and
// FIFO in bypass mode.
//
// ErrNoDevice is returned when nothing answers at the address or when DEVID
// holds an unexpected value. In the former case the error also wraps the
// *BusError of the failed read.
//
// The configuration returned by Opts is only replaced once every register
// was written. On error it is left unchanged.
func (d *Dev) Configure(opts *Opts) error {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return err
	}
	id, err := d.t.readByte(regDevID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	want := opts.ExpectedDeviceID
	if want == 0 {
		want = DeviceID
	}
	if id != want {
		return fmt.Errorf("%w: got device id %#02x, expected %#02x", ErrNoDevice, id, want)
	}
	if err := d.t.writeRegs(regPowerCtl, 0); err != nil {
		return err
	}
	ofs := []byte{byte(opts.Offset[0]), byte(opts.Offset[1]), byte(opts.Offset[2])}
	if err := d.t.writeRegs(regOfsX, ofs...); err != nil {
		return err
	}
	if err := d.t.writeRegs(regDataFormat, encodeDataFormat(opts.Range, opts.FullResolution)); err != nil {
		return err
	}
	if err := d.t.writeRegs(regBwRate, encodeBwRate(opts.Rate, opts.LowPower)); err != nil {
		return err
	}
	if err := d.writeInterrupts(&opts.Interrupts); err != nil {
		return err
	}
	if err := d.t.writeRegs(regFIFOCtl, encodeFIFOControl(FIFOBypass, INT1, 0)); err != nil {
		return err
	}
	d.opts = *opts
	d.scale = opts.ScaleFactor()
	return nil
}

// Opts returns a copy of the active configuration.
func (d *Dev) Opts() Opts {
	return d.opts
}

// Sense reads the three axes in a single transaction and returns the
// acceleration in mg.
func (d *Dev) Sense(a *Acceleration) error {
	raw, err := d.ReadRaw()
	if err != nil {
		return err
	}
	a.X = toMilliG(raw.X, d.scale)
	a.Y = toMilliG(raw.Y, d.scale)
	a.Z = toMilliG(raw.Z, d.scale)
	return nil
}

// ReadRaw returns the unscaled content of the data registers.
//
// The six bytes are read in one transaction so the axes always belong to the
// same sample.
func (d *Dev) ReadRaw() (Acceleration, error) {
	var b [6]byte
	if err := d.t.readRegs(regDataX0, b[:]); err != nil {
		return Acceleration{}, err
	}
	return Acceleration{
		X: int16(binary.LittleEndian.Uint16(b[0:])),
		Y: int16(binary.LittleEndian.Uint16(b[2:])),
		Z: int16(binary.LittleEndian.Uint16(b[4:])),
	}, nil
}

// DataReady reports whether a new sample is available.
//
// It reads INT_SOURCE, which clears the latched tap, activity, inactivity
// and free-fall sources on the device. Those are kept and reported by the
// next call to InterruptSource.
func (d *Dev) DataReady() (bool, error) {
	src, err := d.t.readByte(regIntSource)
	if err != nil {
		return false, err
	}
	d.pending |= Interrupt(src) & latchedSources
	return Interrupt(src)&DataReady != 0, nil
}

// SenseIfReady is like Sense but returns ErrNoData if no new sample is
// available.
func (d *Dev) SenseIfReady(a *Acceleration) error {
	ok, err := d.DataReady()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoData
	}
	return d.Sense(a)
}

// SetMeasure starts sampling at the configured rate, leaving sleep mode.
func (d *Dev) SetMeasure() error {
	_, err := d.t.updateReg(regPowerCtl, powerSleep, powerMeasure)
	return err
}

// SetStandby stops sampling. The configuration is retained.
func (d *Dev) SetStandby() error {
	_, err := d.t.updateReg(regPowerCtl, powerMeasure, 0)
	return err
}

// SetSleep switches to the reduced sampling rate of sleep mode.
func (d *Dev) SetSleep() error {
	_, err := d.t.updateReg(regPowerCtl, 0, powerSleep)
	return err
}

// SetAutoSleep lets the device enter sleep mode on inactivity. The activity
// and inactivity thresholds must be configured first.
func (d *Dev) SetAutoSleep() error {
	_, err := d.t.updateReg(regPowerCtl, 0, powerLink|powerAutoSleep)
	return err
}

// Mode returns the current power mode.
func (d *Dev) Mode() (Mode, error) {
	v, err := d.t.readByte(regPowerCtl)
	if err != nil {
		return Standby, err
	}
	return decodePowerCtl(v), nil
}

// Halt implements conn.Resource. It puts the device in standby.
func (d *Dev) Halt() error {
	return d.SetStandby()
}

// SetRate changes the output data rate.
func (d *Dev) SetRate(r Rate) error {
	if !r.valid() {
		return fmt.Errorf("%w: rate %d", ErrInvalid, r)
	}
	if _, err := d.t.updateReg(regBwRate, bwRateMask, byte(r)); err != nil {
		return err
	}
	d.opts.Rate = r
	return nil
}

// SetLowPower enables or disables reduced power operation.
func (d *Dev) SetLowPower(on bool) error {
	var set byte
	if on {
		set = bwLowPower
	}
	if _, err := d.t.updateReg(regBwRate, bwLowPower, set); err != nil {
		return err
	}
	d.opts.LowPower = on
	return nil
}

// SetRange changes the full scale range and resolution. The scale factor
// used by Sense follows.
func (d *Dev) SetRange(r Range, fullRes bool) error {
	if !r.valid() {
		return fmt.Errorf("%w: range %d", ErrInvalid, r)
	}
	if _, err := d.t.updateReg(regDataFormat, formatRangeMask|formatFullRes, encodeDataFormat(r, fullRes)); err != nil {
		return err
	}
	d.opts.Range = r
	d.opts.FullResolution = fullRes
	d.scale = scaleFactor(r, fullRes)
	return nil
}

// SetOffset writes the X, Y and Z offset registers.
func (d *Dev) SetOffset(ofs [3]int8) error {
	if err := d.t.writeRegs(regOfsX, byte(ofs[0]), byte(ofs[1]), byte(ofs[2])); err != nil {
		return err
	}
	d.opts.Offset = ofs
	return nil
}

// SetFIFO configures the FIFO mode, the pin receiving the trigger event in
// FIFOTrigger mode and the number of samples. The samples value is the
// watermark level in FIFOHold and FIFOStream modes, and the number of
// samples kept before the trigger in FIFOTrigger mode.
func (d *Dev) SetFIFO(m FIFOMode, trigger Pin, samples byte) error {
	if !m.valid() {
		return fmt.Errorf("%w: fifo mode %d", ErrInvalid, m)
	}
	if !trigger.valid() {
		return fmt.Errorf("%w: pin %d", ErrInvalid, trigger)
	}
	return d.t.writeRegs(regFIFOCtl, encodeFIFOControl(m, trigger, samples))
}

// FIFOStatus returns the number of samples in the FIFO and the trigger
// state.
func (d *Dev) FIFOStatus() (FIFOStatus, error) {
	v, err := d.t.readByte(regFIFOStatus)
	if err != nil {
		return FIFOStatus{}, err
	}
	return decodeFIFOStatus(v), nil
}

// SetInterrupts writes the interrupt configuration. It must be called again
// after any change to c; nothing is tracked by the driver.
func (d *Dev) SetInterrupts(c *InterruptConfig) error {
	if err := d.writeInterrupts(c); err != nil {
		return err
	}
	d.opts.Interrupts = *c
	return nil
}

// writeInterrupts maps the interrupts before enabling them.
func (d *Dev) writeInterrupts(c *InterruptConfig) error {
	if err := d.t.writeRegs(regThreshTap, c.TapThreshold); err != nil {
		return err
	}
	block := encodeInterruptBlock(c)
	if err := d.t.writeRegs(regDur, block[:]...); err != nil {
		return err
	}
	if err := d.t.writeRegs(regIntMap, byte(c.Map)); err != nil {
		return err
	}
	return d.t.writeRegs(regIntEnable, byte(c.Enable))
}

// ReadInterruptConfig reads the interrupt configuration back from the
// device.
func (d *Dev) ReadInterruptConfig() (InterruptConfig, error) {
	var c InterruptConfig
	tap, err := d.t.readByte(regThreshTap)
	if err != nil {
		return c, err
	}
	c.TapThreshold = tap
	var block [interruptBlockLen]byte
	if err := d.t.readRegs(regDur, block[:]); err != nil {
		return c, err
	}
	decodeInterruptBlock(block, &c)
	var ctl [2]byte
	if err := d.t.readRegs(regIntEnable, ctl[:]); err != nil {
		return c, err
	}
	c.Enable = Interrupt(ctl[0])
	c.Map = Interrupt(ctl[1])
	return c, nil
}

// InterruptSource returns the pending interrupt sources. Reading it clears
// the tap, activity, inactivity and free-fall sources.
//
// Latched sources already consumed by DataReady or SenseIfReady are included
// once.
func (d *Dev) InterruptSource() (Interrupt, error) {
	v, err := d.t.readByte(regIntSource)
	if err != nil {
		return 0, err
	}
	src := Interrupt(v) | d.pending
	d.pending = 0
	return src, nil
}

// TapStatus returns the ACT_TAP_STATUS register: the axes involved in the
// last tap or activity event, and the asleep flag in bit 3.
func (d *Dev) TapStatus() (byte, error) {
	return d.t.readByte(regActTapStat)
}

// Acceleration represents the acceleration on the three axes, in mg unless
// returned by ReadRaw.
type Acceleration struct {
	X int16
	Y int16
	Z int16
}

// String returns a string representation of the Acceleration
func (a Acceleration) String() string {
	return fmt.Sprintf("X:%d Y:%d Z:%d", a.X, a.Y, a.Z)
}

var _ conn.Resource = &Dev{}
