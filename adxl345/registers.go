// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Register map.
const (
	regDevID       byte = 0x00 // Device ID
	regThreshTap   byte = 0x1D // Tap threshold
	regOfsX        byte = 0x1E // X-axis offset
	regOfsY        byte = 0x1F // Y-axis offset
	regOfsZ        byte = 0x20 // Z-axis offset
	regDur         byte = 0x21 // Tap duration
	regLatent      byte = 0x22 // Tap latency
	regWindow      byte = 0x23 // Tap window
	regThreshAct   byte = 0x24 // Activity threshold
	regThreshInact byte = 0x25 // Inactivity threshold
	regTimeInact   byte = 0x26 // Inactivity time
	regActInactCtl byte = 0x27 // Axis enable control for activity/inactivity detection
	regThreshFF    byte = 0x28 // Free-fall threshold
	regTimeFF      byte = 0x29 // Free-fall time
	regTapAxes     byte = 0x2A // Axis control for single tap/double tap
	regActTapStat  byte = 0x2B // Source of single tap/double tap
	regBwRate      byte = 0x2C // Data rate and power mode control
	regPowerCtl    byte = 0x2D // Power saving features control
	regIntEnable   byte = 0x2E // Interrupt enable control
	regIntMap      byte = 0x2F // Interrupt mapping control
	regIntSource   byte = 0x30 // Source of interrupts
	regDataFormat  byte = 0x31 // Data format control
	regDataX0      byte = 0x32 // X-Axis Data 0, followed by X1, Y0, Y1, Z0, Z1
	regFIFOCtl     byte = 0x38 // FIFO control
	regFIFOStatus  byte = 0x39 // FIFO status
)

// DeviceID is the content of the DEVID register of an ADXL345.
const DeviceID byte = 0xE5

// I²C addresses, selected by the ALT ADDRESS pin.
const (
	AddrLow  uint16 = 0x53 // ALT ADDRESS pin tied low
	AddrHigh uint16 = 0x1D // ALT ADDRESS pin tied high
)

// POWER_CTL bits.
const (
	powerLink      byte = 0x20
	powerAutoSleep byte = 0x10
	powerMeasure   byte = 0x08
	powerSleep     byte = 0x04
)

// DATA_FORMAT bits.
const (
	formatFullRes   byte = 0x08
	formatRangeMask byte = 0x03
)

// BW_RATE bits.
const (
	bwLowPower byte = 0x10
	bwRateMask byte = 0x0F
)

// FIFO_CTL layout.
const (
	fifoModeShift    = 6
	fifoTriggerShift = 5
	fifoSamplesMask  = 0x1F
)

// Range is the full scale range of the accelerometer.
type Range byte

const (
	Range2G  Range = 0x00 // ±2g
	Range4G  Range = 0x01 // ±4g
	Range8G  Range = 0x02 // ±8g
	Range16G Range = 0x03 // ±16g
)

func (r Range) valid() bool {
	return r <= Range16G
}

func (r Range) String() string {
	switch r {
	case Range2G:
		return "±2g"
	case Range4G:
		return "±4g"
	case Range8G:
		return "±8g"
	case Range16G:
		return "±16g"
	default:
		return fmt.Sprintf("Range(%d)", byte(r))
	}
}

// Rate is the output data rate code written to the BW_RATE register.
type Rate byte

const (
	Rate0_10Hz Rate = iota // 0.10 Hz
	Rate0_20Hz             // 0.20 Hz
	Rate0_39Hz             // 0.39 Hz
	Rate0_78Hz             // 0.78 Hz
	Rate1_56Hz             // 1.56 Hz
	Rate3_13Hz             // 3.13 Hz
	Rate6_25Hz             // 6.25 Hz
	Rate12_5Hz             // 12.5 Hz
	Rate25Hz               // 25 Hz
	Rate50Hz               // 50 Hz
	Rate100Hz              // 100 Hz, power on default
	Rate200Hz              // 200 Hz
	Rate400Hz              // 400 Hz
	Rate800Hz              // 800 Hz
	Rate1600Hz             // 1600 Hz
	Rate3200Hz             // 3200 Hz
)

var rateFrequencies = [...]physic.Frequency{
	100 * physic.MilliHertz,
	200 * physic.MilliHertz,
	390 * physic.MilliHertz,
	780 * physic.MilliHertz,
	1560 * physic.MilliHertz,
	3130 * physic.MilliHertz,
	6250 * physic.MilliHertz,
	12500 * physic.MilliHertz,
	25 * physic.Hertz,
	50 * physic.Hertz,
	100 * physic.Hertz,
	200 * physic.Hertz,
	400 * physic.Hertz,
	800 * physic.Hertz,
	1600 * physic.Hertz,
	3200 * physic.Hertz,
}

var rateNames = [...]string{
	"0.10Hz", "0.20Hz", "0.39Hz", "0.78Hz", "1.56Hz", "3.13Hz", "6.25Hz", "12.5Hz",
	"25Hz", "50Hz", "100Hz", "200Hz", "400Hz", "800Hz", "1600Hz", "3200Hz",
}

func (r Rate) valid() bool {
	return int(r) < len(rateFrequencies)
}

// Frequency returns the output data rate. It returns 0 for an invalid code.
func (r Rate) Frequency() physic.Frequency {
	if !r.valid() {
		return 0
	}
	return rateFrequencies[r]
}

func (r Rate) String() string {
	if !r.valid() {
		return fmt.Sprintf("Rate(%d)", byte(r))
	}
	return rateNames[r]
}

// ParseRate returns the Rate whose String() matches s. The "Hz" suffix and
// trailing fractional zeros are optional, so "0.1" is Rate0_10Hz.
func ParseRate(s string) (Rate, error) {
	v := strings.TrimSuffix(s, "Hz")
	for i, n := range rateNames {
		n = strings.TrimSuffix(n, "Hz")
		if v == n || (strings.Contains(n, ".") && v == strings.TrimRight(n, "0")) {
			return Rate(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown rate %q", ErrInvalid, s)
}

// FIFOMode is the FIFO operating mode.
type FIFOMode byte

const (
	FIFOBypass  FIFOMode = 0 // FIFO is bypassed
	FIFOHold    FIFOMode = 1 // Collects up to 32 samples then stops
	FIFOStream  FIFOMode = 2 // Holds the last 32 samples, oldest discarded
	FIFOTrigger FIFOMode = 3 // Stream until a trigger, then hold
)

func (m FIFOMode) valid() bool {
	return m <= FIFOTrigger
}

func (m FIFOMode) String() string {
	switch m {
	case FIFOBypass:
		return "Bypass"
	case FIFOHold:
		return "FIFO"
	case FIFOStream:
		return "Stream"
	case FIFOTrigger:
		return "Trigger"
	default:
		return fmt.Sprintf("FIFOMode(%d)", byte(m))
	}
}

// Pin is one of the two interrupt output pins.
type Pin byte

const (
	INT1 Pin = 0
	INT2 Pin = 1
)

func (p Pin) valid() bool {
	return p <= INT2
}

func (p Pin) String() string {
	switch p {
	case INT1:
		return "INT1"
	case INT2:
		return "INT2"
	default:
		return fmt.Sprintf("Pin(%d)", byte(p))
	}
}

// Interrupt is a bitmask of interrupt sources as laid out in the INT_ENABLE,
// INT_MAP and INT_SOURCE registers.
type Interrupt byte

const (
	DataReady  Interrupt = 0x80
	SingleTap  Interrupt = 0x40
	DoubleTap  Interrupt = 0x20
	Activity   Interrupt = 0x10
	Inactivity Interrupt = 0x08
	FreeFall   Interrupt = 0x04
	Watermark  Interrupt = 0x02
	Overrun    Interrupt = 0x01
)

// latchedSources are cleared by reading INT_SOURCE.
const latchedSources = SingleTap | DoubleTap | Activity | Inactivity | FreeFall

// Axis enable bits of the TAP_AXES register.
const (
	TapSuppress byte = 0x08
	TapX        byte = 0x04
	TapY        byte = 0x02
	TapZ        byte = 0x01
)

// Axis enable bits of the ACT_INACT_CTL register.
const (
	ActACCoupled   byte = 0x80
	ActX           byte = 0x40
	ActY           byte = 0x20
	ActZ           byte = 0x10
	InactACCoupled byte = 0x08
	InactX         byte = 0x04
	InactY         byte = 0x02
	InactZ         byte = 0x01
)

// Mode is the power mode decoded from the POWER_CTL register.
type Mode byte

const (
	Standby Mode = iota
	Measure
	Sleep
	AutoSleep
)

func (m Mode) String() string {
	switch m {
	case Standby:
		return "Standby"
	case Measure:
		return "Measure"
	case Sleep:
		return "Sleep"
	case AutoSleep:
		return "AutoSleep"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// InterruptConfig holds the interrupt related registers.
//
// Thresholds and times are raw register values; see the datasheet for their
// scale (62.5 mg/LSB for thresholds, 625 µs/LSB for the tap duration, 1.25
// ms/LSB for latency and window, 1 s/LSB for inactivity time and 5 ms/LSB
// for free-fall time).
type InterruptConfig struct {
	Enable              Interrupt // Sources generating an interrupt
	Map                 Interrupt // Sources routed to INT2; cleared bits go to INT1
	TapThreshold        byte
	TapDuration         byte
	TapLatency          byte
	TapWindow           byte
	ActivityThreshold   byte
	InactivityThreshold byte
	InactivityTime      byte
	ActInactAxes        byte // ACT_INACT_CTL
	FreeFallThreshold   byte
	FreeFallTime        byte
	TapAxes             byte // TAP_AXES
}

// interruptBlockLen is the length of the contiguous DUR..TAP_AXES block.
const interruptBlockLen = int(regTapAxes-regDur) + 1

// encodeInterruptBlock returns the content of registers DUR through
// TAP_AXES.
func encodeInterruptBlock(c *InterruptConfig) [interruptBlockLen]byte {
	return [interruptBlockLen]byte{
		c.TapDuration,
		c.TapLatency,
		c.TapWindow,
		c.ActivityThreshold,
		c.InactivityThreshold,
		c.InactivityTime,
		c.ActInactAxes,
		c.FreeFallThreshold,
		c.FreeFallTime,
		c.TapAxes,
	}
}

func decodeInterruptBlock(b [interruptBlockLen]byte, c *InterruptConfig) {
	c.TapDuration = b[0]
	c.TapLatency = b[1]
	c.TapWindow = b[2]
	c.ActivityThreshold = b[3]
	c.InactivityThreshold = b[4]
	c.InactivityTime = b[5]
	c.ActInactAxes = b[6]
	c.FreeFallThreshold = b[7]
	c.FreeFallTime = b[8]
	c.TapAxes = b[9]
}

func encodeDataFormat(r Range, fullRes bool) byte {
	b := byte(r) & formatRangeMask
	if fullRes {
		b |= formatFullRes
	}
	return b
}

func decodeDataFormat(b byte) (Range, bool) {
	return Range(b & formatRangeMask), b&formatFullRes != 0
}

func encodeBwRate(r Rate, lowPower bool) byte {
	b := byte(r) & bwRateMask
	if lowPower {
		b |= bwLowPower
	}
	return b
}

func decodeBwRate(b byte) (Rate, bool) {
	return Rate(b & bwRateMask), b&bwLowPower != 0
}

// encodeFIFOControl packs the FIFO_CTL register.
func encodeFIFOControl(m FIFOMode, trigger Pin, samples byte) byte {
	return byte(m)<<fifoModeShift | byte(trigger&1)<<fifoTriggerShift | samples&fifoSamplesMask
}

func decodeFIFOControl(b byte) (FIFOMode, Pin, byte) {
	return FIFOMode(b >> fifoModeShift), Pin(b>>fifoTriggerShift) & 1, b & fifoSamplesMask
}

// decodePowerCtl maps the POWER_CTL register to a Mode. AutoSleep and Sleep
// are only reported while measuring.
func decodePowerCtl(b byte) Mode {
	switch {
	case b&powerMeasure == 0:
		return Standby
	case b&powerAutoSleep != 0:
		return AutoSleep
	case b&powerSleep != 0:
		return Sleep
	default:
		return Measure
	}
}

// FIFOStatus is the decoded FIFO_STATUS register.
type FIFOStatus struct {
	Entries   int  // Samples stored in the FIFO, up to 33 including the output registers
	Triggered bool // A trigger event occurred in Trigger mode
}

func decodeFIFOStatus(b byte) FIFOStatus {
	return FIFOStatus{Entries: int(b & 0x3F), Triggered: b&0x80 != 0}
}

// scaleFactor returns the acceleration of one LSB in µg.
func scaleFactor(r Range, fullRes bool) int32 {
	const lsb = 3900
	if fullRes {
		return lsb
	}
	return lsb << (byte(r) & formatRangeMask)
}

// toMilliG converts a raw sample to mg, truncating toward zero and
// saturating to the int16 range.
func toMilliG(raw int16, scale int32) int16 {
	v := int32(raw) * scale / 1000
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
