// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/accel/adxl345/adxl345test"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/spi/spitest"
)

const addr = AddrLow

var testOpts = Opts{
	ExpectedDeviceID: DeviceID,
	Range:            Range4G,
	Rate:             Rate200Hz,
	FullResolution:   false,
	Offset:           [3]int8{1, -2, 3},
	Interrupts: InterruptConfig{
		Enable:              DataReady | SingleTap | Activity,
		Map:                 SingleTap,
		TapThreshold:        0x30,
		TapDuration:         0x10,
		TapLatency:          0x20,
		TapWindow:           0x40,
		ActivityThreshold:   0x08,
		InactivityThreshold: 0x04,
		InactivityTime:      0x05,
		ActInactAxes:        ActX | ActY | ActZ | InactX | InactY | InactZ,
		FreeFallThreshold:   0x07,
		FreeFallTime:        0x28,
		TapAxes:             TapX | TapY | TapZ,
	},
}

// initOps is the bus traffic of NewI2C with testOpts.
func initOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: addr, W: []byte{regDevID}, R: []byte{DeviceID}},
		{Addr: addr, W: []byte{regPowerCtl, 0x00}},
		{Addr: addr, W: []byte{regOfsX, 0x01, 0xfe, 0x03}},
		{Addr: addr, W: []byte{regDataFormat, 0x01}},
		{Addr: addr, W: []byte{regBwRate, 0x0b}},
		{Addr: addr, W: []byte{regThreshTap, 0x30}},
		{Addr: addr, W: []byte{regDur, 0x10, 0x20, 0x40, 0x08, 0x04, 0x05, 0x77, 0x07, 0x28, 0x07}},
		{Addr: addr, W: []byte{regIntMap, 0x40}},
		{Addr: addr, W: []byte{regIntEnable, 0xd0}},
		{Addr: addr, W: []byte{regFIFOCtl, 0x00}},
	}
}

func newSim(t *testing.T) (*Dev, *adxl345test.Sim) {
	t.Helper()
	s := adxl345test.New(addr)
	d, err := NewI2C(s, addr, &testOpts)
	if err != nil {
		t.Fatal(err)
	}
	s.Reset()
	return d, s
}

func TestNewI2C(t *testing.T) {
	pb := &i2ctest.Playback{Ops: initOps(), DontPanic: true}
	d, err := NewI2C(pb, addr, &testOpts)
	if err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testOpts, d.Opts()); diff != "" {
		t.Errorf("Opts() mismatch (-want +got):\n%s", diff)
	}
	if len(d.String()) == 0 {
		t.Error("invalid String() result")
	}
}

func TestNewI2CLeavesStandby(t *testing.T) {
	s := adxl345test.New(addr)
	s.Regs[regPowerCtl] = powerMeasure
	d, err := NewI2C(s, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := d.Mode()
	if err != nil {
		t.Fatal(err)
	}
	if m != Standby {
		t.Errorf("mode after init = %s, expected Standby", m)
	}
	if s.Regs[regFIFOCtl] != 0 {
		t.Errorf("FIFO_CTL = %#x, expected bypass", s.Regs[regFIFOCtl])
	}
	if diff := cmp.Diff(DefaultOpts, d.Opts()); diff != "" {
		t.Errorf("Opts() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigureNoDevice(t *testing.T) {
	d, s := newSim(t)
	s.Regs[regDevID] = 0x00

	o := testOpts
	o.Range = Range16G
	err := d.Configure(&o)
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("Configure() = %v, expected ErrNoDevice", err)
	}
	if diff := cmp.Diff(testOpts, d.Opts()); diff != "" {
		t.Errorf("configuration changed (-want +got):\n%s", diff)
	}
	if w := s.Writes(); len(w) != 0 {
		t.Errorf("unexpected writes after a failed probe: %#v", w)
	}

	if _, err := NewI2C(s, addr, nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewI2C() = %v, expected ErrNoDevice", err)
	}
}

func TestNewI2CIDReadFailure(t *testing.T) {
	busErr := errors.New("arbitration lost")
	s := adxl345test.New(addr)
	s.Err = busErr

	d, err := NewI2C(s, addr, &testOpts)
	if d != nil {
		t.Error("expected no device")
	}
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewI2C() = %v, expected ErrNoDevice", err)
	}
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("NewI2C() = %v, expected a BusError", err)
	}
	if be.Op != "read" || be.Reg != regDevID {
		t.Errorf("unexpected BusError %#v", be)
	}
	if !errors.Is(err, busErr) {
		t.Errorf("BusError doesn't wrap the bus error: %v", err)
	}
}

func TestNewI2CBusFailure(t *testing.T) {
	busErr := errors.New("arbitration lost")
	s := adxl345test.New(addr)
	before := s.Regs
	s.Err = busErr
	// DEVID is read, POWER_CTL fails.
	s.FailAt = 1

	d, err := NewI2C(s, addr, &testOpts)
	if d != nil {
		t.Error("expected no device")
	}
	if errors.Is(err, ErrNoDevice) {
		t.Errorf("NewI2C() = %v, the device answered the DEVID read", err)
	}
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("NewI2C() = %v, expected a BusError", err)
	}
	if be.Op != "write" || be.Reg != regPowerCtl {
		t.Errorf("unexpected BusError %#v", be)
	}
	if !errors.Is(err, busErr) {
		t.Errorf("BusError doesn't wrap the bus error: %v", err)
	}
	if s.Regs != before {
		t.Error("registers modified by a failed init")
	}
	if w := s.Writes(); len(w) != 1 {
		t.Errorf("expected only the failed POWER_CTL write, got %#v", w)
	}
}

func TestNewI2CWrongAddress(t *testing.T) {
	s := adxl345test.New(AddrHigh)
	_, err := NewI2C(s, AddrLow, nil)
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewI2C() = %v, expected ErrNoDevice", err)
	}
	if !errors.Is(err, adxl345test.ErrNack) {
		t.Errorf("NewI2C() = %v, expected %v", err, adxl345test.ErrNack)
	}
}

func TestNewI2CEmptyBus(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	if _, err := NewI2C(pb, addr, nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewI2C() = %v, expected ErrNoDevice", err)
	}
}

func TestNewI2CDefaultDeviceID(t *testing.T) {
	s := adxl345test.New(addr)
	d, err := NewI2C(s, addr, &Opts{Range: Range16G})
	if err != nil {
		t.Fatal(err)
	}
	if r := d.Opts().Range; r != Range16G {
		t.Errorf("Range = %s, expected %s", r, Range16G)
	}
	if s.Regs[regDataFormat] != 0x03 {
		t.Errorf("DATA_FORMAT = %#x, expected 0x03", s.Regs[regDataFormat])
	}

	s.Regs[regDevID] = 0xe6
	if err := d.Configure(&Opts{}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Configure() = %v, expected ErrNoDevice", err)
	}
}

func TestConfigurePartialFailure(t *testing.T) {
	d, s := newSim(t)
	s.SetSample(256, 0, 0)
	s.Err = errors.New("timeout")
	// The probe, POWER_CTL and offsets succeed, DATA_FORMAT fails.
	s.FailAt = 3

	o := testOpts
	o.Range = Range16G
	err := d.Configure(&o)
	var be *BusError
	if !errors.As(err, &be) || be.Op != "write" || be.Reg != regDataFormat {
		t.Fatalf("Configure() = %v, expected a write BusError on DATA_FORMAT", err)
	}
	if d.Opts().Range != Range4G {
		t.Errorf("Range = %s, expected %s", d.Opts().Range, Range4G)
	}

	s.Err = nil
	var a Acceleration
	if err := d.Sense(&a); err != nil {
		t.Fatal(err)
	}
	if a.X != 1996 {
		t.Errorf("X = %d, expected the ±4g scale to be kept", a.X)
	}
}

func TestConfigureInvalid(t *testing.T) {
	d, s := newSim(t)
	for _, o := range []Opts{
		{ExpectedDeviceID: DeviceID, Range: 4},
		{ExpectedDeviceID: DeviceID, Rate: 16},
	} {
		if err := d.Configure(&o); !errors.Is(err, ErrInvalid) {
			t.Errorf("Configure(%+v) = %v, expected ErrInvalid", o, err)
		}
	}
	if len(s.Ops) != 0 {
		t.Errorf("unexpected bus traffic %#v", s.Ops)
	}
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		r       Range
		fullRes bool
		scale   int32
		raw     int16
		mg      int16
	}{
		{Range2G, false, 3900, 256, 998},
		{Range2G, false, 3900, -1, -3},
		{Range4G, false, 7800, 256, 1996},
		{Range4G, false, 7800, -511, -3985},
		{Range8G, false, 15600, 256, 3993},
		{Range8G, false, 15600, 1, 15},
		{Range16G, false, 31200, 511, 15943},
		{Range16G, false, 31200, -512, -15974},
		{Range2G, true, 3900, 511, 1992},
		{Range4G, true, 3900, 1023, 3989},
		{Range8G, true, 3900, -2048, -7987},
		{Range16G, true, 3900, 4095, 15970},
	}
	for _, test := range tests {
		o := Opts{Range: test.r, FullResolution: test.fullRes}
		if s := o.ScaleFactor(); s != test.scale {
			t.Errorf("ScaleFactor(%s, %t) = %d, expected %d", test.r, test.fullRes, s, test.scale)
		}
		// Converting twice must give the same result.
		for i := 0; i < 2; i++ {
			if mg := toMilliG(test.raw, test.scale); mg != test.mg {
				t.Errorf("toMilliG(%d, %d) = %d, expected %d", test.raw, test.scale, mg, test.mg)
			}
		}
	}
}

func TestToMilliGSaturates(t *testing.T) {
	if v := toMilliG(32767, 31200); v != 32767 {
		t.Errorf("got %d", v)
	}
	if v := toMilliG(-32768, 31200); v != -32768 {
		t.Errorf("got %d", v)
	}
}

func TestSense(t *testing.T) {
	d, s := newSim(t)
	s.SetSample(256, -256, 1)

	var a Acceleration
	if err := d.Sense(&a); err != nil {
		t.Fatal(err)
	}
	expected := Acceleration{X: 1996, Y: -1996, Z: 7}
	if a != expected {
		t.Errorf("Sense() = %s, expected %s", a, expected)
	}
	// The data registers must be read in one transaction.
	want := []i2ctest.IO{{Addr: addr, W: []byte{regDataX0}, R: []byte{0x00, 0x01, 0x00, 0xff, 0x01, 0x00}}}
	if diff := cmp.Diff(want, s.Ops); diff != "" {
		t.Errorf("bus traffic mismatch (-want +got):\n%s", diff)
	}
}

func TestSenseBusFailure(t *testing.T) {
	d, s := newSim(t)
	s.Err = errors.New("bus stuck")
	a := Acceleration{X: 1, Y: 2, Z: 3}
	err := d.Sense(&a)
	var be *BusError
	if !errors.As(err, &be) || be.Reg != regDataX0 {
		t.Fatalf("Sense() = %v, expected a BusError", err)
	}
	if a != (Acceleration{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Sense() modified the output on error: %s", a)
	}
}

func TestSenseIfReady(t *testing.T) {
	d, s := newSim(t)
	s.SetSample(0, 0, 256)

	s.Regs[regIntSource] = byte(Watermark)
	var a Acceleration
	if err := d.SenseIfReady(&a); err != ErrNoData {
		t.Errorf("SenseIfReady() = %v, expected ErrNoData", err)
	}

	s.Regs[regIntSource] = byte(DataReady | Watermark)
	if err := d.SenseIfReady(&a); err != nil {
		t.Fatal(err)
	}
	if a.Z != 1996 {
		t.Errorf("Z = %d, expected 1996", a.Z)
	}
}

func TestSenseIfReadyKeepsLatchedSources(t *testing.T) {
	d, s := newSim(t)
	s.Regs[regIntSource] = byte(DataReady | SingleTap | Watermark)
	var a Acceleration
	if err := d.SenseIfReady(&a); err != nil {
		t.Fatal(err)
	}
	// The device cleared SINGLE_TAP when INT_SOURCE was read.
	s.Regs[regIntSource] = byte(DataReady | Watermark)
	src, err := d.InterruptSource()
	if err != nil {
		t.Fatal(err)
	}
	if src != DataReady|SingleTap|Watermark {
		t.Errorf("InterruptSource() = %#x, expected the tap to be kept", src)
	}
	if src, err = d.InterruptSource(); err != nil || src != DataReady|Watermark {
		t.Errorf("InterruptSource() = %#x, %v, expected the tap to be reported once", src, err)
	}
}

func TestModeTransitions(t *testing.T) {
	d, s := newSim(t)
	// LINK and a 1 Hz wakeup frequency must survive every transition.
	s.Regs[regPowerCtl] = powerLink | 0x03

	steps := []struct {
		name    string
		set     func() error
		want    byte
		mode    Mode
		allowed byte
	}{
		{"measure", d.SetMeasure, 0x2b, Measure, powerMeasure | powerSleep},
		{"sleep", d.SetSleep, 0x2f, Sleep, powerSleep},
		{"standby", d.SetStandby, 0x27, Standby, powerMeasure},
		{"measure", d.SetMeasure, 0x2b, Measure, powerMeasure | powerSleep},
		{"autosleep", d.SetAutoSleep, 0x3b, AutoSleep, powerAutoSleep | powerLink},
		{"halt", d.Halt, 0x33, Standby, powerMeasure},
	}
	for _, step := range steps {
		prev := s.Regs[regPowerCtl]
		s.Reset()
		if err := step.set(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		want := []i2ctest.IO{
			{Addr: addr, W: []byte{regPowerCtl}, R: []byte{prev}},
			{Addr: addr, W: []byte{regPowerCtl, step.want}},
		}
		if diff := cmp.Diff(want, s.Ops); diff != "" {
			t.Errorf("%s: bus traffic mismatch (-want +got):\n%s", step.name, diff)
		}
		if changed := prev ^ step.want; changed&^step.allowed != 0 {
			t.Errorf("%s: changed bits %#x outside of %#x", step.name, changed, step.allowed)
		}
		m, err := d.Mode()
		if err != nil {
			t.Fatal(err)
		}
		if m != step.mode {
			t.Errorf("%s: Mode() = %s, expected %s", step.name, m, step.mode)
		}
	}
}

func TestSetRate(t *testing.T) {
	d, s := newSim(t)
	if err := d.SetLowPower(true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetRate(Rate3200Hz); err != nil {
		t.Fatal(err)
	}
	if s.Regs[regBwRate] != 0x1f {
		t.Errorf("BW_RATE = %#x, expected 0x1f", s.Regs[regBwRate])
	}
	if o := d.Opts(); o.Rate != Rate3200Hz || !o.LowPower {
		t.Errorf("unexpected Opts %+v", o)
	}
	s.Reset()
	if err := d.SetRate(Rate(16)); !errors.Is(err, ErrInvalid) {
		t.Errorf("SetRate(16) = %v, expected ErrInvalid", err)
	}
	if len(s.Ops) != 0 {
		t.Errorf("unexpected bus traffic %#v", s.Ops)
	}
}

func TestSetRange(t *testing.T) {
	d, s := newSim(t)
	// INT_INVERT must be preserved.
	s.Regs[regDataFormat] |= 0x20
	s.SetSample(100, 0, 0)

	if err := d.SetRange(Range16G, false); err != nil {
		t.Fatal(err)
	}
	if s.Regs[regDataFormat] != 0x23 {
		t.Errorf("DATA_FORMAT = %#x, expected 0x23", s.Regs[regDataFormat])
	}
	var a Acceleration
	if err := d.Sense(&a); err != nil {
		t.Fatal(err)
	}
	if a.X != 3120 {
		t.Errorf("X = %d, expected 3120", a.X)
	}

	if err := d.SetRange(Range16G, true); err != nil {
		t.Fatal(err)
	}
	if err := d.Sense(&a); err != nil {
		t.Fatal(err)
	}
	if a.X != 390 {
		t.Errorf("X = %d, expected 390", a.X)
	}
	if err := d.SetRange(Range(7), true); !errors.Is(err, ErrInvalid) {
		t.Errorf("SetRange(7) = %v, expected ErrInvalid", err)
	}
}

func TestSetOffset(t *testing.T) {
	d, s := newSim(t)
	if err := d.SetOffset([3]int8{-1, 0, 127}); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{{Addr: addr, W: []byte{regOfsX, 0xff, 0x00, 0x7f}}}
	if diff := cmp.Diff(want, s.Ops); diff != "" {
		t.Errorf("bus traffic mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFIFO(t *testing.T) {
	tests := []struct {
		mode    FIFOMode
		trigger Pin
		samples byte
		want    byte
	}{
		{FIFOBypass, INT2, 17, 0x31},
		{FIFOHold, INT2, 17, 0x71},
		{FIFOStream, INT2, 17, 0xb1},
		{FIFOTrigger, INT2, 17, 0xf1},
		{FIFOBypass, INT1, 31, 0x1f},
		{FIFOHold, INT1, 31, 0x5f},
		{FIFOStream, INT1, 31, 0x9f},
		{FIFOTrigger, INT1, 31, 0xdf},
	}
	for _, test := range tests {
		ops := append(initOps(), i2ctest.IO{Addr: addr, W: []byte{regFIFOCtl, test.want}})
		pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
		d, err := NewI2C(pb, addr, &testOpts)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.SetFIFO(test.mode, test.trigger, test.samples); err != nil {
			t.Errorf("SetFIFO(%s, %s, %d): %v", test.mode, test.trigger, test.samples, err)
		}
		if err := pb.Close(); err != nil {
			t.Errorf("SetFIFO(%s, %s, %d): %v", test.mode, test.trigger, test.samples, err)
		}
	}
}

func TestSetFIFOInvalid(t *testing.T) {
	d, s := newSim(t)
	if err := d.SetFIFO(FIFOMode(4), INT1, 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v", err)
	}
	if err := d.SetFIFO(FIFOStream, Pin(2), 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v", err)
	}
	if len(s.Ops) != 0 {
		t.Errorf("unexpected bus traffic %#v", s.Ops)
	}
}

func TestFIFOStatus(t *testing.T) {
	d, s := newSim(t)
	s.Regs[regFIFOStatus] = 0x80 | 21
	st, err := d.FIFOStatus()
	if err != nil {
		t.Fatal(err)
	}
	if st != (FIFOStatus{Entries: 21, Triggered: true}) {
		t.Errorf("FIFOStatus() = %+v", st)
	}
}

func TestInterruptRoundTrip(t *testing.T) {
	d, s := newSim(t)
	c := InterruptConfig{
		Enable:              DoubleTap | Inactivity | FreeFall | Watermark | Overrun,
		Map:                 Inactivity | Overrun,
		TapThreshold:        0xff,
		TapDuration:         0x01,
		TapLatency:          0x02,
		TapWindow:           0x03,
		ActivityThreshold:   0x04,
		InactivityThreshold: 0x05,
		InactivityTime:      0x06,
		ActInactAxes:        ActACCoupled | ActZ | InactACCoupled | InactX,
		FreeFallThreshold:   0x09,
		FreeFallTime:        0x0a,
		TapAxes:             TapSuppress | TapZ,
	}
	if err := d.SetInterrupts(&c); err != nil {
		t.Fatal(err)
	}
	// INT_ENABLE is written last.
	if w := s.Writes(); len(w) != 4 || w[3].W[0] != regIntEnable {
		t.Errorf("unexpected write sequence %#v", w)
	}
	got, err := d.ReadInterruptConfig()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("ReadInterruptConfig() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c, d.Opts().Interrupts); diff != "" {
		t.Errorf("Opts().Interrupts mismatch (-want +got):\n%s", diff)
	}
}

func TestInterruptSource(t *testing.T) {
	d, s := newSim(t)
	s.Regs[regIntSource] = byte(SingleTap | DataReady)
	s.Regs[regActTapStat] = 0x09
	src, err := d.InterruptSource()
	if err != nil {
		t.Fatal(err)
	}
	if src != SingleTap|DataReady {
		t.Errorf("InterruptSource() = %#x", src)
	}
	st, err := d.TapStatus()
	if err != nil {
		t.Fatal(err)
	}
	if st != 0x09 {
		t.Errorf("TapStatus() = %#x", st)
	}
}

func TestEnableDebug(t *testing.T) {
	d, _ := newSim(t)
	var lines int
	d.EnableDebug(func(string, ...interface{}) { lines++ })
	if err := d.SetMeasure(); err != nil {
		t.Fatal(err)
	}
	if lines == 0 {
		t.Error("debug function not called")
	}
	d.EnableDebug(nil)
	if err := d.SetStandby(); err != nil {
		t.Fatal(err)
	}
}

func TestNewSPI(t *testing.T) {
	z := func(n int) []byte { return make([]byte, n) }
	ops := []conntest.IO{
		{W: []byte{0x80, 0x00}, R: []byte{0x00, DeviceID}},
		{W: []byte{regPowerCtl, 0x00}, R: z(2)},
		{W: []byte{regOfsX | 0x40, 0x00, 0x00, 0x00}, R: z(4)},
		{W: []byte{regDataFormat, 0x0a}, R: z(2)},
		{W: []byte{regBwRate, 0x0d}, R: z(2)},
		{W: []byte{regThreshTap, 0x00}, R: z(2)},
		{W: append([]byte{regDur | 0x40}, z(10)...), R: z(11)},
		{W: []byte{regIntMap, 0x00}, R: z(2)},
		{W: []byte{regIntEnable, 0x00}, R: z(2)},
		{W: []byte{regFIFOCtl, 0x00}, R: z(2)},
		{W: []byte{regDataX0 | 0xc0, 0, 0, 0, 0, 0, 0}, R: []byte{0x00, 0x00, 0x01, 0x00, 0xff, 0x00, 0x00}},
	}
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
	o := Opts{ExpectedDeviceID: DeviceID, Range: Range8G, FullResolution: true, Rate: Rate800Hz}
	d, err := NewSPI(pb, &o)
	if err != nil {
		t.Fatal(err)
	}
	var a Acceleration
	if err := d.Sense(&a); err != nil {
		t.Fatal(err)
	}
	if a != (Acceleration{X: 998, Y: -998, Z: 0}) {
		t.Errorf("Sense() = %s", a)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}
