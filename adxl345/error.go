// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevice is returned when no device answers at the address or the
	// DEVID register doesn't hold the expected device ID.
	ErrNoDevice = errors.New("adxl345: no device found")
	// ErrNoData is returned by SenseIfReady when no new sample is pending.
	ErrNoData = errors.New("adxl345: no data available")
	// ErrInvalid is returned for a Range, Rate, FIFOMode or Pin outside of
	// its enumeration. No bus transaction is issued in that case.
	ErrInvalid = errors.New("adxl345: invalid argument")
)

// BusError is returned when a bus transaction fails. The transaction is not
// retried.
type BusError struct {
	Op  string // "read" or "write"
	Reg byte   // First register of the transaction
	Err error  // Error returned by the bus
}

func (e *BusError) Error() string {
	return fmt.Sprintf("adxl345: %s register %#02x: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
