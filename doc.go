// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package accel is a container for accelerometer device drivers.
//
// The adxl345 package drives an ADXL345 over I²C or SPI, adxl345test
// simulates one for tests, and cmd/adxl345 reads one from the command line.
package accel
