// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adxl345 controls an ADXL345 3-axis accelerometer over I²C or SPI.
//
// NewI2C and NewSPI verify the device identity and write the whole
// configuration while the device is in standby. Sampling only starts once
// SetMeasure is called. Sense returns the acceleration in mg, read from the
// six data registers in a single bus transaction.
//
// # Datasheet
//
// http://www.analog.com/media/en/technical-documentation/data-sheets/ADXL345.pdf
package adxl345
