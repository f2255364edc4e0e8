// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// adxl345 reads an ADXL345 accelerometer connected to the host.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/accel/adxl345"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var rootCmd = &cobra.Command{
	Use:          "adxl345",
	Short:        "Read an ADXL345 accelerometer",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print acceleration samples in mg",
	RunE:  runRead,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the device configuration and state",
	RunE:  runStatus,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration merged from the file and the flags",
	RunE:  runConfig,
}

// openDev initializes the host, opens the bus selected on the command line
// and returns a configured device. closeBus releases the bus.
func openDev(cmd *cobra.Command) (d *adxl345.Dev, closeBus func(), err error) {
	flags := cmd.Flags()
	c, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts, err := c.Opts()
	if err != nil {
		return nil, nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	if port, _ := flags.GetString("spi"); flags.Changed("spi") {
		p, err := spireg.Open(port)
		if err != nil {
			return nil, nil, err
		}
		if d, err = adxl345.NewSPI(p, &opts); err != nil {
			p.Close()
			return nil, nil, err
		}
		closeBus = func() { p.Close() }
	} else {
		name, _ := flags.GetString("bus")
		addr, _ := flags.GetUint16("addr")
		b, err := i2creg.Open(name)
		if err != nil {
			return nil, nil, err
		}
		if d, err = adxl345.NewI2C(b, addr, &opts); err != nil {
			b.Close()
			return nil, nil, err
		}
		closeBus = func() { b.Close() }
	}
	d.EnableDebug(log.Debugf)
	log.Infof("opened %s", d)

	m, p, samples, ok, err := c.fifo()
	if err != nil {
		closeBus()
		return nil, nil, err
	}
	if ok {
		if err := d.SetFIFO(m, p, samples); err != nil {
			closeBus()
			return nil, nil, err
		}
		log.Infof("FIFO mode %s, trigger %s, %d samples", m, p, samples)
	}
	return d, closeBus, nil
}

func runRead(cmd *cobra.Command, args []string) error {
	d, closeBus, err := openDev(cmd)
	if err != nil {
		return err
	}
	defer closeBus()
	defer func() {
		if err := d.Halt(); err != nil {
			log.Warnf("halt: %v", err)
		}
	}()

	count, _ := cmd.Flags().GetInt("count")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = d.Opts().Rate.Frequency().Period()
	}
	if err := d.SetMeasure(); err != nil {
		return err
	}
	log.Debugf("sampling every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var a adxl345.Acceleration
	for i := 0; count <= 0 || i < count; i++ {
		<-ticker.C
		if err := d.Sense(&a); err != nil {
			return err
		}
		fmt.Println(a)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, closeBus, err := openDev(cmd)
	if err != nil {
		return err
	}
	defer closeBus()

	m, err := d.Mode()
	if err != nil {
		return err
	}
	fs, err := d.FIFOStatus()
	if err != nil {
		return err
	}
	src, err := d.InterruptSource()
	if err != nil {
		return err
	}
	o := d.Opts()
	fmt.Printf("Mode:       %s\n", m)
	fmt.Printf("Range:      %s (full resolution: %t, %d µg/LSB)\n", o.Range, o.FullResolution, o.ScaleFactor())
	fmt.Printf("Rate:       %s (low power: %t)\n", o.Rate, o.LowPower)
	fmt.Printf("Offset:     %v\n", o.Offset)
	fmt.Printf("FIFO:       %d entries, triggered: %t\n", fs.Entries, fs.Triggered)
	fmt.Printf("Interrupts: enabled %#02x, pending %#02x\n", byte(o.Interrupts.Enable), byte(src))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := c.Opts(); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	fmt.Print(string(b))
	return nil
}

// setFlags registers the flags shared by every command.
func setFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("bus", "", "I²C bus to use")
	pf.Uint16("addr", adxl345.AddrLow, "I²C address, 0x53 or 0x1D depending on ALT ADDRESS")
	pf.String("spi", "", "SPI port to use instead of I²C")
	pf.String("range", "", "full scale range: 2g, 4g, 8g or 16g")
	pf.String("rate", "", "output data rate, e.g. 100Hz")
	pf.Bool("full-res", false, "full resolution mode")
	pf.Bool("debug", false, "toggle debug logging")
}

func main() {
	setFlags(rootCmd)
	readCmd.Flags().IntP("count", "n", 0, "number of samples, 0 for no limit")
	readCmd.Flags().Duration("interval", 0, "time between samples, defaults to the output data rate period")

	rootCmd.AddCommand(readCmd, statusCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
