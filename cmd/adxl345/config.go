// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/GermanBionicSystems/accel/adxl345"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the content of the YAML configuration file.
type Config struct {
	Range          string          `yaml:"range" mapstructure:"range"`
	Rate           string          `yaml:"rate" mapstructure:"rate"`
	FullResolution bool            `yaml:"full_resolution" mapstructure:"full_resolution"`
	LowPower       bool            `yaml:"low_power" mapstructure:"low_power"`
	Offset         []int8          `yaml:"offset" mapstructure:"offset"`
	FIFO           *FIFOConfig     `yaml:"fifo" mapstructure:"fifo"`
	Interrupts     InterruptConfig `yaml:"interrupts" mapstructure:"interrupts"`
}

type FIFOConfig struct {
	Mode    string `yaml:"mode" mapstructure:"mode"`
	Trigger string `yaml:"trigger" mapstructure:"trigger"`
	Samples byte   `yaml:"samples" mapstructure:"samples"`
}

type InterruptConfig struct {
	Enable              []string `yaml:"enable" mapstructure:"enable"`
	INT2                []string `yaml:"int2" mapstructure:"int2"`
	TapThreshold        byte     `yaml:"tap_threshold" mapstructure:"tap_threshold"`
	TapDuration         byte     `yaml:"tap_duration" mapstructure:"tap_duration"`
	TapLatency          byte     `yaml:"tap_latency" mapstructure:"tap_latency"`
	TapWindow           byte     `yaml:"tap_window" mapstructure:"tap_window"`
	TapAxes             byte     `yaml:"tap_axes" mapstructure:"tap_axes"`
	ActivityThreshold   byte     `yaml:"activity_threshold" mapstructure:"activity_threshold"`
	InactivityThreshold byte     `yaml:"inactivity_threshold" mapstructure:"inactivity_threshold"`
	InactivityTime      byte     `yaml:"inactivity_time" mapstructure:"inactivity_time"`
	ActInactAxes        byte     `yaml:"act_inact_axes" mapstructure:"act_inact_axes"`
	FreeFallThreshold   byte     `yaml:"free_fall_threshold" mapstructure:"free_fall_threshold"`
	FreeFallTime        byte     `yaml:"free_fall_time" mapstructure:"free_fall_time"`
}

var interruptNames = map[string]adxl345.Interrupt{
	"data_ready": adxl345.DataReady,
	"single_tap": adxl345.SingleTap,
	"double_tap": adxl345.DoubleTap,
	"activity":   adxl345.Activity,
	"inactivity": adxl345.Inactivity,
	"free_fall":  adxl345.FreeFall,
	"watermark":  adxl345.Watermark,
	"overrun":    adxl345.Overrun,
}

var fifoModes = map[string]adxl345.FIFOMode{
	"bypass":  adxl345.FIFOBypass,
	"fifo":    adxl345.FIFOHold,
	"stream":  adxl345.FIFOStream,
	"trigger": adxl345.FIFOTrigger,
}

// flagKeys maps configuration keys to the command line flags overriding
// them.
var flagKeys = map[string]string{
	"range":           "range",
	"rate":            "rate",
	"full_resolution": "full-res",
}

// loadConfig merges the YAML file given by --config, if any, with the
// command line flags. Flags set on the command line take precedence.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		log.Debugln("using config file:", v.ConfigFileUsed())
	}
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Opts converts the configuration into driver options, starting from
// adxl345.DefaultOpts. Empty fields keep their default.
func (c *Config) Opts() (adxl345.Opts, error) {
	o := adxl345.DefaultOpts
	if c.Range != "" {
		r, err := parseRange(c.Range)
		if err != nil {
			return o, err
		}
		o.Range = r
	}
	if c.Rate != "" {
		r, err := adxl345.ParseRate(c.Rate)
		if err != nil {
			return o, err
		}
		o.Rate = r
	}
	o.FullResolution = c.FullResolution
	o.LowPower = c.LowPower
	switch len(c.Offset) {
	case 0:
	case 3:
		copy(o.Offset[:], c.Offset)
	default:
		return o, fmt.Errorf("offset needs 3 values, got %d", len(c.Offset))
	}
	in := &c.Interrupts
	enable, err := parseInterrupts(in.Enable)
	if err != nil {
		return o, err
	}
	int2, err := parseInterrupts(in.INT2)
	if err != nil {
		return o, err
	}
	o.Interrupts = adxl345.InterruptConfig{
		Enable:              enable,
		Map:                 int2,
		TapThreshold:        in.TapThreshold,
		TapDuration:         in.TapDuration,
		TapLatency:          in.TapLatency,
		TapWindow:           in.TapWindow,
		ActivityThreshold:   in.ActivityThreshold,
		InactivityThreshold: in.InactivityThreshold,
		InactivityTime:      in.InactivityTime,
		ActInactAxes:        in.ActInactAxes,
		FreeFallThreshold:   in.FreeFallThreshold,
		FreeFallTime:        in.FreeFallTime,
		TapAxes:             in.TapAxes,
	}
	return o, nil
}

// fifo returns the FIFO settings, if any.
func (c *Config) fifo() (adxl345.FIFOMode, adxl345.Pin, byte, bool, error) {
	if c.FIFO == nil {
		return 0, 0, 0, false, nil
	}
	m, ok := fifoModes[strings.ToLower(c.FIFO.Mode)]
	if !ok {
		return 0, 0, 0, false, fmt.Errorf("unknown fifo mode %q", c.FIFO.Mode)
	}
	p := adxl345.INT1
	switch strings.ToUpper(c.FIFO.Trigger) {
	case "", "INT1":
	case "INT2":
		p = adxl345.INT2
	default:
		return 0, 0, 0, false, fmt.Errorf("unknown trigger pin %q", c.FIFO.Trigger)
	}
	return m, p, c.FIFO.Samples, true, nil
}

func parseRange(s string) (adxl345.Range, error) {
	switch strings.TrimPrefix(strings.ToLower(s), "±") {
	case "2g", "2":
		return adxl345.Range2G, nil
	case "4g", "4":
		return adxl345.Range4G, nil
	case "8g", "8":
		return adxl345.Range8G, nil
	case "16g", "16":
		return adxl345.Range16G, nil
	}
	return 0, fmt.Errorf("unknown range %q", s)
}

func parseInterrupts(names []string) (adxl345.Interrupt, error) {
	var i adxl345.Interrupt
	for _, n := range names {
		v, ok := interruptNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown interrupt %q", n)
		}
		i |= v
	}
	return i, nil
}
