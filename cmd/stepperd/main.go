// stepperd drives a single bipolar stepper motor through a digital
// (Enable/Direction/Step) driver board on Linux GPIO, controlled over a
// line-oriented serial command link.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"stepperd/config"
	"stepperd/core"
	"stepperd/gpio"
	"stepperd/serial"
)

var (
	configPath = kingpin.Flag("config", "JSON configuration file").String()
	device     = kingpin.Flag("device", "serial device for the command link (overrides config)").String()
	verbose    = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()
)

func main() {
	kingpin.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if cfg.Serial.Device == "" {
		log.Fatal("no serial device configured; use --device or the config file")
	}

	drv, err := gpio.New(cfg.Chip, gpio.Pins{
		Enable:      cfg.Pins.Enable,
		Direction:   cfg.Pins.Direction,
		Step:        cfg.Pins.Step,
		LowerSwitch: cfg.Pins.LowerSwitch,
		UpperSwitch: cfg.Pins.UpperSwitch,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer drv.Close()

	motor := core.New(drv, drv.CoreConfig(cfg.GuardBothSides))
	applyMotionConfig(log, motor, cfg)

	motor.SetIdentifyFunc(func(pin int) {
		// Blinking sleeps, so it must not run on the poll loop
		go func() {
			if err := drv.Blink(pin); err != nil {
				log.WithError(err).Warn("identify blink failed")
			}
		}()
	})

	port, err := serial.Open(&serial.Config{Device: cfg.Serial.Device, Baud: cfg.Serial.Baud})
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	bridge := serial.NewBridge(port, motor)

	// Energize and home at the current position, matching how the
	// controller has always come up
	motor.Enable()
	log.WithFields(logrus.Fields{
		"version": core.Version,
		"device":  cfg.Serial.Device,
		"chip":    cfg.Chip,
	}).Info("ready")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigc:
			log.WithField("signal", sig).Info("shutting down")
			motor.Disable()
			return
		default:
		}

		out, err := bridge.Poll()
		if err != nil {
			motor.Disable()
			log.Fatal(err)
		}
		if out != core.OutcomeIdle {
			log.WithFields(logrus.Fields{
				"outcome":  out,
				"position": motor.GetAbsolutePosition(),
			}).Info("motion event")
		}
	}
}

// applyMotionConfig presets limits and ramping from the configuration.
func applyMotionConfig(log *logrus.Logger, motor *core.Motor, cfg *config.Config) {
	if err := motor.SetLowerLimit(cfg.LowerLimit); err != nil {
		log.WithError(err).Fatal("bad lower limit")
	}
	if err := motor.SetUpperLimit(cfg.UpperLimit); err != nil {
		log.WithError(err).Fatal("bad upper limit")
	}
	if err := motor.SetRamp(cfg.Ramp); err != nil {
		log.WithError(err).Fatal("bad ramp factor")
	}
}
