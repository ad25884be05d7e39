// Package gpio implements core.Driver on Linux character-device GPIO,
// for boards like a Raspberry Pi wired to a digital stepper driver.
package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"stepperd/core"
)

// stepPulseWidth is the minimum step pulse width most digital stepper
// drivers require.
const stepPulseWidth = 5 * time.Microsecond

// Pins names the GPIO lines wired to the driver board. The enable input
// and the limit switches are active-low, switches with pull-ups, which
// matches common driver boards and normally-open switches to ground.
// Switch pins are optional; -1 leaves them unconfigured.
type Pins struct {
	Enable      int
	Direction   int
	Step        int
	LowerSwitch int
	UpperSwitch int
}

// Driver drives the stepper through gpiocdev lines.
type Driver struct {
	chip  string
	pins  Pins
	epoch time.Time

	enable *gpiocdev.Line
	dir    *gpiocdev.Line
	step   *gpiocdev.Line
	lower  *gpiocdev.Line
	upper  *gpiocdev.Line
}

// New requests the configured lines from the GPIO chip and parks the
// outputs: driver disabled, direction clockwise, step idle.
func New(chip string, pins Pins) (*Driver, error) {
	d := &Driver{
		chip:  chip,
		pins:  pins,
		epoch: time.Now(),
	}

	var err error
	if d.enable, err = gpiocdev.RequestLine(chip, pins.Enable, gpiocdev.AsOutput(1)); err != nil {
		return nil, fmt.Errorf("requesting enable line %d: %w", pins.Enable, err)
	}
	if d.dir, err = gpiocdev.RequestLine(chip, pins.Direction, gpiocdev.AsOutput(0)); err != nil {
		d.Close()
		return nil, fmt.Errorf("requesting direction line %d: %w", pins.Direction, err)
	}
	if d.step, err = gpiocdev.RequestLine(chip, pins.Step, gpiocdev.AsOutput(0)); err != nil {
		d.Close()
		return nil, fmt.Errorf("requesting step line %d: %w", pins.Step, err)
	}

	if pins.LowerSwitch >= 0 {
		if d.lower, err = gpiocdev.RequestLine(chip, pins.LowerSwitch, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			d.Close()
			return nil, fmt.Errorf("requesting lower switch line %d: %w", pins.LowerSwitch, err)
		}
	}
	if pins.UpperSwitch >= 0 {
		if d.upper, err = gpiocdev.RequestLine(chip, pins.UpperSwitch, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			d.Close()
			return nil, fmt.Errorf("requesting upper switch line %d: %w", pins.UpperSwitch, err)
		}
	}

	return d, nil
}

// CoreConfig describes the wired switches to the motion core.
func (d *Driver) CoreConfig(guardBothSides bool) core.Config {
	return core.Config{
		HasLowerSwitch: d.lower != nil,
		HasUpperSwitch: d.upper != nil,
		GuardBothSides: guardBothSides,
	}
}

// SetEnable energizes the driver board. The enable input is active-low.
func (d *Driver) SetEnable(on bool) {
	if on {
		d.enable.SetValue(0)
	} else {
		d.enable.SetValue(1)
	}
}

// SetDirection drives the direction input: low for clockwise, high for
// counter-clockwise.
func (d *Driver) SetDirection(ccw bool) {
	if ccw {
		d.dir.SetValue(1)
	} else {
		d.dir.SetValue(0)
	}
}

// StepPulse raises the step line for the minimum pulse width and drops
// it again. The hold is a busy-wait: the width is far below timer sleep
// granularity.
func (d *Driver) StepPulse() {
	d.step.SetValue(1)
	start := time.Now()
	for time.Since(start) < stepPulseWidth {
	}
	d.step.SetValue(0)
}

// ReadLowerSwitch reports whether the lower limit switch is pressed.
func (d *Driver) ReadLowerSwitch() bool {
	return readSwitch(d.lower)
}

// ReadUpperSwitch reports whether the upper limit switch is pressed.
func (d *Driver) ReadUpperSwitch() bool {
	return readSwitch(d.upper)
}

// readSwitch maps the active-low input to pressed=true. Read failures
// report unpressed: a dead line must not latch the guard closed.
func readSwitch(line *gpiocdev.Line) bool {
	if line == nil {
		return false
	}
	v, err := line.Value()
	if err != nil {
		return false
	}
	return v == 0
}

// Now returns microseconds since the driver was created.
func (d *Driver) Now() int64 {
	return time.Since(d.epoch).Microseconds()
}

// Blink flashes an indicator LED on the given pin ten times so an
// operator can pick this controller out of a rack. Blocking; callers
// run it off the poll loop.
func (d *Driver) Blink(pin int) error {
	line, err := gpiocdev.RequestLine(d.chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("requesting LED line %d: %w", pin, err)
	}
	defer line.Close()

	for i := 0; i < 10; i++ {
		line.SetValue(1)
		time.Sleep(20 * time.Millisecond)
		line.SetValue(0)
		time.Sleep(80 * time.Millisecond)
	}
	return nil
}

// Close releases all requested lines.
func (d *Driver) Close() {
	for _, line := range []*gpiocdev.Line{d.enable, d.dir, d.step, d.lower, d.upper} {
		if line != nil {
			line.Close()
		}
	}
}
