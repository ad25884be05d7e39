package core

// Driver is the abstract hardware interface the motion core drives.
// Platform-specific implementations talk to a digital stepper driver
// through its Enable, Direction and Step inputs, plus optional limit
// switch inputs. All calls must return promptly: the core invokes them
// from its non-blocking poll path.
type Driver interface {
	// SetEnable energizes (true) or releases (false) the motor driver
	SetEnable(on bool)

	// SetDirection selects the rotation direction
	// false = clockwise, true = counter-clockwise
	// The core allows the direction signal to settle before the first
	// step pulse of a motion
	SetDirection(ccw bool)

	// StepPulse emits a single step pulse
	// Must handle the driver's minimum pulse width internally
	StepPulse()

	// ReadLowerSwitch reports whether the lower limit switch is pressed
	// Implementations without a lower switch return false
	ReadLowerSwitch() bool

	// ReadUpperSwitch reports whether the upper limit switch is pressed
	ReadUpperSwitch() bool

	// Now returns a monotonic clock in microseconds
	Now() int64
}

// Config selects which limit switches are wired and how the guard
// consults them while stepping.
type Config struct {
	// HasLowerSwitch marks the lower limit switch as present
	HasLowerSwitch bool

	// HasUpperSwitch marks the upper limit switch as present
	HasUpperSwitch bool

	// GuardBothSides checks both switches before every step instead of
	// only the switch on the side the motor is travelling toward
	GuardBothSides bool
}
