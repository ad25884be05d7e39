package core

// Single-axis stepper motion controller for digital (Enable/Direction/Step)
// driver boards, with soft range limits, hard limit switches and trapezoidal
// velocity ramping. The controller is polled: Run must be called continuously
// from the host loop and performs at most one step per call.

import (
	"errors"
)

// Version identifies the controller for the GV query.
const Version = "stepperd 1.0.0"

const (
	// RampScale converts a ramp factor 1-9 into a per-step velocity
	// increment: increment = RampScale * (10 - factor)
	RampScale = 5

	// HomingSpeed is the step rate for rotate-to-home and
	// rotate-to-limit moves, in steps/second
	HomingSpeed = 3000

	// MaxStepRate is the highest accepted motion velocity in
	// steps/second (the command protocol carries 4 digits)
	MaxStepRate = 9999

	// DefaultLowerLimit and DefaultUpperLimit are the soft range bounds
	// until the caller configures real ones
	DefaultLowerLimit = -2000000000
	DefaultUpperLimit = 2000000000

	// directionSettleMicros is the required delay between flipping the
	// direction signal and the first step pulse
	directionSettleMicros = 10

	// Homing paces itself with the same deadline mechanism as normal
	// motion: 200 steps/s while seeking the switch, 20 steps/s while
	// creeping back off it.
	seekStepMicros    = 5000
	backoffStepMicros = 50000

	// backoffExtraSteps is how far past the switch release point the
	// back-off travels before declaring home
	backoffExtraSteps = 10
)

// State is the motor state machine position.
type State uint8

const (
	// StateDisabled - driver de-energized, motor can be turned by hand
	StateDisabled State = iota
	// StateEnabled - driver energized and holding, idle
	StateEnabled
	// StateRunning - executing a rotate command
	StateRunning
	// StateSeekingSwitch - homing, travelling toward the lower switch
	StateSeekingSwitch
	// StateBackingOff - homing, creeping back off the tripped switch
	StateBackingOff
	// StateEStopped - emergency stop, requires Enable to resume
	StateEStopped
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	case StateRunning:
		return "running"
	case StateSeekingSwitch:
		return "seeking-switch"
	case StateBackingOff:
		return "backing-off"
	case StateEStopped:
		return "estopped"
	}
	return "unknown"
}

// Outcome is the result of a single Run poll.
type Outcome uint8

const (
	// OutcomeIdle - nothing to report: idle, waiting on a deadline, or
	// a step was taken and motion continues
	OutcomeIdle Outcome = iota
	// OutcomeComplete - motion reached its target normally
	OutcomeComplete
	// OutcomeRangeErrorLower - next step would pass the soft lower limit
	OutcomeRangeErrorLower
	// OutcomeRangeErrorUpper - next step would pass the soft upper limit
	OutcomeRangeErrorUpper
	// OutcomeLimitSwitchLower - lower limit switch tripped
	OutcomeLimitSwitchLower
	// OutcomeLimitSwitchUpper - upper limit switch tripped
	OutcomeLimitSwitchUpper
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeComplete:
		return "complete"
	case OutcomeRangeErrorLower:
		return "range-error-lower"
	case OutcomeRangeErrorUpper:
		return "range-error-upper"
	case OutcomeLimitSwitchLower:
		return "limit-switch-lower"
	case OutcomeLimitSwitchUpper:
		return "limit-switch-upper"
	}
	return "unknown"
}

// Rejection errors returned by control entry points.
var (
	ErrNotEnabled  = errors.New("motor is not enabled")
	ErrNotHomed    = errors.New("motor is not homed")
	ErrBadVelocity = errors.New("velocity must be 1-9999 steps/sec")
	ErrBadLimit    = errors.New("limit value out of order")
	ErrBadRamp     = errors.New("ramp factor must be 0-9")
	ErrNoSwitch    = errors.New("no lower limit switch configured")
	ErrOutOfRange  = errors.New("target position not representable")
)

// Motor is a single stepper axis. It owns the state machine, position
// bookkeeping and the current motion plan. Not safe for concurrent use:
// exactly one goroutine polls Run and issues commands.
type Motor struct {
	drv Driver
	cfg Config

	state State
	homed bool

	// Positions are signed step counts from home
	absolute int64 // steps from home
	delta    int64 // steps since the current motion started
	target   int64 // goal of the current/most recent motion

	lowerLimit int64
	upperLimit int64

	// velocityIncrement is steps/sec added or removed per step while
	// ramping; 0 means full velocity from the first step
	velocityIncrement int64

	// Current motion plan, valid while running
	maxVelocity   int64
	totalSteps    int64
	rampSteps     int64
	rampDownStep  int64
	stepIncrement int64 // +1 clockwise, -1 counter-clockwise
	velocity      int64
	nextStepAt    int64 // deadline for the next step, driver microseconds

	// Remaining extra back-off steps after the homing switch releases
	backoffRemaining int

	lastEvent Outcome

	identify func(pin int)
}

// New creates a motor bound to a hardware driver. The motor starts
// disabled and not homed, with the driver outputs parked.
func New(drv Driver, cfg Config) *Motor {
	m := &Motor{
		drv:               drv,
		cfg:               cfg,
		state:             StateDisabled,
		lowerLimit:        DefaultLowerLimit,
		upperLimit:        DefaultUpperLimit,
		velocityIncrement: RampScale * 5, // default ramp factor 5
		stepIncrement:     1,
	}

	drv.SetEnable(false)
	drv.SetDirection(false)

	return m
}

// Enable energizes the motor driver and sets the current position as
// home. This is also the only way out of an emergency stop.
func (m *Motor) Enable() {
	m.drv.SetEnable(true)
	m.state = StateEnabled
	m.setHome()
}

// Disable releases the motor driver. A freed motor can be turned by
// hand, so the home reference is lost.
func (m *Motor) Disable() {
	m.drv.SetEnable(false)
	m.state = StateDisabled
	m.homed = false
}

// EStop immediately de-energizes the driver and cancels any in-flight
// motion. The motor must be re-Enabled before it will move again.
func (m *Motor) EStop() {
	m.drv.SetEnable(false)
	m.state = StateEStopped
	m.homed = false
	m.target = m.absolute
}

// SetHomePosition declares the current position to be home (zero).
func (m *Motor) SetHomePosition() error {
	if m.state != StateEnabled {
		return ErrNotEnabled
	}
	m.setHome()
	return nil
}

func (m *Motor) setHome() {
	if m.state == StateEnabled {
		m.absolute = 0
		m.delta = 0
		m.homed = true
	}
}

// FindHome starts the homing sequence: seek counter-clockwise until the
// lower limit switch trips, then back off until it releases plus a few
// extra steps, and set home there. The sequence is advanced by Run one
// step at a time; completion is reported as OutcomeComplete.
func (m *Motor) FindHome() error {
	if !m.cfg.HasLowerSwitch {
		return ErrNoSwitch
	}

	m.Enable()
	m.drv.SetDirection(true)
	m.stepIncrement = -1
	m.nextStepAt = m.drv.Now() + directionSettleMicros
	m.state = StateSeekingSwitch
	return nil
}

// SetLowerLimit sets the soft lower range bound. The value must be <= 0
// and not above the current upper limit.
func (m *Motor) SetLowerLimit(v int64) error {
	if v > 0 || v > m.upperLimit {
		return ErrBadLimit
	}
	m.lowerLimit = v
	return nil
}

// SetUpperLimit sets the soft upper range bound. The value must be >= 0
// and not below the current lower limit.
func (m *Motor) SetUpperLimit(v int64) error {
	if v < 0 || v < m.lowerLimit {
		return ErrBadLimit
	}
	m.upperLimit = v
	return nil
}

// SetRamp sets the acceleration steepness, 0-9. Factor 0 disables
// ramping entirely (full velocity from the first step); higher factors
// give gentler ramps. Applies to all subsequent rotate commands.
func (m *Motor) SetRamp(factor int) error {
	if factor < 0 || factor > 9 {
		return ErrBadRamp
	}
	if factor == 0 {
		m.velocityIncrement = 0
	} else {
		m.velocityIncrement = RampScale * int64(10-factor)
	}
	return nil
}

// RotateAbsolute starts a motion to the given absolute position. If a
// motion is already running it is replaced from the current position.
func (m *Motor) RotateAbsolute(pos int64, stepsPerSecond int) error {
	if err := m.motionReady(stepsPerSecond); err != nil {
		return err
	}

	m.target = pos
	m.maxVelocity = int64(stepsPerSecond)
	m.totalSteps = abs64(pos - m.absolute)
	m.startRotation()
	return nil
}

// RotateRelative starts a motion of numSteps from the current position,
// clockwise for positive counts and counter-clockwise for negative. A
// zero count is a no-op.
func (m *Motor) RotateRelative(numSteps int64, stepsPerSecond int) error {
	if numSteps == 0 {
		return nil
	}
	if err := m.motionReady(stepsPerSecond); err != nil {
		return err
	}

	target, ok := addChecked(m.absolute, numSteps)
	if !ok {
		return ErrOutOfRange
	}

	m.target = target
	m.maxVelocity = int64(stepsPerSecond)
	m.totalSteps = abs64(numSteps)
	m.startRotation()
	return nil
}

// RotateToHome starts a motion back to position zero at the homing speed.
func (m *Motor) RotateToHome() error {
	if err := m.motionReady(HomingSpeed); err != nil {
		return err
	}

	m.target = 0
	m.maxVelocity = HomingSpeed
	m.totalSteps = abs64(m.absolute)
	m.startRotation()
	return nil
}

// RotateToLowerLimit starts a motion to the soft lower limit at the
// homing speed.
func (m *Motor) RotateToLowerLimit() error {
	if err := m.motionReady(HomingSpeed); err != nil {
		return err
	}

	m.target = m.lowerLimit
	m.maxVelocity = HomingSpeed
	m.totalSteps = abs64(m.absolute - m.lowerLimit)
	m.startRotation()
	return nil
}

// RotateToUpperLimit starts a motion to the soft upper limit at the
// homing speed.
func (m *Motor) RotateToUpperLimit() error {
	if err := m.motionReady(HomingSpeed); err != nil {
		return err
	}

	m.target = m.upperLimit
	m.maxVelocity = HomingSpeed
	m.totalSteps = abs64(m.absolute - m.upperLimit)
	m.startRotation()
	return nil
}

// motionReady rejects rotate requests unless the motor is enabled (or
// already running, in which case the new request replaces the current
// motion), homed, and the velocity is in range.
func (m *Motor) motionReady(stepsPerSecond int) error {
	switch m.state {
	case StateEnabled, StateRunning:
	default:
		return ErrNotEnabled
	}
	if !m.homed {
		return ErrNotHomed
	}
	if stepsPerSecond < 1 || stepsPerSecond > MaxStepRate {
		return ErrBadVelocity
	}
	return nil
}

// IsHomed reports whether the absolute position is trustworthy.
func (m *Motor) IsHomed() bool {
	return m.homed
}

// GetState returns the current state machine position.
func (m *Motor) GetState() State {
	return m.state
}

// GetAbsolutePosition returns the current step position from home.
func (m *Motor) GetAbsolutePosition() int64 {
	return m.absolute
}

// GetRelativePosition returns the steps moved since the current or most
// recent motion started.
func (m *Motor) GetRelativePosition() int64 {
	return m.delta
}

// GetLowerLimit returns the soft lower range bound.
func (m *Motor) GetLowerLimit() int64 {
	return m.lowerLimit
}

// GetUpperLimit returns the soft upper range bound.
func (m *Motor) GetUpperLimit() int64 {
	return m.upperLimit
}

// GetRemainingTime estimates the milliseconds until the current motion
// completes, with a flat allowance for ramping. Returns 0 when idle.
func (m *Motor) GetRemainingTime() int64 {
	if m.state != StateRunning {
		return 0
	}

	numSteps := abs64(m.absolute - m.target)
	return 1000*numSteps/m.maxVelocity + 500 // +500 for ramping
}

// GetLastEvent returns the most recent terminal Run outcome, so faults
// remain queryable after the poll that reported them.
func (m *Motor) GetLastEvent() Outcome {
	return m.lastEvent
}

// GetVersion returns the controller version string.
func (m *Motor) GetVersion() string {
	return Version
}

// SetIdentifyFunc registers the callback invoked by the BL identify
// command. The callback must not block the poll loop.
func (m *Motor) SetIdentifyFunc(fn func(pin int)) {
	m.identify = fn
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// addChecked adds two step counts and reports whether the sum is
// representable.
func addChecked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
