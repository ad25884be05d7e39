package core

// Run advances the motor by at most one step. It must be called
// continuously from the host loop with no delay, never blocks, and
// reports terminal events exactly once; OutcomeIdle means idle or still
// running. Missed deadlines are not batched: a late call performs a
// single step and the schedule catches up through the deadline math in
// updateVelocity.
func (m *Motor) Run() Outcome {
	switch m.state {
	case StateRunning:
		return m.runRotation()
	case StateSeekingSwitch:
		return m.runSeek()
	case StateBackingOff:
		return m.runBackoff()
	}
	return OutcomeIdle
}

// runRotation executes one step of a rotate command when its deadline
// has passed, guarding the step against soft range and limit switches.
func (m *Motor) runRotation() Outcome {
	if !m.homed || m.drv.Now() < m.nextStepAt {
		return OutcomeIdle
	}

	if m.absolute == m.target {
		m.state = StateEnabled
		return m.finish(OutcomeComplete)
	}

	next := m.absolute + m.stepIncrement

	// Soft range first, then the hard switch on the travel side. A
	// violation halts the motion but keeps the motor energized and
	// holding; the caller must issue a fresh rotate command.
	if next < m.lowerLimit {
		m.state = StateEnabled
		return m.finish(OutcomeRangeErrorLower)
	}
	if next > m.upperLimit {
		m.state = StateEnabled
		return m.finish(OutcomeRangeErrorUpper)
	}
	if out, ok := m.checkSwitches(); !ok {
		m.state = StateEnabled
		return m.finish(out)
	}

	m.drv.StepPulse()
	m.absolute = next
	m.delta += m.stepIncrement
	m.updateVelocity()

	return OutcomeIdle
}

// checkSwitches reports whether the next step may proceed. Unless
// configured to guard both sides, only the switch in the direction of
// travel is consulted.
func (m *Motor) checkSwitches() (Outcome, bool) {
	lower := m.cfg.HasLowerSwitch && (m.cfg.GuardBothSides || m.stepIncrement < 0)
	upper := m.cfg.HasUpperSwitch && (m.cfg.GuardBothSides || m.stepIncrement > 0)

	if lower && m.drv.ReadLowerSwitch() {
		return OutcomeLimitSwitchLower, false
	}
	if upper && m.drv.ReadUpperSwitch() {
		return OutcomeLimitSwitchUpper, false
	}
	return OutcomeIdle, true
}

// runSeek is the first homing phase: step counter-clockwise at the seek
// rate until the lower limit switch trips.
func (m *Motor) runSeek() Outcome {
	if m.drv.Now() < m.nextStepAt {
		return OutcomeIdle
	}

	if m.drv.ReadLowerSwitch() {
		// Switch found: creep back off until it releases
		m.drv.SetDirection(false)
		m.stepIncrement = 1
		m.backoffRemaining = backoffExtraSteps
		m.nextStepAt = m.drv.Now() + directionSettleMicros
		m.state = StateBackingOff
		return OutcomeIdle
	}

	m.drv.StepPulse()
	m.nextStepAt += seekStepMicros
	return OutcomeIdle
}

// runBackoff is the second homing phase: step clockwise at the back-off
// rate until the switch releases, take a few more steps clear of it,
// then set home.
func (m *Motor) runBackoff() Outcome {
	if m.drv.Now() < m.nextStepAt {
		return OutcomeIdle
	}

	if m.drv.ReadLowerSwitch() {
		m.drv.StepPulse()
		m.nextStepAt += backoffStepMicros
		return OutcomeIdle
	}

	if m.backoffRemaining > 0 {
		m.drv.StepPulse()
		m.backoffRemaining--
		m.nextStepAt += backoffStepMicros
		return OutcomeIdle
	}

	m.state = StateEnabled
	m.setHome()
	return m.finish(OutcomeComplete)
}

// finish latches a terminal outcome so it stays queryable after the
// poll that reported it.
func (m *Motor) finish(out Outcome) Outcome {
	m.lastEvent = out
	return out
}
