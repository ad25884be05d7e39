package core

// Trapezoidal velocity profile: linear ramp up, cruise at the requested
// velocity, linear ramp down. When the distance is too short to reach
// full velocity the profile collapses into a triangle. All math is in
// whole steps and steps/second.

// startRotation computes the profile for the pending target and flips
// the state machine into the running state.
func (m *Motor) startRotation() {
	if m.velocityIncrement == 0 {
		// No ramping: full velocity from the first step
		m.rampSteps = 0
		m.velocity = m.maxVelocity
	} else {
		m.rampSteps = m.maxVelocity / m.velocityIncrement
		if m.rampSteps == 0 {
			// Requested velocity is below one increment
			m.velocity = m.maxVelocity
		} else {
			// Ramp up from a stand-still
			m.velocity = 0
		}
	}

	if m.totalSteps > 2*m.rampSteps {
		// Full trapezoid with a cruise phase
		m.rampDownStep = m.totalSteps - m.rampSteps
	} else {
		// Stunted triangle: ramp-up and ramp-down meet in the middle
		m.rampSteps = m.totalSteps / 2
		m.rampDownStep = m.rampSteps
	}

	if m.target >= m.absolute {
		m.stepIncrement = 1
		m.drv.SetDirection(false)
	} else {
		m.stepIncrement = -1
		m.drv.SetDirection(true)
	}

	m.delta = 0
	// Direction must settle before the first step pulse
	m.nextStepAt = m.drv.Now() + directionSettleMicros
	m.state = StateRunning
}

// updateVelocity adjusts the ramp after a committed step and schedules
// the next step deadline. The deadline advances from the previous
// deadline rather than the current time, so a late poll does not skew
// the average step rate.
func (m *Motor) updateVelocity() {
	n := abs64(m.delta)
	if n <= m.rampSteps {
		m.velocity += m.velocityIncrement
	} else if n > m.rampDownStep {
		m.velocity -= m.velocityIncrement
	}

	// Hold the current deadline if the ramp-down undershoots zero; the
	// remaining steps run at the last positive spacing
	if m.velocity > 0 {
		m.nextStepAt += 1000000 / m.velocity
	}
}
