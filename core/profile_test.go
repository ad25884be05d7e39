package core

import (
	"testing"
)

// velocityTrace runs a motion to completion and records the velocity
// after every committed step.
func velocityTrace(t *testing.T, factor int, totalSteps int64, maxVelocity int) []int64 {
	t.Helper()

	m, d := newTestMotor(Config{})
	m.Enable()
	if err := m.SetRamp(factor); err != nil {
		t.Fatal(err)
	}
	if err := m.RotateRelative(totalSteps, maxVelocity); err != nil {
		t.Fatal(err)
	}

	var trace []int64
	for i := int64(0); i <= totalSteps; i++ {
		out := stepOnce(m, d)
		if out == OutcomeComplete {
			return trace
		}
		if out != OutcomeIdle {
			t.Fatalf("motion aborted with %v after %d steps", out, i)
		}
		trace = append(trace, m.velocity)
	}
	t.Fatalf("motion did not complete after %d steps", totalSteps)
	return nil
}

func TestProfileUnimodal(t *testing.T) {
	totals := []int64{1, 2, 5, 10, 100, 1000, 5000}
	velocities := []int{50, 500, 3000, 9999}

	for factor := 1; factor <= 9; factor++ {
		for _, total := range totals {
			for _, maxVel := range velocities {
				trace := velocityTrace(t, factor, total, maxVel)

				peaked := false
				for i := 1; i < len(trace); i++ {
					if trace[i] > trace[i-1] {
						if peaked {
							t.Fatalf("factor=%d total=%d vel=%d: velocity rose again after ramp-down at step %d",
								factor, total, maxVel, i)
						}
					} else if trace[i] < trace[i-1] {
						peaked = true
					}
				}
			}
		}
	}
}

func TestProfileNeverExceedsMaxVelocity(t *testing.T) {
	for factor := 1; factor <= 9; factor++ {
		for _, maxVel := range []int{100, 500, 9999} {
			trace := velocityTrace(t, factor, 2000, maxVel)
			for i, v := range trace {
				if v > int64(maxVel) {
					t.Fatalf("factor=%d vel=%d: velocity %d exceeds maximum at step %d",
						factor, maxVel, v, i)
				}
			}
		}
	}
}

func TestProfileNoRamping(t *testing.T) {
	trace := velocityTrace(t, 0, 500, 700)
	for i, v := range trace {
		if v != 700 {
			t.Fatalf("factor 0 should hold full velocity, got %d at step %d", v, i)
		}
	}
}

func TestProfileTrapezoid(t *testing.T) {
	m, _ := newTestMotor(Config{})
	m.Enable()

	// Factor 5: increment = 5*(10-5) = 25; 500/25 = 20 ramp steps
	if err := m.RotateRelative(1000, 500); err != nil {
		t.Fatal(err)
	}

	if m.rampSteps != 20 {
		t.Errorf("rampSteps = %d, want 20", m.rampSteps)
	}
	if m.rampDownStep != 980 {
		t.Errorf("rampDownStep = %d, want 980", m.rampDownStep)
	}
	if m.velocity != 0 {
		t.Errorf("ramped motion should start from stand-still, got velocity %d", m.velocity)
	}
}

func TestProfileTriangle(t *testing.T) {
	m, _ := newTestMotor(Config{})
	m.Enable()

	// 30 total steps cannot fit two 20-step ramps: triangle profile
	if err := m.RotateRelative(30, 500); err != nil {
		t.Fatal(err)
	}

	if m.rampSteps != 15 || m.rampDownStep != 15 {
		t.Errorf("triangle profile should meet in the middle, got rampSteps=%d rampDownStep=%d",
			m.rampSteps, m.rampDownStep)
	}
}

func TestProfileRampDownReturnsToZero(t *testing.T) {
	// With ramping in effect the deceleration must consume the whole
	// velocity by the final step
	for _, total := range []int64{30, 31, 1000} {
		trace := velocityTrace(t, 5, total, 500)
		if final := trace[len(trace)-1]; final > 0 {
			t.Errorf("total=%d: final velocity %d, want <= 0", total, final)
		}
	}
}

func TestProfileRampFactorChangesSlope(t *testing.T) {
	// Higher factor means a smaller increment and a longer ramp
	countRampUp := func(trace []int64) int {
		n := 0
		for i := 1; i < len(trace); i++ {
			if trace[i] > trace[i-1] {
				n++
			}
		}
		return n
	}

	five := countRampUp(velocityTrace(t, 5, 2000, 500))
	six := countRampUp(velocityTrace(t, 6, 2000, 500))

	if six <= five {
		t.Errorf("factor 6 ramp (%d steps) should be longer than factor 5 (%d steps)", six, five)
	}
}

func TestProfileSlowMotionSkipsRamp(t *testing.T) {
	m, _ := newTestMotor(Config{})
	m.Enable()

	// Velocity below a single increment: no ramp, start at full speed
	if err := m.RotateRelative(100, 20); err != nil {
		t.Fatal(err)
	}
	if m.rampSteps != 0 {
		t.Errorf("rampSteps = %d, want 0", m.rampSteps)
	}
	if m.velocity != 20 {
		t.Errorf("velocity = %d, want 20", m.velocity)
	}
}
