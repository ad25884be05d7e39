package core

// Fixed-format text command protocol. Commands are case-sensitive
// 2-letter codes with parameters packed directly behind them, no
// delimiters:
//
//	cc vvvv sssssssssss
//	|    |       |
//	|    |       +-- signed target or step count, 1-10 digits plus sign
//	|    +---------- velocity, exactly 4 chars, 1-9999 steps/sec
//	+--------------- command code
//
// The velocity field applies to RA/RR, the single ramp digit to SR, a
// signed limit to SL/SU and a pin number to BL; all other commands take
// no parameters. The line terminator is stripped by the transport
// before the packet reaches ExecuteCommand.

import (
	"strconv"
	"strings"
)

// ReplyKind discriminates the payload of a Reply.
type ReplyKind uint8

const (
	// ReplyNone - command executed, nothing to report
	ReplyNone ReplyKind = iota
	// ReplyNumber - numeric query result in Value
	ReplyNumber
	// ReplyText - text query result in Text
	ReplyText
	// ReplyError - decode or execution failure described in Text
	ReplyError
)

// Reply is the owned result of a single ExecuteCommand call. Each call
// constructs a fresh value; replies are never aliased between calls.
type Reply struct {
	Kind  ReplyKind
	Cmd   string // 2-letter code the reply answers, empty if undecodable
	Value int64  // payload for ReplyNumber
	Text  string // payload for ReplyText and ReplyError
}

func okReply(cmd string) Reply {
	return Reply{Kind: ReplyNone, Cmd: cmd}
}

func numberReply(cmd string, v int64) Reply {
	return Reply{Kind: ReplyNumber, Cmd: cmd, Value: v}
}

func textReply(cmd, text string) Reply {
	return Reply{Kind: ReplyText, Cmd: cmd, Text: text}
}

func errorReply(cmd, text string) Reply {
	return Reply{Kind: ReplyError, Cmd: cmd, Text: text}
}

// errReply wraps a rejection from a control entry point.
func errReply(cmd string, err error) Reply {
	return Reply{Kind: ReplyError, Cmd: cmd, Text: err.Error()}
}

// ExecuteCommand decodes and executes a single command packet.
func (m *Motor) ExecuteCommand(packet string) Reply {
	if len(packet) < 2 {
		return errorReply("", "Bad command")
	}

	cmd := packet[:2]
	switch cmd {

	// E-Stop is matched first so it is never queued behind parsing.
	// Motion only resumes after an explicit Enable.
	case "ES":
		m.EStop()
		return okReply(cmd)

	case "EN":
		m.Enable()
		return okReply(cmd)
	case "DI":
		m.Disable()
		return okReply(cmd)

	case "FH":
		if err := m.FindHome(); err != nil {
			return errReply(cmd, err)
		}
		return okReply(cmd)
	case "SH":
		if err := m.SetHomePosition(); err != nil {
			return errReply(cmd, err)
		}
		return okReply(cmd)

	case "SL", "SU":
		return m.execSetLimit(cmd, packet)
	case "SR":
		return m.execSetRamp(cmd, packet)

	case "RH":
		if err := m.RotateToHome(); err != nil {
			return errReply(cmd, err)
		}
		return okReply(cmd)
	case "RL":
		if err := m.RotateToLowerLimit(); err != nil {
			return errReply(cmd, err)
		}
		return okReply(cmd)
	case "RU":
		if err := m.RotateToUpperLimit(); err != nil {
			return errReply(cmd, err)
		}
		return okReply(cmd)
	case "RA", "RR":
		return m.execRotate(cmd, packet)

	case "GA":
		return numberReply(cmd, m.GetAbsolutePosition())
	case "GR":
		return numberReply(cmd, m.GetRelativePosition())
	case "GL":
		return numberReply(cmd, m.GetLowerLimit())
	case "GU":
		return numberReply(cmd, m.GetUpperLimit())
	case "GT":
		return numberReply(cmd, m.GetRemainingTime())
	case "GV":
		// Short-circuit: the version is a static string
		return textReply(cmd, Version)

	case "BL":
		return m.execIdentify(cmd, packet)
	}

	return errorReply(cmd, "Unknown command")
}

// execSetLimit handles SL<int> and SU<int>.
func (m *Motor) execSetLimit(cmd, packet string) Reply {
	if len(packet) < 3 {
		return errorReply(cmd, "Missing limit value")
	}

	limit, err := strconv.ParseInt(packet[2:], 10, 64)
	if err != nil {
		return errorReply(cmd, "Bad limit value")
	}

	if cmd == "SL" {
		err = m.SetLowerLimit(limit)
	} else {
		err = m.SetUpperLimit(limit)
	}
	if err != nil {
		return errReply(cmd, err)
	}
	return okReply(cmd)
}

// execSetRamp handles SRr with exactly one ramp digit.
func (m *Motor) execSetRamp(cmd, packet string) Reply {
	if len(packet) != 3 {
		return errorReply(cmd, "Missing ramp value 0-9")
	}

	ramp := int(packet[2] - '0')
	if ramp < 0 || ramp > 9 {
		return errorReply(cmd, "Missing ramp value 0-9")
	}

	if err := m.SetRamp(ramp); err != nil {
		return errReply(cmd, err)
	}
	return okReply(cmd)
}

// execRotate handles RA<vvvv><target> and RR<vvvv><steps>. The velocity
// is a fixed 4-character field, numerically left-padded or right-padded
// with spaces; the remainder is the signed target or step count.
func (m *Motor) execRotate(cmd, packet string) Reply {
	if len(packet) < 7 {
		return errorReply(cmd, "Bad command")
	}

	velocity, err := strconv.Atoi(strings.TrimSpace(packet[2:6]))
	if err != nil {
		return errorReply(cmd, "Bad velocity value")
	}

	targetOrSteps, err := strconv.ParseInt(packet[6:], 10, 64)
	if err != nil {
		return errorReply(cmd, "Bad position value")
	}

	if cmd == "RA" {
		err = m.RotateAbsolute(targetOrSteps, velocity)
	} else {
		err = m.RotateRelative(targetOrSteps, velocity)
	}
	if err != nil {
		return errReply(cmd, err)
	}
	return okReply(cmd)
}

// execIdentify handles BL<pin>: blink an indicator LED so the operator
// can tell which controller this is. The blinking itself runs outside
// the poll path through the registered identify callback.
func (m *Motor) execIdentify(cmd, packet string) Reply {
	if len(packet) < 3 {
		return errorReply(cmd, "Missing pin value")
	}

	pin, err := strconv.Atoi(packet[2:])
	if err != nil {
		return errorReply(cmd, "Bad pin value")
	}

	if m.identify != nil {
		m.identify(pin)
	}
	return okReply(cmd)
}
