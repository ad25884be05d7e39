package serial

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"stepperd/core"
)

// MaxCommandLength bounds a single command line; anything longer is
// discarded with an error so a noisy link cannot wedge the decoder.
const MaxCommandLength = 20

// replyPrefixes frames the four position/limit query replies so a UI
// can tell them apart; all other replies are written bare.
var replyPrefixes = map[string]string{
	"GA": "AP", // Absolute Position
	"GR": "RP", // Relative Position
	"GL": "LL", // Lower Limit
	"GU": "UL", // Upper Limit
}

// Bridge connects a line-oriented serial link to the motion core. A
// reader goroutine owns the port's read side and feeds complete lines
// over a channel; the core itself is only ever touched from the
// goroutine calling Poll, so it stays single-threaded.
type Bridge struct {
	port  Port
	motor *core.Motor
	lines chan string

	readErr error
}

// NewBridge starts the read loop for the given port.
func NewBridge(port Port, motor *core.Motor) *Bridge {
	b := &Bridge{
		port:  port,
		motor: motor,
		lines: make(chan string, 8),
	}
	go b.readLoop()
	return b
}

// readLoop splits the byte stream into newline-terminated commands.
// CRs are stripped so both LF and CRLF clients work.
func (b *Bridge) readLoop() {
	scanner := bufio.NewScanner(b.port)
	for scanner.Scan() {
		b.lines <- strings.TrimSuffix(scanner.Text(), "\r")
	}
	b.readErr = scanner.Err()
	close(b.lines)
}

// Poll executes at most one pending command, advances the motor by one
// poll, and reports any terminal motion event on the link. Called from
// the host loop with no delay.
func (b *Bridge) Poll() (core.Outcome, error) {
	var err error
	select {
	case line, ok := <-b.lines:
		if !ok {
			if b.readErr != nil {
				return core.OutcomeIdle, fmt.Errorf("command link closed: %w", b.readErr)
			}
			return core.OutcomeIdle, fmt.Errorf("command link closed")
		}
		err = b.handleLine(line)
	default:
	}

	out := b.motor.Run()
	if werr := b.reportOutcome(out); werr != nil && err == nil {
		err = werr
	}
	return out, err
}

// handleLine decodes and executes a single command line and writes the
// reply, if the command produced one.
func (b *Bridge) handleLine(line string) error {
	if len(line) > MaxCommandLength {
		return b.writeLine("ERROR: Command is too long.")
	}
	if line == "" {
		return nil
	}
	return b.writeReply(b.motor.ExecuteCommand(line))
}

// writeReply frames and writes a command reply.
func (b *Bridge) writeReply(r core.Reply) error {
	switch r.Kind {
	case core.ReplyNumber:
		return b.writeLine(replyPrefixes[r.Cmd] + strconv.FormatInt(r.Value, 10))
	case core.ReplyText, core.ReplyError:
		return b.writeLine(r.Text)
	}
	return nil
}

// reportOutcome announces terminal motion events with the final
// position, matching what UIs expect from the firmware.
func (b *Bridge) reportOutcome(out core.Outcome) error {
	var what string
	switch out {
	case core.OutcomeComplete:
		what = "Run complete"
	case core.OutcomeRangeErrorLower:
		what = "Lower Range Error"
	case core.OutcomeRangeErrorUpper:
		what = "Upper Range Error"
	case core.OutcomeLimitSwitchLower:
		what = "Lower Limit Switch Triggered"
	case core.OutcomeLimitSwitchUpper:
		what = "Upper Limit Switch Triggered"
	default:
		return nil
	}

	return b.writeLine(fmt.Sprintf("%s, position = %d", what, b.motor.GetAbsolutePosition()))
}

func (b *Bridge) writeLine(s string) error {
	if _, err := b.port.Write([]byte(s + "\n")); err != nil {
		return fmt.Errorf("writing to command link: %w", err)
	}
	return nil
}
