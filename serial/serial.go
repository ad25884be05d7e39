package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock ports (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "/dev/ttyUSB0")
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking). The command bridge
	// expects blocking reads.
	ReadTimeout int
}

// DefaultConfig returns a default configuration for the command link
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}
