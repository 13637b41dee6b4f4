package hardware

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// OpenPort opens the microcontroller's serial device at the given baud rate.
// The returned link is line-oriented; feed it to Listener.Start.
func OpenPort(device string, baudRate int) (io.ReadCloser, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", device, err)
	}
	return port, nil
}
