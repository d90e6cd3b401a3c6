package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// SourceSensor marks fixes read from a serial GPS receiver.
const SourceSensor = "gps"

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	open     func(port string, baud int) (io.ReadCloser, error)
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
		open: func(port string, baud int) (io.ReadCloser, error) {
			return serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: 5 * time.Second})
		},
	}
}

// GetLocation reads NMEA sentences from the device until a GGA fix is found.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Fix, error) {
	s, err := d.open(d.port, d.baudRate)
	if err != nil {
		return Fix{}, err
	}
	defer s.Close()

	return readGGA(ctx, s)
}

// readGGA scans r for the first parseable GGA sentence.
func readGGA(ctx context.Context, r io.Reader) (Fix, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Fix{}, err
		}

		line := strings.TrimSpace(scanner.Text())
		// GGA comes from any talker: $GPGGA, $GNGGA, $GLGGA...
		if !strings.HasPrefix(line, "$") || !strings.Contains(line, "GGA,") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			return Fix{}, err
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok {
			continue
		}
		if gga.FixQuality == nmea.Invalid {
			continue
		}

		return Fix{
			Latitude:  gga.Latitude,
			Longitude: gga.Longitude,
			Accuracy:  gga.HDOP, // HDOP as a proxy for accuracy
			Altitude:  gga.Altitude,
			Source:    SourceSensor,
			Time:      time.Now().UTC(),
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return Fix{}, err
	}

	return Fix{}, errors.New("no valid GPS data found")
}
