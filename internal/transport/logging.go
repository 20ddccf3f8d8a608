// SPDX-License-Identifier: MIT
package transport

import (
	"arpsd/internal/analysis"
	applog "arpsd/internal/log"
)

// LoggingTransport writes every result to the application log instead of
// sending it anywhere.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a one-line summary per result and one debug line per peak.
func (lt *LoggingTransport) Send(data any) error {
	s, ok := Payload(data).(analysis.Summary)
	if !ok {
		applog.Debugf("transport: received %T: %+v", data, data)
		return nil
	}

	applog.Infof("transport: %s: order %d/%d, variance %.6g, %d peak(s)",
		s.Name, s.UsedOrder, s.RequestedOrder, s.NoiseVariance, len(s.Peaks))
	for i, p := range s.Peaks {
		applog.Debugf("transport: %s: peak %d at %.4f Hz, %.2f dB, %.4f Hz wide",
			s.Name, i+1, p.Frequency, p.PowerDB, p.WidthHz)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
