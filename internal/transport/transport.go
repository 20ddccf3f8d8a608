// SPDX-License-Identifier: MIT

// Package transport publishes analysis results to the outside world. A
// Transport receives *analysis.Result values (or anything JSON encodable) and
// must be safe for concurrent use.
package transport

import (
	"errors"

	"arpsd/internal/analysis"
)

// Transport defines a generic interface for sending results or events.
type Transport interface {
	Send(data any) error
	Close() error
}

// Payload converts a result into the value that goes on the wire. Other values
// pass through unchanged.
func Payload(data any) any {
	switch v := data.(type) {
	case *analysis.Result:
		return v.Summary()
	case analysis.Result:
		return v.Summary()
	default:
		return data
	}
}

// Multi fans every Send out to all of its transports.
type Multi []Transport

// Send delivers data to every transport, even after a failure, and returns the
// first error.
func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every transport and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)
