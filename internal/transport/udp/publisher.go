// SPDX-License-Identifier: MIT

// Package udp publishes the peaks of each analysis result as one compact
// binary datagram.
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"arpsd/internal/analysis"
	applog "arpsd/internal/log"
	"arpsd/internal/peaks"
	"arpsd/internal/transport"
)

/*
Packet layout (BigEndian):

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Peak Count        | uint16         | 2            | Number of peaks (N)     |
| Peaks             | [N][3]float32  | N * 12       | Hz, dB, -3 dB width Hz  |
+-----------------------------------------------------------------------------+
*/

const headerSize = 4 + 8 + 2

// MaxPeaks is the most peaks one packet carries; extra peaks are dropped
// weakest first.
const MaxPeaks = (1472 - headerSize) / 12

// Packet is the decoded form of one datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Peaks     [][3]float32
}

// Publisher sends each result it receives as one packet.
type Publisher struct {
	sender *Sender

	mu          sync.Mutex
	sequenceNum uint32
	buf         bytes.Buffer // reused between packets
}

// NewPublisher wraps sender. The publisher owns the sender from here on.
func NewPublisher(sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("udp: sender cannot be nil")
	}
	return &Publisher{sender: sender}, nil
}

// Send packs the peaks of a *analysis.Result (or analysis.Summary) and sends
// them. Other values are rejected.
func (p *Publisher) Send(data any) error {
	s, ok := transport.Payload(data).(analysis.Summary)
	if !ok {
		return fmt.Errorf("udp: cannot publish %T", data)
	}

	list := s.Peaks
	if len(list) > MaxPeaks {
		applog.Warnf("udp: %s has %d peaks, sending the %d strongest", s.Name, len(list), MaxPeaks)
		list = strongest(list, MaxPeaks)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequenceNum++
	p.buf.Reset()
	if err := EncodePacket(&p.buf, p.sequenceNum, time.Now().UnixNano(), list); err != nil {
		return fmt.Errorf("udp: packing: %w", err)
	}
	if err := p.sender.Send(p.buf.Bytes()); err != nil {
		return err
	}
	applog.Debugf("udp: sent packet %d (%d bytes, %d peaks)", p.sequenceNum, p.buf.Len(), len(list))
	return nil
}

// Close closes the sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}

var _ transport.Transport = (*Publisher)(nil)

// EncodePacket writes one packet for list to w.
func EncodePacket(w *bytes.Buffer, seq uint32, timestamp int64, list []peaks.Peak) error {
	if len(list) > math.MaxUint16 {
		return fmt.Errorf("too many peaks: %d", len(list))
	}
	payload := make([][3]float32, len(list))
	for i, pk := range list {
		payload[i] = [3]float32{float32(pk.Frequency), float32(pk.PowerDB), float32(pk.WidthHz)}
	}

	err := binary.Write(w, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(w, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(w, binary.BigEndian, uint16(len(list)))
	}
	if err == nil {
		err = binary.Write(w, binary.BigEndian, payload)
	}
	return err
}

// DecodePacket parses one datagram.
func DecodePacket(data []byte) (Packet, error) {
	var pkt Packet
	if len(data) < headerSize {
		return pkt, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &pkt.Sequence); err != nil {
		return pkt, err
	}
	if err := binary.Read(r, binary.BigEndian, &pkt.Timestamp); err != nil {
		return pkt, err
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return pkt, err
	}
	if want := headerSize + int(count)*12; len(data) != want {
		return pkt, fmt.Errorf("packet length %d, want %d for %d peaks", len(data), want, count)
	}
	pkt.Peaks = make([][3]float32, count)
	if err := binary.Read(r, binary.BigEndian, pkt.Peaks); err != nil {
		return pkt, err
	}
	return pkt, nil
}

// strongest keeps the n most powerful peaks, in their input order.
func strongest(list []peaks.Peak, n int) []peaks.Peak {
	keep := make([]bool, len(list))
	for range n {
		best := -1
		for i, pk := range list {
			if !keep[i] && (best < 0 || pk.PowerDB > list[best].PowerDB) {
				best = i
			}
		}
		keep[best] = true
	}
	out := make([]peaks.Peak, 0, n)
	for i, pk := range list {
		if keep[i] {
			out = append(out, pk)
		}
	}
	return out
}
