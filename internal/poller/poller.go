// Package poller pulls pending raw events out of the instrumentation perf
// buffer, one batch per collection cycle. It is the sole producer of the
// buffers the pump consumes; each buffer is copied out of the reader so the
// decode call owns it exclusively.
package poller

import (
	"errors"
	"os"
	"time"

	"github.com/cilium/ebpf/perf"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PerfPoller drains a perf.Reader without blocking.
type PerfPoller struct {
	rd  *perf.Reader
	log zerolog.Logger
}

// New wraps an open perf reader.
func New(rd *perf.Reader) *PerfPoller {
	return &PerfPoller{
		rd:  rd,
		log: log.With().Str("component", "poller").Logger(),
	}
}

// Poll returns every record currently pending in the perf buffer plus the
// number of events the kernel dropped because the buffer was full. It
// never blocks waiting for new data: the read deadline is set to now so an
// empty buffer yields an empty batch.
func (p *PerfPoller) Poll() ([][]byte, uint64) {
	p.rd.SetDeadline(time.Now())

	var (
		events [][]byte
		lost   uint64
	)
	for {
		record, err := p.rd.Read()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, perf.ErrClosed) {
				return events, lost
			}
			p.log.Warn().Err(err).Msg("reading from perf buffer")
			return events, lost
		}

		if record.LostSamples > 0 {
			lost += record.LostSamples
			continue
		}

		// The reader may reuse its sample buffer; the decode call needs
		// exclusive ownership.
		buf := make([]byte, len(record.RawSample))
		copy(buf, record.RawSample)
		events = append(events, buf)
	}
}

// Close releases the underlying reader.
func (p *PerfPoller) Close() error {
	return p.rd.Close()
}
