package note

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// IDPrefix starts every note identifier.
const IDPrefix = "note_"

// IDGenerator issues timestamp-derived note ids of the form
// note_<unix seconds>.<microseconds>. Ids are strictly increasing for the
// lifetime of the generator, even when the clock stalls or steps back.
type IDGenerator struct {
	mu   sync.Mutex
	last int64 // microseconds of the last issued or observed id
	now  func() time.Time
}

// NewIDGenerator creates a generator. A nil clock uses time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id and the instant it encodes.
func (g *IDGenerator) Next() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	micros := g.now().UnixMicro()
	if micros <= g.last {
		micros = g.last + 1
	}
	g.last = micros

	return FormatID(micros), time.UnixMicro(micros).UTC()
}

// Observe records an existing id so later ids sort after it.
// Ids that were not produced by FormatID are ignored.
func (g *IDGenerator) Observe(id string) {
	micros, ok := ParseID(id)
	if !ok {
		return
	}

	g.mu.Lock()
	if micros > g.last {
		g.last = micros
	}
	g.mu.Unlock()
}

// FormatID renders a microsecond timestamp as a note id.
func FormatID(micros int64) string {
	return fmt.Sprintf("%s%d.%06d", IDPrefix, micros/1_000_000, micros%1_000_000)
}

// ParseID extracts the microsecond timestamp from an id made by FormatID.
func ParseID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, IDPrefix)
	if !ok {
		return 0, false
	}

	secPart, fracPart, ok := strings.Cut(rest, ".")
	if !ok || len(fracPart) != 6 {
		return 0, false
	}

	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return 0, false
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil || frac < 0 {
		return 0, false
	}

	return sec*1_000_000 + frac, true
}
