// Package serial allocates human-readable serial numbers such as BUG-042.
//
// Allocation reads the newest serial and increments it. Nothing is reserved,
// so two concurrent submissions can receive the same serial; callers accept
// that race.
package serial

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
)

const minDigits = 3

// AllocateNext returns the serial following latest. A missing or
// unparseable latest restarts the sequence at PREFIX-001.
func AllocateNext(prefix string, latest *string) string {
	first := format(prefix, 1)
	if latest == nil {
		return first
	}
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-(\d+)`)
	m := re.FindStringSubmatch(*latest)
	if m == nil {
		return first
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return first
	}
	return format(prefix, n+1)
}

func format(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, minDigits, n)
}

// Allocator produces serials backed by a record store.
type Allocator struct {
	store  store.RecordStore
	prefix string
	logger *observability.Logger
}

// NewAllocator creates an allocator for prefix.
func NewAllocator(s store.RecordStore, prefix string, logger *observability.Logger) *Allocator {
	if s == nil {
		panic("NewAllocator: store is nil")
	}
	if logger == nil {
		panic("NewAllocator: logger is nil")
	}
	return &Allocator{store: s, prefix: prefix, logger: logger}
}

// Prefix returns the configured serial prefix.
func (a *Allocator) Prefix() string { return a.prefix }

// Next returns the next serial. When the latest serial cannot be read it
// returns PREFIX-001 together with the read error; the caller decides
// whether to proceed with the fallback.
func (a *Allocator) Next(ctx context.Context) (result0 string, err error) {
	ctx, span := observability.TraceSerialFunction(ctx, "next")
	defer func() {
		span.SetAttributes(observability.AttributeSerial(result0))
		span.End()
	}()

	latest, err := a.store.LatestSerial(ctx)
	if err != nil {
		fallback := AllocateNext(a.prefix, nil)
		a.logger.Error(ctx, "failed to read latest serial, using fallback", err, map[string]interface{}{
			"prefix":   a.prefix,
			"fallback": fallback,
		})
		span.RecordError(err)
		return fallback, err
	}
	return AllocateNext(a.prefix, latest), nil
}
