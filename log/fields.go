package log

import (
	"net/netip"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Internal marks the error severe, due to issues in code.
	Internal = zap.String("severe_error", "internal")
)

func Stage(stage string) zap.Field {
	return zap.String("stage", stage)
}

func Addr(addr netip.Addr) zap.Field {
	return zap.Stringer("ip", addr)
}

type elapsed struct {
	t   time.Time
	key string
}

func (v *elapsed) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddDuration(v.key, time.Since(v.t))
	return nil
}

// Elapsed records the duration between the field's creation and the moment
// it is encoded.
func Elapsed(key string) zap.Field {
	return zap.Inline(&elapsed{
		t:   time.Now(),
		key: key,
	})
}
