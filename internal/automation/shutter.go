package automation

import (
	"fmt"

	"github.com/mj1618/dslr-remote/internal/model"
)

// SelectShutterSpeed picks the selector entry for an exposure of seconds: the
// slowest speed not longer than seconds, or the fastest speed when seconds is
// shorter than all of them. Bulb targets the bulb entry instead.
func SelectShutterSpeed(speeds []model.ShutterSpeed, seconds float64, bulb bool) (model.ShutterSpeed, error) {
	if bulb {
		for _, s := range speeds {
			if s.Bulb {
				return s, nil
			}
		}
		return model.ShutterSpeed{}, fmt.Errorf("%w: camera has no bulb shutter speed", model.ErrNotImplemented)
	}

	var best, fastest *model.ShutterSpeed
	for i := range speeds {
		s := &speeds[i]
		if s.Bulb {
			continue
		}
		if fastest == nil || s.Duration < fastest.Duration {
			fastest = s
		}
		if s.Duration <= seconds && (best == nil || s.Duration > best.Duration) {
			best = s
		}
	}
	if best != nil {
		return *best, nil
	}
	if fastest != nil {
		return *fastest, nil
	}
	return model.ShutterSpeed{}, fmt.Errorf("%w: camera has no shutter speeds", model.ErrInvalidValue)
}
