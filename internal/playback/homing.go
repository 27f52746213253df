package playback

import (
	"context"
	"math"
	"time"

	"github.com/dronepath/autopilot/pkg/core"
)

// SnapEpsilon is added to the tier speed when deciding to snap onto the target.
const SnapEpsilon = 0.01

var speedTiers = []struct {
	above float64
	speed float64
}{
	{8, 0.05},
	{6, 0.04},
	{4, 0.03},
	{2, 0.02},
}

const minSpeed = 0.01

// TierSpeed returns the per-tick speed for the largest remaining per-axis distance.
func TierSpeed(remaining float64) float64 {
	for _, t := range speedTiers {
		if remaining > t.above {
			return t.speed
		}
	}
	return minSpeed
}

// Approach moves current one tick toward target. The tier is chosen from the largest
// remaining per-axis distance and each axis advances independently, snapping onto
// the target once it is closer than speed + SnapEpsilon.
func Approach(current, target core.Vec3) core.Vec3 {
	speed := TierSpeed(target.Sub(current).MaxAbs())
	return core.Vec3{
		X: approachAxis(current.X, target.X, speed),
		Y: approachAxis(current.Y, target.Y, speed),
		Z: approachAxis(current.Z, target.Z, speed),
	}
}

func approachAxis(cur, target, speed float64) float64 {
	d := target - cur
	if math.Abs(d) < speed+SnapEpsilon {
		return target
	}
	return cur + math.Copysign(speed, d)
}

// Advance applies Approach up to ticks times and stops early on arrival.
// It returns the position reached and the number of ticks used.
func Advance(current, target core.Vec3, ticks int) (core.Vec3, int) {
	for i := 0; i < ticks; i++ {
		if current == target {
			return current, i
		}
		current = Approach(current, target)
	}
	return current, ticks
}

// Follow drives a render position toward the cursor once per frame until ctx ends.
// render receives the position reached on each frame. Frames skipped by a slow render
// are caught up so the animation keeps its pace.
func Follow(ctx context.Context, c *Cursor, frame time.Duration, start core.Vec3, render func(core.Vec3)) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	pos := start
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ticks := FramesSince(last, now, frame)
			last = now
			target := c.Position()
			if pos == target {
				continue
			}
			pos, _ = Advance(pos, target, ticks)
			render(pos)
		}
	}
}

// FramesSince counts the whole frames between two ticks, at least one.
func FramesSince(last, now time.Time, frame time.Duration) int {
	n := int(now.Sub(last) / frame)
	if n < 1 {
		return 1
	}
	return n
}
