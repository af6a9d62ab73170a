// Package sampling computes representative frame timestamps for a clip.
package sampling

import (
	"fmt"
	"time"
)

// GuardFraction is the share of the clip duration skipped at each end to
// avoid black frames, slates, and fades.
const GuardFraction = 0.1

// SupportedCounts lists the frame counts the pipeline accepts.
var SupportedCounts = []int{3, 5, 7}

// CountSupported reports whether n is a valid sample count.
func CountSupported(n int) bool {
	for _, c := range SupportedCounts {
		if n == c {
			return true
		}
	}
	return false
}

// Plan returns n strictly increasing timestamps evenly spaced across the
// playable duration, excluding the guard margin at the very start and end.
func Plan(duration time.Duration, n int) ([]time.Duration, error) {
	if !CountSupported(n) {
		return nil, fmt.Errorf("unsupported frame count %d (want 3, 5 or 7)", n)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("non-positive clip duration %s", duration)
	}

	start := time.Duration(float64(duration) * GuardFraction)
	end := time.Duration(float64(duration) * (1 - GuardFraction))
	step := (end - start) / time.Duration(n-1)

	out := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+time.Duration(i)*step)
	}

	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			return nil, fmt.Errorf("clip too short (%s) to sample %d frames", duration, n)
		}
	}
	return out, nil
}
