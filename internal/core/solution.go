package core

import (
	"fmt"
	"time"
)

// FrameRate is the native simulation rate: one step per 30 Hz frame.
const FrameRate = 30

// Solution is the ordered sequence of effective pads applied to the
// simulation, one per step, from run start to the win (or truncation).
type Solution []Pad

// Frames returns the number of steps in the solution.
func (s Solution) Frames() int {
	return len(s)
}

// Duration returns the game time covered by the solution at FrameRate.
func (s Solution) Duration() time.Duration {
	return time.Duration(len(s)) * time.Second / FrameRate
}

// Clone returns a copy with its own backing array.
func (s Solution) Clone() Solution {
	if s == nil {
		return nil
	}
	out := make(Solution, len(s))
	copy(out, s)
	return out
}

// Truncate returns a copy of the first n pads. n larger than the solution
// returns a full copy.
func (s Solution) Truncate(n int) Solution {
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	out := make(Solution, n)
	copy(out, s[:n])
	return out
}

// MarshalBinary encodes the solution as the concatenation of its pads.
func (s Solution) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, len(s)*PadSize)
	for _, p := range s {
		buf, _ = p.AppendBinary(buf)
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Solution) UnmarshalBinary(data []byte) error {
	parsed, err := ParseSolution(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSolution decodes a solution from its wire format.
func ParseSolution(data []byte) (Solution, error) {
	if len(data)%PadSize != 0 {
		return nil, fmt.Errorf("core: solution length %d is not a multiple of %d", len(data), PadSize)
	}
	sol := make(Solution, len(data)/PadSize)
	for i := range sol {
		if err := sol[i].UnmarshalBinary(data[i*PadSize : (i+1)*PadSize]); err != nil {
			return nil, fmt.Errorf("core: pad %d: %w", i, err)
		}
	}
	return sol, nil
}
