package modelmesh

import (
	"errors"
	"fmt"
)

// ErrMaxToolRounds is returned by Converse when the model keeps requesting
// tools beyond the configured number of rounds.
var ErrMaxToolRounds = errors.New("modelmesh: exceeded max tool rounds")

// RoundLimiter enforces a maximum number of tool round trips per conversation.
// A limiter belongs to a single Converse call and is not safe for concurrent use.
type RoundLimiter struct {
	max   int
	count int
}

// NewRoundLimiter creates a new limiter with a max number of rounds.
// If max == 0, unlimited rounds are allowed.
func NewRoundLimiter(max int) *RoundLimiter {
	return &RoundLimiter{max: max}
}

// Increment records a round and returns an error if the limit is exceeded.
func (rl *RoundLimiter) Increment() error {
	rl.count++
	if rl.max > 0 && rl.count > rl.max {
		return fmt.Errorf("%w: %d", ErrMaxToolRounds, rl.max)
	}
	return nil
}

// Count returns the number of rounds recorded.
func (rl *RoundLimiter) Count() int { return rl.count }

// Remaining returns how many rounds are left before hitting the limit.
func (rl *RoundLimiter) Remaining() int {
	if rl.max == 0 {
		return -1 // unlimited
	}
	return max(rl.max-rl.count, 0)
}
