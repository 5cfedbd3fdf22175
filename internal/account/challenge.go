// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/oops"
)

// Reset challenge parameters.
const (
	ChallengeValidity = 5 * time.Minute
	MinChallengeCode  = 100000
	MaxChallengeCode  = 999999
)

// ChallengeGenerator issues password reset challenges.
type ChallengeGenerator interface {
	Generate() (ResetChallenge, error)
}

// RandomChallengeGenerator draws six-digit codes from crypto/rand.
type RandomChallengeGenerator struct {
	clock clockwork.Clock
}

// NewRandomChallengeGenerator creates a generator that stamps expiries using clock.
// A nil clock uses the wall clock.
func NewRandomChallengeGenerator(clock clockwork.Clock) *RandomChallengeGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RandomChallengeGenerator{clock: clock}
}

var challengeSpan = big.NewInt(MaxChallengeCode - MinChallengeCode + 1)

// Generate returns a code uniform in [MinChallengeCode, MaxChallengeCode]
// that expires ChallengeValidity from now.
func (g *RandomChallengeGenerator) Generate() (ResetChallenge, error) {
	n, err := rand.Int(rand.Reader, challengeSpan)
	if err != nil {
		return ResetChallenge{}, oops.Code("ACCOUNT_CHALLENGE_FAILED").Wrap(err)
	}
	return ResetChallenge{
		Code:      MinChallengeCode + int(n.Int64()),
		ExpiresAt: g.clock.Now().UTC().Add(ChallengeValidity),
	}, nil
}

var _ ChallengeGenerator = (*RandomChallengeGenerator)(nil)
