package service

import (
	"context"
	"math/rand/v2"
	"strconv"

	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// CodeExistsFunc reports whether a code is already held by any appointment.
type CodeExistsFunc func(ctx context.Context, code string) (bool, error)

// CodeGenerator draws six digit booking codes uniformly from [100000, 999999].
type CodeGenerator struct {
	exists      CodeExistsFunc
	maxAttempts int
	intn        func(n int) int
}

// NewCodeGenerator builds a generator bounded by maxAttempts draws per allocation.
func NewCodeGenerator(exists CodeExistsFunc, maxAttempts int) *CodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	return &CodeGenerator{exists: exists, maxAttempts: maxAttempts, intn: rand.IntN}
}

// Budget tracks draws across one allocation, including retries after an
// insert lost a race on the code.
type Budget struct {
	used int
}

// Used reports how many draws were consumed.
func (b *Budget) Used() int { return b.used }

// Next returns a code not currently stored, consuming draws from budget.
func (g *CodeGenerator) Next(ctx context.Context, budget *Budget) (string, error) {
	for budget.used < g.maxAttempts {
		budget.used++
		code := strconv.Itoa(codeMin + g.intn(codeMax-codeMin+1))
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.NewCodeSpaceExhausted(budget.used)
}
