package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

func sequence(values ...int) func(int) int {
	i := 0
	return func(int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestCodeGeneratorRetriesCollisions(t *testing.T) {
	taken := map[string]bool{"100000": true, "100001": true}
	gen := NewCodeGenerator(func(_ context.Context, code string) (bool, error) {
		return taken[code], nil
	}, 5)
	gen.intn = sequence(0, 1, 2)

	var budget Budget
	code, err := gen.Next(context.Background(), &budget)
	require.NoError(t, err)
	assert.Equal(t, "100002", code)
	assert.Equal(t, 3, budget.Used())
}

func TestCodeGeneratorBounds(t *testing.T) {
	gen := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, nil }, 1)

	gen.intn = func(n int) int { return n - 1 }
	code, err := gen.Next(context.Background(), &Budget{})
	require.NoError(t, err)
	assert.Equal(t, "999999", code)

	random := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, nil }, 1)
	for i := 0; i < 100; i++ {
		code, err := random.Next(context.Background(), &Budget{})
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestCodeGeneratorExhaustsBudget(t *testing.T) {
	calls := 0
	gen := NewCodeGenerator(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}, 20)

	var budget Budget
	_, err := gen.Next(context.Background(), &budget)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCodeSpaceExhausted))
	assert.Equal(t, 20, calls)

	_, err = gen.Next(context.Background(), &budget)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCodeSpaceExhausted))
	assert.Equal(t, 20, calls)
}

func TestCodeGeneratorPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	gen := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, boom }, 3)

	_, err := gen.Next(context.Background(), &Budget{})
	require.ErrorIs(t, err, boom)
}
