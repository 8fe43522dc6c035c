package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintBlockRebase(t *testing.T) {
	b := ConstraintBlock{
		{Code: Free},
		{Code: Factor, C1: 0, C2: 2.0},
		{Code: Delta, C1: 1, C2: 0.5},
	}

	b.Rebase(3)

	assert.Equal(t, Constraint{Code: Free}, b[0])
	assert.Equal(t, float64(3), b[1].C1)
	assert.Equal(t, float64(4), b[2].C1)
}

func TestConstraintBlockValidate(t *testing.T) {
	ok := ConstraintBlock{{Code: Free}, {Code: Factor, C1: 0}}
	require.NoError(t, ok.Validate(2))

	badRef := ConstraintBlock{{Code: Factor, C1: 5}}
	assert.Error(t, badRef.Validate(1))

	badQuote := ConstraintBlock{{Code: Quoted, C1: 2, C2: 1}}
	assert.Error(t, badQuote.Validate(1))
}

func TestConstraintCodeString(t *testing.T) {
	assert.Equal(t, "FACTOR", Factor.String())
	assert.Equal(t, "IGNORE", Ignore.String())
	assert.True(t, Factor.References())
	assert.False(t, Free.References())
}

func TestConstraintBlockRebaseLayout(t *testing.T) {
	// peak 1 (group 1, old 3-per-peak stride) FACTOR-tied to peak 0's FWHM
	// (old index 2); widening to a 4-per-peak stride must move the
	// reference to index 2 still (group 0 is unaffected) while a same-group
	// reference moves with its group.
	b := ConstraintBlock{
		{Code: Positive}, {Code: Free}, {Code: Positive},
		{Code: Positive}, {Code: Free}, {Code: Factor, C1: 2, C2: 1.0},
	}

	b.RebaseLayout(3, 4)

	assert.Equal(t, float64(2), b[5].C1)
}

func TestConstraintBlockRebaseLayoutSameGroupFollowsGroup(t *testing.T) {
	// a FACTOR referencing slot 2 of peak group 1 (old index 5 under a
	// 3-per-peak stride) must land on slot 2 of group 1 under a 4-per-peak
	// stride, i.e. index 6, not 5.
	b := ConstraintBlock{{Code: Factor, C1: 5, C2: 1.0}}

	b.RebaseLayout(3, 4)

	assert.Equal(t, float64(6), b[0].C1)
}

func TestConstraintBlockRebaseLayoutNoopWhenEqual(t *testing.T) {
	b := ConstraintBlock{{Code: Factor, C1: 2, C2: 1.0}}
	b.RebaseLayout(3, 3)
	assert.Equal(t, float64(2), b[0].C1)
}

func TestNewFreeBlock(t *testing.T) {
	b := NewFreeBlock(4)
	require.Len(t, b, 4)
	for _, c := range b {
		assert.Equal(t, Free, c.Code)
	}
}
