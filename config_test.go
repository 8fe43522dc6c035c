package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCaseInsensitiveGetSet(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Set("Sensitivity", 4.0))
	assert.Equal(t, 4.0, c.Float("SENSITIVITY"))
}

func TestConfigMergeClampsSensitivity(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Merge(map[string]any{"sensitivity": 0.1}))
	assert.Equal(t, 1.0, c.Float("sensitivity"))
}

func TestConfigMergeClampsFwhmPoints(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Merge(map[string]any{"fwhmpoints": 1}))
	assert.Equal(t, 3, c.Int("fwhmpoints"))
}

func TestConfigMergeClampsYscalingZero(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Merge(map[string]any{"yscaling": 0.0}))
	assert.Equal(t, 1.0, c.Float("yscaling"))
}

func TestConfigSetTypeMismatchErrors(t *testing.T) {
	c := NewConfig()
	err := c.Set("sensitivity", "not-a-number")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestConfigSnapshotIsIndependent(t *testing.T) {
	c := NewConfig()
	snap := c.Snapshot()

	require.NoError(t, c.Set("sensitivity", 9.0))
	assert.NotEqual(t, c.Float("sensitivity"), snap.Float("sensitivity"))
}

func TestConfigBoolDefaults(t *testing.T) {
	c := NewConfig()
	assert.False(t, c.Bool("autofwhm"))
	assert.True(t, c.Bool("positiveheightareaflag"))
	assert.True(t, c.Bool("samesloperatioflag"))
	assert.True(t, c.Bool("samearearatioflag"))
}
