package overshoot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributionMass(t *testing.T) {
	d := Distribution{0.1, 0.2, 0.3, 0.4}

	assert.InDelta(t, 0.5, d.Mass(1, 3), tolerance)
	assert.InDelta(t, 1.0, d.Mass(-5, 10), tolerance)
	assert.Equal(t, 0.0, d.Mass(3, 1))
}

func TestDistributionMeanSD(t *testing.T) {
	mean, sd, err := Distribution{0.5, 0, 0.5}.MeanSD()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean, tolerance)
	assert.InDelta(t, 1.0, sd, tolerance)

	// sub-probability vectors are normalized
	mean, sd, err = Distribution{0.25, 0, 0.25}.MeanSD()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean, tolerance)
	assert.InDelta(t, 1.0, sd, tolerance)

	_, _, err = Distribution{0, 0}.MeanSD()
	assert.ErrorIs(t, err, ErrZeroMass)

	assert.InDelta(t, 1.0, Distribution{0.5, 0, 0.5}.Mean(), tolerance)
	assert.InDelta(t, 1.0, Distribution{0.5, 0, 0.5}.StdDev(), tolerance)
	assert.Equal(t, 0.0, Distribution{0, 0}.Mean())
}

func TestDistributionValidate(t *testing.T) {
	assert.NoError(t, Distribution{0.5, 0.5}.Validate(tolerance))
	assert.Error(t, Distribution{0.5, 0.4}.Validate(tolerance))
	assert.Error(t, Distribution{1.5, -0.5}.Validate(tolerance))
}

func TestDistributionClone(t *testing.T) {
	d := Distribution{1, 0}
	c := d.Clone()
	c[0] = 0
	assert.Equal(t, 1.0, d[0])
}
