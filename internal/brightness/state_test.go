package brightness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentFromFraction(t *testing.T) {
	assert.Equal(t, 45, PercentFromFraction(0.456))
	assert.Equal(t, 99, PercentFromFraction(0.999))
	assert.Equal(t, 0, PercentFromFraction(0.009))
	assert.Equal(t, 100, PercentFromFraction(1))
	assert.Equal(t, 100, PercentFromFraction(7))
	assert.Equal(t, 0, PercentFromFraction(-1))
	assert.Equal(t, 0, PercentFromFraction(math.NaN()))
	assert.Equal(t, 100, PercentFromFraction(math.Inf(1)))
	assert.Equal(t, 0, PercentFromFraction(math.Inf(-1)))
	assert.Equal(t, 100, PercentFromFraction(1e17))
	assert.Equal(t, 100, PercentFromFraction(1e20))
	assert.Equal(t, 0, PercentFromFraction(-1e20))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "brightness unknown hidden", State{}.String())
	assert.Equal(t, "brightness 42 visible", State{Level: 42, Known: true, Visible: true}.String())
	assert.Equal(t, "brightness 42 hidden", State{Level: 42, Known: true}.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "visible", Visible.String())
	assert.Equal(t, "hidden", Hidden.String())
	assert.Equal(t, "skipped", Skipped.String())
}
