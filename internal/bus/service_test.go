package bus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInput struct {
	fractions []float64
	levels    []int
}

func (f *fakeInput) OnUserSet(value float64) int {
	f.fractions = append(f.fractions, value)
	return int(math.Floor(value * 100))
}

func (f *fakeInput) SetLevel(level int) int {
	f.levels = append(f.levels, level)
	return level
}

func TestServiceTracksControlState(t *testing.T) {
	s := NewService()

	level, visible, derr := s.Get()
	require.Nil(t, derr)
	assert.Equal(t, int32(-1), level)
	assert.False(t, visible)

	s.SetVisible(true)
	s.SetValue(0.42)

	level, visible, derr = s.Get()
	require.Nil(t, derr)
	assert.Equal(t, int32(42), level)
	assert.True(t, visible)
}

func TestServiceSetForwardsToInput(t *testing.T) {
	s := NewService()

	_, derr := s.Set(0.5)
	require.NotNil(t, derr, "Set before Bind must fail")

	in := &fakeInput{}
	s.Bind(in)

	level, derr := s.Set(0.456)
	require.Nil(t, derr)
	assert.Equal(t, int32(45), level)
	assert.Equal(t, []float64{0.456}, in.fractions)

	require.Nil(t, s.SetLevel(30))
	assert.Equal(t, []int{30}, in.levels)

	_, derr = s.Set(math.NaN())
	assert.NotNil(t, derr)
}

func TestServiceCloseWithoutConnect(t *testing.T) {
	assert.NoError(t, NewService().Close())
}
