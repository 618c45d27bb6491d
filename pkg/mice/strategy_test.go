package mice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedules(t *testing.T) {
	cases := []struct {
		s    Strategy
		want []Granularity
	}{
		{CellOnly, []Granularity{Cell, Cell, Cell}},
		{ColumnOnly, []Granularity{Column, Column, Column}},
		{SlowFast, []Granularity{Cell, Column, Column}},
		{FastSlow, []Granularity{Column, Column, Cell}},
	}
	for _, c := range cases {
		t.Run(c.s.Name, func(t *testing.T) {
			var got []Granularity
			for i := 0; i < 3; i++ {
				got = append(got, c.s.Schedule(i, 3))
			}
			assert.Equal(t, c.want, got)
		})
	}
}

func TestSingleIterationHybrids(t *testing.T) {
	assert.Equal(t, Cell, SlowFast.Schedule(0, 1))
	assert.Equal(t, Cell, FastSlow.Schedule(0, 1))
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"cell", "Vanilla MICE", " fast-slow ", "FAST MICE", "slow-fast"} {
		s, err := ParseStrategy(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s.Schedule)
	}
	s, err := ParseStrategy("Fast MICE")
	require.NoError(t, err)
	assert.Equal(t, "column", s.Name)

	_, err = ParseStrategy("lightgbm")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}
