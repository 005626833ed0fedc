package landmark

import (
	"strings"
	"testing"

	"landmark-picker/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGrid(t *testing.T) {
	s, err := NewSession(5)
	require.NoError(t, err)
	for _, c := range []struct {
		ref  ImageRef
		x, y int
	}{
		{Fixed, 10, 20}, {Moving, 30, 40}, {Fixed, 50, 60}, {Moving, 70, 80},
	} {
		_, err := s.RecordClick(c.ref, geometry.Pt(c.x, c.y))
		require.NoError(t, err)
	}

	got := s.Table().Format(0)
	want := "10 20 30 40 \n" +
		"50 60 70 80 \n" +
		"0 0 0 0 \n" +
		"0 0 0 0 \n" +
		"0 0 0 0 \n"
	assert.Equal(t, want, got)
	assert.Len(t, strings.Split(strings.TrimSuffix(got, "\n"), "\n"), 5)
}

func TestFormatHalfRowUsesSentinel(t *testing.T) {
	s, err := NewSession(2)
	require.NoError(t, err)
	_, err = s.RecordClick(Fixed, geometry.Pt(7, 8))
	require.NoError(t, err)

	assert.Equal(t, "7 8 -1 -1 \n-1 -1 -1 -1 \n", s.Table().Format(-1))
}

func TestTablePointsAndClone(t *testing.T) {
	s, err := NewSession(3)
	require.NoError(t, err)
	_, _ = s.RecordClick(Fixed, geometry.Pt(1, 2))
	_, _ = s.RecordClick(Moving, geometry.Pt(3, 4))
	_, _ = s.RecordClick(Fixed, geometry.Pt(5, 6))

	clone := s.Table().Clone()
	assert.Equal(t, map[int]geometry.Point{0: geometry.Pt(1, 2), 1: geometry.Pt(5, 6)}, clone.Points(Fixed))
	assert.Equal(t, map[int]geometry.Point{0: geometry.Pt(3, 4)}, clone.Points(Moving))

	s.Reset()
	assert.True(t, clone.Row(0).Complete())
	assert.False(t, s.Table().Row(0).Complete())
}

func TestImageRef(t *testing.T) {
	assert.Equal(t, Moving, Fixed.Other())
	assert.Equal(t, Fixed, Moving.Other())
	assert.Equal(t, "fixed", Fixed.String())
	assert.Equal(t, "moving", Moving.String())
}
