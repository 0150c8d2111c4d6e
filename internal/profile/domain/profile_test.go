package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	assert.Equal(t, "Asia/Seoul", p.Timezone)
	assert.Equal(t, AutonomyL2, p.Autonomy)
	assert.Equal(t, 30, p.SlotMinutes)
	assert.Len(t, p.WorkWindows, 5)
	assert.Empty(t, p.WorkWindows["sat"])
	require.NotNil(t, p.Lunch)
	assert.Equal(t, "12:00", p.Lunch.Start)
	require.Len(t, p.DeepWork, 1)
	assert.Equal(t, "tue", p.DeepWork[0].Day)
	assert.Equal(t, 0.8, p.DeepWork[0].Weight)
}

func TestProfileValidate(t *testing.T) {
	t.Run("bad timezone", func(t *testing.T) {
		p := DefaultProfile()
		p.Timezone = "Mars/Olympus"
		assert.ErrorIs(t, p.Validate(), ErrInvalidTimezone)
	})

	t.Run("bad slot", func(t *testing.T) {
		p := DefaultProfile()
		p.SlotMinutes = 3
		assert.ErrorIs(t, p.Validate(), ErrInvalidSlot)

		p.SlotMinutes = 240
		assert.ErrorIs(t, p.Validate(), ErrInvalidSlot)
	})

	t.Run("bad autonomy", func(t *testing.T) {
		p := DefaultProfile()
		p.Autonomy = "L9"
		assert.ErrorIs(t, p.Validate(), ErrInvalidAutonomy)
	})
}

func TestAutonomyRequiresApproval(t *testing.T) {
	for _, level := range []Autonomy{AutonomyL0, AutonomyL1, AutonomyL2} {
		assert.True(t, level.RequiresApproval(), string(level))
	}
	for _, level := range []Autonomy{AutonomyL3, AutonomyL4} {
		assert.False(t, level.RequiresApproval(), string(level))
	}
}

func TestParseAutonomy(t *testing.T) {
	a, err := ParseAutonomy("")
	require.NoError(t, err)
	assert.Equal(t, AutonomyL2, a)

	a, err = ParseAutonomy("L0")
	require.NoError(t, err)
	assert.Equal(t, AutonomyL0, a)

	a, err = ParseAutonomy("L4")
	require.NoError(t, err)
	assert.Equal(t, AutonomyL4, a)

	_, err = ParseAutonomy("full")
	assert.ErrorIs(t, err, ErrInvalidAutonomy)
}
