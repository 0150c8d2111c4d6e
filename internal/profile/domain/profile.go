package domain

import (
	"errors"
	"fmt"
	"time"

	scheduling "github.com/aawohq/aawo/internal/scheduling/domain"
)

var (
	ErrInvalidAutonomy = errors.New("autonomy level must be between L0 and L4")
	ErrInvalidTimezone = errors.New("unknown timezone")
	ErrInvalidSlot     = errors.New("slot granularity must be between 5 and 120 minutes")
)

// Autonomy controls how much the assistant may do without approval.
// Schedule changes at L0 through L2 queue an approval request; L3 and
// L4 apply them directly.
type Autonomy string

const (
	AutonomyL0 Autonomy = "L0"
	AutonomyL1 Autonomy = "L1"
	AutonomyL2 Autonomy = "L2"
	AutonomyL3 Autonomy = "L3"
	AutonomyL4 Autonomy = "L4"
)

// ParseAutonomy validates an autonomy level. Empty defaults to L2.
func ParseAutonomy(s string) (Autonomy, error) {
	switch Autonomy(s) {
	case "":
		return AutonomyL2, nil
	case AutonomyL0, AutonomyL1, AutonomyL2, AutonomyL3, AutonomyL4:
		return Autonomy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAutonomy, s)
	}
}

// RequiresApproval reports whether schedule changes at this level must
// go through the approval queue.
func (a Autonomy) RequiresApproval() bool {
	switch a {
	case AutonomyL3, AutonomyL4:
		return false
	default:
		return true
	}
}

// Profile holds the single user's scheduling preferences.
type Profile struct {
	Timezone    string
	WorkWindows scheduling.WeekSchedule
	Lunch       *scheduling.ClockRange
	DeepWork    []scheduling.DeepWorkWindow
	SlotMinutes int
	Autonomy    Autonomy
	UpdatedAt   time.Time
}

// DefaultProfile returns the profile used before the user saves one:
// Mon–Fri 09:00–18:00, lunch 12:00–13:00, deep work Tuesday morning.
func DefaultProfile() *Profile {
	week := scheduling.WeekSchedule{}
	for _, day := range []string{"mon", "tue", "wed", "thu", "fri"} {
		week[day] = []scheduling.ClockRange{{Start: "09:00", End: "18:00"}}
	}
	return &Profile{
		Timezone:    "Asia/Seoul",
		WorkWindows: week,
		Lunch:       &scheduling.ClockRange{Start: "12:00", End: "13:00"},
		DeepWork: []scheduling.DeepWorkWindow{
			{Day: "tue", Start: "10:00", End: "12:00", Weight: 0.8},
		},
		SlotMinutes: 30,
		Autonomy:    AutonomyL2,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, p.Timezone)
	}
	if p.SlotMinutes < 5 || p.SlotMinutes > 120 {
		return ErrInvalidSlot
	}
	if _, err := ParseAutonomy(string(p.Autonomy)); err != nil {
		return err
	}
	return nil
}

// Location resolves the profile timezone.
func (p *Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
