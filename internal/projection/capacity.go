package projection

import (
	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/constants"
)

const (
	// CapacityBuffer is the share of room hours held back for turnover and
	// maintenance, taken after lockouts.
	CapacityBuffer = 0.15

	// ControlRoomLockout is the fixed monthly lockout of the control room.
	ControlRoomLockout = 6

	// StretchedUtilization is the ceiling above which the studio is treated
	// as over capacity.
	StretchedUtilization = 0.80
)

// Monthly room hours consumed per member of each tier and per event type.
const (
	StudentHoursPerMember = 4
	ArtistHoursPerMember  = 6
	ProHoursPerMember     = 8

	RecordingLoadFactor = 3

	StreamingHoursPerEvent = 4
	ShowcaseHoursPerEvent  = 5
	CorporateHoursPerEvent = 6
)

// Capacity status values.
const (
	StatusWithinTarget = "within-target"
	StatusStretched    = "stretched"
	StatusOverCapacity = "over-capacity"
)

// Capacity compares bookable room hours with the hours the plan consumes.
type Capacity struct {
	WeeklyHours          float64 `json:"weeklyHours"`
	MonthlyHours         float64 `json:"monthlyHours"`
	LiveRoomNet          float64 `json:"liveRoomNet"`
	ControlRoomNet       float64 `json:"controlRoomNet"`
	TotalCapacity        float64 `json:"totalCapacity"`
	MemberHoursRequired  float64 `json:"memberHoursRequired"`
	ServiceHoursRequired float64 `json:"serviceHoursRequired"`
	EventHoursRequired   float64 `json:"eventHoursRequired"`
	TotalHoursRequired   float64 `json:"totalHoursRequired"`
	UtilizationRequired  Ratio   `json:"utilizationRequired"`
	UtilizationTarget    float64 `json:"utilizationTarget"`
	Status               string  `json:"status"`
}

// UtilizationScenario is the annual revenue potential at a given utilization
// and blended hourly rate.
type UtilizationScenario struct {
	Label       string  `json:"util"`
	Utilization float64 `json:"utilization"`
	HourlyRate  float64 `json:"hourlyRate"`
	Revenue     float64 `json:"revenue"`
	Current     bool    `json:"current"`
}

var utilizationScenarios = []struct {
	label string
	util  float64
	rate  float64
}{
	{"40%", 0.4, 45},
	{"55%", 0.55, 50},
	{"70%", 0.7, 55},
	{"85%", 0.85, 60},
}

// currentScenarioBand is how close the required utilization must be to the
// 55% scenario for it to be flagged as current.
const currentScenarioBand = 0.1

func projectCapacity(a assumptions.Set) Capacity {
	var c Capacity
	c.WeeklyHours = a.DailyHours * a.DaysPerWeek
	c.MonthlyHours = c.WeeklyHours * constants.WeeksPerMonth
	c.LiveRoomNet = netRoomHours(c.MonthlyHours, a.LiveRoomLockout)
	c.ControlRoomNet = netRoomHours(c.MonthlyHours, ControlRoomLockout)
	c.TotalCapacity = c.LiveRoomNet + c.ControlRoomNet

	c.MemberHoursRequired = (a.StudentMembers * StudentHoursPerMember) +
		(a.ArtistMembers * ArtistHoursPerMember) +
		(a.ProMembers * ProHoursPerMember)
	c.ServiceHoursRequired = a.RehearsalHours + (a.RecordingHours * RecordingLoadFactor) + a.LessonHours
	c.EventHoursRequired = (a.StreamingEvents * StreamingHoursPerEvent) +
		(a.ShowcaseEvents * ShowcaseHoursPerEvent) +
		(a.CorporateEvents * CorporateHoursPerEvent)
	c.TotalHoursRequired = c.MemberHoursRequired + c.ServiceHoursRequired + c.EventHoursRequired
	c.UtilizationRequired = Ratio(c.TotalHoursRequired / c.TotalCapacity)

	c.UtilizationTarget = a.UtilizationTarget
	c.Status = CapacityStatus(float64(c.UtilizationRequired), a.UtilizationTarget)
	return c
}

// netRoomHours removes the lockout and then the turnover buffer from the
// room's monthly hours.
func netRoomHours(monthlyHours, lockout float64) float64 {
	return monthlyHours - lockout - ((monthlyHours - lockout) * CapacityBuffer)
}

// CapacityStatus classifies a required utilization against the target. A NaN
// utilization is reported as over capacity.
func CapacityStatus(required, target float64) string {
	switch {
	case required <= target:
		return StatusWithinTarget
	case required <= StretchedUtilization:
		return StatusStretched
	default:
		return StatusOverCapacity
	}
}

func scenariosFor(c Capacity) []UtilizationScenario {
	out := make([]UtilizationScenario, 0, len(utilizationScenarios))
	for _, s := range utilizationScenarios {
		scenario := UtilizationScenario{
			Label:       s.label,
			Utilization: s.util,
			HourlyRate:  s.rate,
			Revenue:     c.TotalCapacity * s.util * s.rate * constants.MonthsPerYear,
		}
		if s.label == "55%" {
			diff := float64(c.UtilizationRequired) - 0.55
			if diff < 0 {
				diff = -diff
			}
			scenario.Current = diff < currentScenarioBand
		}
		out = append(out, scenario)
	}
	return out
}
