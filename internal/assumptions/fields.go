package assumptions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Kind describes how a field's value should be read.
type Kind int

const (
	// Currency values are dollar amounts.
	Currency Kind = iota
	// Count values are members, hours, events or sales per month.
	Count
	// Fraction values are rates such as 0.20 for 20%.
	Fraction
)

// Field describes one named input of a Set.
type Field struct {
	Name  string
	Label string
	Group string
	Kind  Kind
	ref   func(*Set) *float64
}

var fields = []Field{
	{"studentFee", "Student Fee", "Membership", Currency, func(s *Set) *float64 { return &s.StudentFee }},
	{"studentMembers", "Student Members", "Membership", Count, func(s *Set) *float64 { return &s.StudentMembers }},
	{"studentGrowth", "Student Growth", "Membership", Fraction, func(s *Set) *float64 { return &s.StudentGrowth }},
	{"artistFee", "Artist Fee", "Membership", Currency, func(s *Set) *float64 { return &s.ArtistFee }},
	{"artistMembers", "Artist Members", "Membership", Count, func(s *Set) *float64 { return &s.ArtistMembers }},
	{"artistGrowth", "Artist Growth", "Membership", Fraction, func(s *Set) *float64 { return &s.ArtistGrowth }},
	{"proFee", "Pro Fee", "Membership", Currency, func(s *Set) *float64 { return &s.ProFee }},
	{"proMembers", "Pro Members", "Membership", Count, func(s *Set) *float64 { return &s.ProMembers }},
	{"proGrowth", "Pro Growth", "Membership", Fraction, func(s *Set) *float64 { return &s.ProGrowth }},

	{"rehearsalRate", "Rehearsal Rate", "Hourly Services", Currency, func(s *Set) *float64 { return &s.RehearsalRate }},
	{"rehearsalHours", "Rehearsal Hours", "Hourly Services", Count, func(s *Set) *float64 { return &s.RehearsalHours }},
	{"rehearsalGrowth", "Rehearsal Growth", "Hourly Services", Fraction, func(s *Set) *float64 { return &s.RehearsalGrowth }},
	{"recordingRate", "Recording Rate", "Hourly Services", Currency, func(s *Set) *float64 { return &s.RecordingRate }},
	{"recordingHours", "Recording Hours", "Hourly Services", Count, func(s *Set) *float64 { return &s.RecordingHours }},
	{"recordingGrowth", "Recording Growth", "Hourly Services", Fraction, func(s *Set) *float64 { return &s.RecordingGrowth }},
	{"lessonRate", "Lesson Rate", "Hourly Services", Currency, func(s *Set) *float64 { return &s.LessonRate }},
	{"lessonHours", "Lesson Hours", "Hourly Services", Count, func(s *Set) *float64 { return &s.LessonHours }},
	{"lessonGrowth", "Lesson Growth", "Hourly Services", Fraction, func(s *Set) *float64 { return &s.LessonGrowth }},
	{"lessonCommission", "Lesson Commission", "Hourly Services", Fraction, func(s *Set) *float64 { return &s.LessonCommission }},

	{"streamingRate", "Streaming Rate", "Events", Currency, func(s *Set) *float64 { return &s.StreamingRate }},
	{"streamingEvents", "Streaming Events", "Events", Count, func(s *Set) *float64 { return &s.StreamingEvents }},
	{"streamingGrowth", "Streaming Growth", "Events", Fraction, func(s *Set) *float64 { return &s.StreamingGrowth }},
	{"showcaseRate", "Showcase Rate", "Events", Currency, func(s *Set) *float64 { return &s.ShowcaseRate }},
	{"showcaseEvents", "Showcase Events", "Events", Count, func(s *Set) *float64 { return &s.ShowcaseEvents }},
	{"showcaseGrowth", "Showcase Growth", "Events", Fraction, func(s *Set) *float64 { return &s.ShowcaseGrowth }},
	{"corporateRate", "Corporate Rate", "Events", Currency, func(s *Set) *float64 { return &s.CorporateRate }},
	{"corporateEvents", "Corporate Events", "Events", Count, func(s *Set) *float64 { return &s.CorporateEvents }},
	{"corporateGrowth", "Corporate Growth", "Events", Fraction, func(s *Set) *float64 { return &s.CorporateGrowth }},

	{"merchAvg", "Merch Average Sale", "Ancillary", Currency, func(s *Set) *float64 { return &s.MerchAvg }},
	{"merchSales", "Merch Sales", "Ancillary", Count, func(s *Set) *float64 { return &s.MerchSales }},
	{"merchGrowth", "Merch Growth", "Ancillary", Fraction, func(s *Set) *float64 { return &s.MerchGrowth }},
	{"rentalAvg", "Rental Average Sale", "Ancillary", Currency, func(s *Set) *float64 { return &s.RentalAvg }},
	{"rentalSales", "Rental Sales", "Ancillary", Count, func(s *Set) *float64 { return &s.RentalSales }},
	{"rentalGrowth", "Rental Growth", "Ancillary", Fraction, func(s *Set) *float64 { return &s.RentalGrowth }},
	{"bevAvg", "Beverage Average Sale", "Ancillary", Currency, func(s *Set) *float64 { return &s.BevAvg }},
	{"bevSales", "Beverage Sales", "Ancillary", Count, func(s *Set) *float64 { return &s.BevSales }},
	{"bevGrowth", "Beverage Growth", "Ancillary", Fraction, func(s *Set) *float64 { return &s.BevGrowth }},

	{"buildout", "Buildout", "Startup", Currency, func(s *Set) *float64 { return &s.Buildout }},
	{"equipment", "Equipment", "Startup", Currency, func(s *Set) *float64 { return &s.Equipment }},
	{"streaming", "Streaming Setup", "Startup", Currency, func(s *Set) *float64 { return &s.Streaming }},
	{"opCapital", "Operating Capital", "Startup", Currency, func(s *Set) *float64 { return &s.OpCapital }},
	{"legal", "Legal & Permits", "Startup", Currency, func(s *Set) *float64 { return &s.Legal }},
	{"marketing", "Marketing Launch", "Startup", Currency, func(s *Set) *float64 { return &s.Marketing }},
	{"contingencyPct", "Contingency", "Startup", Fraction, func(s *Set) *float64 { return &s.ContingencyPct }},

	{"rent", "Rent", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Rent }},
	{"utilities", "Utilities", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Utilities }},
	{"insurance", "Insurance", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Insurance }},
	{"monthlyMarketing", "Marketing", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.MonthlyMarketing }},
	{"software", "Software", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Software }},
	{"maintenance", "Maintenance", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Maintenance }},
	{"misc", "Misc", "Monthly Costs", Currency, func(s *Set) *float64 { return &s.Misc }},

	{"techDirectorRate", "Technical Director Rate", "Staffing", Currency, func(s *Set) *float64 { return &s.TechDirectorRate }},
	{"techDirectorHours", "Technical Director Hours", "Staffing", Count, func(s *Set) *float64 { return &s.TechDirectorHours }},
	{"generalManagerRate", "General Manager Rate", "Staffing", Currency, func(s *Set) *float64 { return &s.GeneralManagerRate }},
	{"generalManagerHours", "General Manager Hours", "Staffing", Count, func(s *Set) *float64 { return &s.GeneralManagerHours }},
	{"studentWorkerRate", "Student Worker Rate", "Staffing", Currency, func(s *Set) *float64 { return &s.StudentWorkerRate }},
	{"studentWorkerHours", "Student Worker Hours", "Staffing", Count, func(s *Set) *float64 { return &s.StudentWorkerHours }},
	{"eventStaffRate", "Event Staff Rate", "Staffing", Currency, func(s *Set) *float64 { return &s.EventStaffRate }},
	{"eventStaffHours", "Event Staff Hours", "Staffing", Count, func(s *Set) *float64 { return &s.EventStaffHours }},

	{"ownerDrawY2", "Owner Draw Year 2", "Owner Draw", Currency, func(s *Set) *float64 { return &s.OwnerDrawY2 }},
	{"ownerDrawY3", "Owner Draw Year 3", "Owner Draw", Currency, func(s *Set) *float64 { return &s.OwnerDrawY3 }},

	{"dailyHours", "Daily Hours", "Capacity", Count, func(s *Set) *float64 { return &s.DailyHours }},
	{"daysPerWeek", "Days Per Week", "Capacity", Count, func(s *Set) *float64 { return &s.DaysPerWeek }},
	{"liveRoomLockout", "Live Room Lockout", "Capacity", Count, func(s *Set) *float64 { return &s.LiveRoomLockout }},
	{"utilizationTarget", "Utilization Target", "Capacity", Fraction, func(s *Set) *float64 { return &s.UtilizationTarget }},

	{"primaryMarket", "Primary Market", "Market", Count, func(s *Set) *float64 { return &s.PrimaryMarket }},
	{"secondaryMarket", "Secondary Market", "Market", Count, func(s *Set) *float64 { return &s.SecondaryMarket }},
	{"weekenders", "Weekenders", "Market", Count, func(s *Set) *float64 { return &s.Weekenders }},
	{"conversionRate", "Conversion Rate", "Market", Fraction, func(s *Set) *float64 { return &s.ConversionRate }},
}

// lookup finds fields by wire name.
var lookup = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// folded maps lower-cased names back to wire names.
var folded = func() map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[strings.ToLower(f.Name)] = f.Name
	}
	return m
}()

// Fields lists every input in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Value returns the field's value in s.
func (f Field) Value(s Set) float64 {
	return *f.ref(&s)
}

// Get returns the named field's value.
func (s Set) Get(name string) (float64, bool) {
	f, ok := lookup[name]
	if !ok {
		return 0, false
	}
	return f.Value(s), true
}

// With returns a copy of s with one field replaced.
func (s Set) With(name string, value float64) (Set, error) {
	f, ok := lookup[name]
	if !ok {
		return s, fmt.Errorf("unknown assumption %q", name)
	}
	*f.ref(&s) = value
	return s, nil
}

// Merge returns a copy of s where every known key present in data has been
// overwritten. Absent keys keep their value from s and unknown keys are
// ignored. Keys must match wire names exactly. Values that are not numeric
// become 0.
func (s Set) Merge(data map[string]interface{}) Set {
	for key, raw := range data {
		f, ok := lookup[key]
		if !ok {
			continue
		}
		*f.ref(&s) = Coerce(raw)
	}
	return s
}

// Values returns the set as a name to value map.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value(s)
	}
	return out
}

// UnknownKeys returns the sorted keys of data that do not name a field.
func UnknownKeys(data map[string]interface{}) []string {
	var unknown []string
	for key := range data {
		if _, ok := lookup[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// FoldKeys returns a copy of data with keys that differ from a wire name only
// in case renamed to the wire name, for sources such as viper that lower-case
// every key. A key already spelled as the wire name wins over folded ones, and
// folded duplicates resolve in sorted key order so the result is stable.
// Unknown keys are kept as they are.
func FoldKeys(data map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(data))
	exact := make(map[string]bool, len(data))
	for _, key := range keys {
		name, ok := folded[strings.ToLower(key)]
		if !ok {
			out[key] = data[key]
			continue
		}
		if exact[name] {
			continue
		}
		if _, seen := out[name]; seen && key != name {
			continue
		}
		out[name] = data[key]
		exact[name] = key == name
	}
	return out
}

// Decode parses a JSON object and merges it onto base.
func Decode(raw []byte, base Set) (Set, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return base, nil
	}

	var data map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return base, fmt.Errorf("failed to decode assumptions: %w", err)
	}
	return base.Merge(data), nil
}

// numberPrefix matches the decimal number at the start of a string.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat reads the number a string starts with, ignoring leading
// whitespace and anything after it, so "12abc" is 12 and "abc" is 0.
func leadingFloat(raw string) float64 {
	match := numberPrefix.FindString(strings.TrimLeftFunc(raw, unicode.IsSpace))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// Coerce converts an arbitrary decoded value to a number. Anything that does
// not read as a finite number becomes 0.
func Coerce(raw interface{}) float64 {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		v = parsed
	case string:
		v = leadingFloat(n)
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
