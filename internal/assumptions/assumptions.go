// Package assumptions defines the set of editable business assumptions that
// drive a studio projection, along with their defaults and the rules for
// applying partial updates to them.
//
// A Set is a plain value. Every update helper returns a new Set and leaves the
// receiver untouched, so a projection is always computed from one consistent
// snapshot of inputs.
package assumptions

// Set holds every numeric input of the financial model. JSON names match the
// keys used by saved models.
type Set struct {
	// Membership tiers
	StudentFee     float64 `json:"studentFee"`
	StudentMembers float64 `json:"studentMembers"`
	StudentGrowth  float64 `json:"studentGrowth"`
	ArtistFee      float64 `json:"artistFee"`
	ArtistMembers  float64 `json:"artistMembers"`
	ArtistGrowth   float64 `json:"artistGrowth"`
	ProFee         float64 `json:"proFee"`
	ProMembers     float64 `json:"proMembers"`
	ProGrowth      float64 `json:"proGrowth"`

	// Hourly services
	RehearsalRate    float64 `json:"rehearsalRate"`
	RehearsalHours   float64 `json:"rehearsalHours"`
	RehearsalGrowth  float64 `json:"rehearsalGrowth"`
	RecordingRate    float64 `json:"recordingRate"`
	RecordingHours   float64 `json:"recordingHours"`
	RecordingGrowth  float64 `json:"recordingGrowth"`
	LessonRate       float64 `json:"lessonRate"`
	LessonHours      float64 `json:"lessonHours"`
	LessonGrowth     float64 `json:"lessonGrowth"`
	LessonCommission float64 `json:"lessonCommission"`

	// Events
	StreamingRate   float64 `json:"streamingRate"`
	StreamingEvents float64 `json:"streamingEvents"`
	StreamingGrowth float64 `json:"streamingGrowth"`
	ShowcaseRate    float64 `json:"showcaseRate"`
	ShowcaseEvents  float64 `json:"showcaseEvents"`
	ShowcaseGrowth  float64 `json:"showcaseGrowth"`
	CorporateRate   float64 `json:"corporateRate"`
	CorporateEvents float64 `json:"corporateEvents"`
	CorporateGrowth float64 `json:"corporateGrowth"`

	// Ancillary revenue
	MerchAvg     float64 `json:"merchAvg"`
	MerchSales   float64 `json:"merchSales"`
	MerchGrowth  float64 `json:"merchGrowth"`
	RentalAvg    float64 `json:"rentalAvg"`
	RentalSales  float64 `json:"rentalSales"`
	RentalGrowth float64 `json:"rentalGrowth"`
	BevAvg       float64 `json:"bevAvg"`
	BevSales     float64 `json:"bevSales"`
	BevGrowth    float64 `json:"bevGrowth"`

	// Startup costs
	Buildout       float64 `json:"buildout"`
	Equipment      float64 `json:"equipment"`
	Streaming      float64 `json:"streaming"`
	OpCapital      float64 `json:"opCapital"`
	Legal          float64 `json:"legal"`
	Marketing      float64 `json:"marketing"`
	ContingencyPct float64 `json:"contingencyPct"`

	// Monthly fixed costs
	Rent             float64 `json:"rent"`
	Utilities        float64 `json:"utilities"`
	Insurance        float64 `json:"insurance"`
	MonthlyMarketing float64 `json:"monthlyMarketing"`
	Software         float64 `json:"software"`
	Maintenance      float64 `json:"maintenance"`
	Misc             float64 `json:"misc"`

	// Staffing
	TechDirectorRate    float64 `json:"techDirectorRate"`
	TechDirectorHours   float64 `json:"techDirectorHours"`
	GeneralManagerRate  float64 `json:"generalManagerRate"`
	GeneralManagerHours float64 `json:"generalManagerHours"`
	StudentWorkerRate   float64 `json:"studentWorkerRate"`
	StudentWorkerHours  float64 `json:"studentWorkerHours"`
	EventStaffRate      float64 `json:"eventStaffRate"`
	EventStaffHours     float64 `json:"eventStaffHours"`

	// Owner draw, applied in years 2 and 3 only
	OwnerDrawY2 float64 `json:"ownerDrawY2"`
	OwnerDrawY3 float64 `json:"ownerDrawY3"`

	// Capacity
	DailyHours        float64 `json:"dailyHours"`
	DaysPerWeek       float64 `json:"daysPerWeek"`
	LiveRoomLockout   float64 `json:"liveRoomLockout"`
	UtilizationTarget float64 `json:"utilizationTarget"`

	// Market sizing
	PrimaryMarket   float64 `json:"primaryMarket"`
	SecondaryMarket float64 `json:"secondaryMarket"`
	Weekenders      float64 `json:"weekenders"`
	ConversionRate  float64 `json:"conversionRate"`
}

// Defaults returns the launch-plan assumptions the dashboard starts with.
func Defaults() Set {
	return Set{
		StudentFee: 65, StudentMembers: 25, StudentGrowth: 0.20,
		ArtistFee: 175, ArtistMembers: 12, ArtistGrowth: 0.25,
		ProFee: 350, ProMembers: 4, ProGrowth: 0.15,

		RehearsalRate: 35, RehearsalHours: 40, RehearsalGrowth: 0.15,
		RecordingRate: 100, RecordingHours: 20, RecordingGrowth: 0.25,
		LessonRate: 80, LessonHours: 30, LessonGrowth: 0.20, LessonCommission: 0.35,

		StreamingRate: 200, StreamingEvents: 3, StreamingGrowth: 0.30,
		ShowcaseRate: 400, ShowcaseEvents: 2, ShowcaseGrowth: 0.25,
		CorporateRate: 500, CorporateEvents: 1, CorporateGrowth: 0.20,

		MerchAvg: 35, MerchSales: 30, MerchGrowth: 0.30,
		RentalAvg: 30, RentalSales: 20, RentalGrowth: 0.20,
		BevAvg: 5, BevSales: 100, BevGrowth: 0.25,

		Buildout: 30000, Equipment: 15000, Streaming: 3000, OpCapital: 25000,
		Legal: 8000, Marketing: 5000, ContingencyPct: 0.15,

		Rent: 2500, Utilities: 500, Insurance: 400, MonthlyMarketing: 500,
		Software: 250, Maintenance: 400, Misc: 300,

		StudentWorkerRate: 20, StudentWorkerHours: 80,
		EventStaffRate: 22, EventStaffHours: 16,

		OwnerDrawY2: 40000, OwnerDrawY3: 80000,

		DailyHours: 12, DaysPerWeek: 7, LiveRoomLockout: 40, UtilizationTarget: 0.55,

		PrimaryMarket: 1664, SecondaryMarket: 2809, Weekenders: 225, ConversionRate: 0.012,
	}
}
