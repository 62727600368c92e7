package cpd

// Series is a labels/values pair fed to one chart.
type Series struct {
	Labels []Text   `json:"labels"`
	Values []Number `json:"values"`
}

type DepartmentSummary struct {
	Department        string `json:"department"`
	TotalStaff        Number `json:"totalStaff"`
	Participants      Number `json:"participants"`
	ParticipationRate Number `json:"participationRate"`
	NonParticipants   Number `json:"nonParticipants"`
}

type FilterInfo struct {
	AvailableYears []Text `json:"availableYears"`
	SelectedYear   Text   `json:"selectedYear"`
	CurrentYear    Text   `json:"currentYear"`
	ShowAllYears   bool   `json:"showAllYears"`
}

// KPIs are the headline counters of the dashboard.
type KPIs struct {
	TotalStaff         Number `json:"totalStaff"`
	TotalParticipants  Number `json:"totalParticipants"`
	TotalRegistrations Number `json:"totalRegistrations"`
	TotalEvents        Number `json:"totalEvents"`
	AvgCPDHours        Number `json:"avgCPDHours"`
}

// Dashboard is the getDashboardData payload. Every field is optional on the
// wire; absent numbers decode as zero.
type Dashboard struct {
	KPIs                 KPIs                `json:"kpis"`
	EventsPerMonth       *Series             `json:"eventsPerMonth"`
	ParticipantsPerEvent *Series             `json:"participantsPerEvent"`
	ParticipantsPerDept  *Series             `json:"participantsPerDept"`
	ParticipantsPerUnit  *Series             `json:"participantsPerUnit"`
	StaffPerDept         *Series             `json:"staffPerDept"`
	DepartmentSummary    []DepartmentSummary `json:"departmentSummary"`
	FilterInfo           *FilterInfo         `json:"filterInfo"`
}
