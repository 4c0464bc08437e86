package models

// Display-name tables shared by import and export. The board's UI language is
// Turkish, so the spreadsheet columns carry these names rather than the enum
// keys. Each lookup falls back to the first enum value when the name is not
// recognized.

var categoryNames = map[TaskCategory]string{
	CategorySourcing:       "KAYNAK BULMA",
	CategoryHiring:         "İŞE ALIM",
	CategoryPlacementLegal: "YERLEŞTİRME VE HUKUK",
}

var timePhaseNames = map[TimePhase]string{
	Phase30Days:    "30 Gün",
	Phase60Days:    "60 Gün",
	Phase90Days:    "90 Gün",
	PhaseEndOfYear: "Yıl Sonu",
}

var statusNames = map[TaskStatus]string{
	StatusDone:    "Tamamlandı",
	StatusOngoing: "Devam Ediyor",
	StatusPending: "Beklemede",
}

// Categories lists all task categories in display order.
func Categories() []TaskCategory {
	return []TaskCategory{CategorySourcing, CategoryHiring, CategoryPlacementLegal}
}

// TimePhases lists all time phases in chronological order.
func TimePhases() []TimePhase {
	return []TimePhase{Phase30Days, Phase60Days, Phase90Days, PhaseEndOfYear}
}

// Statuses lists all task statuses.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusPending, StatusOngoing, StatusDone}
}

// DisplayName returns the localized name for a category, or the raw key when
// the category is unknown.
func (c TaskCategory) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// DisplayName returns the localized name for a time phase, or the raw key
// when the phase is unknown.
func (p TimePhase) DisplayName() string {
	if name, ok := timePhaseNames[p]; ok {
		return name
	}
	return string(p)
}

// DisplayName returns the localized name for a status, or the raw key when
// the status is unknown.
func (s TaskStatus) DisplayName() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return string(s)
}

// CategoryFromName maps a localized display name back to its category key.
// Unrecognized names map to CategorySourcing.
func CategoryFromName(name string) TaskCategory {
	for key, display := range categoryNames {
		if display == name {
			return key
		}
	}
	return CategorySourcing
}

// TimePhaseFromName maps a localized display name back to its time-phase key.
// Unrecognized names map to Phase30Days.
func TimePhaseFromName(name string) TimePhase {
	for key, display := range timePhaseNames {
		if display == name {
			return key
		}
	}
	return Phase30Days
}

// StatusFromName maps a localized display name back to its status key.
// Unrecognized names map to StatusPending.
func StatusFromName(name string) TaskStatus {
	for key, display := range statusNames {
		if display == name {
			return key
		}
	}
	return StatusPending
}
