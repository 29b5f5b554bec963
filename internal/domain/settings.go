package domain

type SpecialsPolicy string

const (
	// SpecialsSmart keeps only significant specials (movies) from season 0.
	SpecialsSmart SpecialsPolicy = "smart"
	SpecialsAll   SpecialsPolicy = "all"
	SpecialsNone  SpecialsPolicy = "none"
)

func (p SpecialsPolicy) Valid() bool {
	return p == SpecialsSmart || p == SpecialsAll || p == SpecialsNone
}

// Settings are the tracking options the core consumes.
type Settings struct {
	// Plafond souple passé à la vue timeline.
	MaxNotifications int `json:"maxNotifications"`
	// Les entrées vues plus vieilles que ce nombre de jours sont archivées.
	// 0 (ou négatif) désactive l'archivage.
	ArchiveWatchedAfterDays int `json:"archiveWatchedAfterDays"`
	// Affichage uniquement (layout Go).
	DateFormat      string         `json:"dateFormat"`
	IncludeSpecials SpecialsPolicy `json:"includeSpecials"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxNotifications:        100,
		ArchiveWatchedAfterDays: 30,
		DateFormat:              DateLayout,
		IncludeSpecials:         SpecialsSmart,
	}
}
