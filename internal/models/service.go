package models

type ServiceCatalogEntry struct {
	ID              string  `yaml:"-" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Description     string  `yaml:"description" json:"description"`
	DurationMinutes int     `yaml:"duration_minutes" json:"duration_minutes"`
	Price           float64 `yaml:"price" json:"price"`
}

// DefaultServices is the catalog seeded when no override is configured.
func DefaultServices() []ServiceCatalogEntry {
	return []ServiceCatalogEntry{
		{Name: "Haircut", Description: "Full haircut", DurationMinutes: 30, Price: 50},
		{Name: "Beard", Description: "Trim and line-up", DurationMinutes: 20, Price: 30},
		{Name: "Haircut + Beard", Description: "Complete combo", DurationMinutes: 50, Price: 70},
		{Name: "Beard Design", Description: "Custom beard design", DurationMinutes: 25, Price: 40},
	}
}
