package tui

// Category is one section of the configuration menu
type Category struct {
	ID          string
	Name        string
	Description string
}

var Categories = []Category{
	{ID: "bundle", Name: "Bundle", Description: "Profile, size limit, checksums and binary files"},
	{ID: "patterns", Name: "Patterns", Description: "Allow and deny globs for discovery"},
	{ID: "unbundle", Name: "Unbundle", Description: "Output directory, overwrite and checksum policies"},
	{ID: "logging", Name: "Logging", Description: "Log level and format"},
}

func GetCategoryByID(id string) *Category {
	for i := range Categories {
		if Categories[i].ID == id {
			return &Categories[i]
		}
	}
	return nil
}

func GetCategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}
