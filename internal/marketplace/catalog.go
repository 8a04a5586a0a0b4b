package marketplace

import "github.com/Sajeel041/FIX-POINT/internal/model"

type CatalogEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var catalog = []CatalogEntry{
	{ID: 1, Name: string(model.SkillElectrician), Icon: "⚡", Description: "Electrical repairs and installations"},
	{ID: 2, Name: string(model.SkillPlumber), Icon: "🔧", Description: "Plumbing repairs and installations"},
	{ID: 3, Name: string(model.SkillACTechnician), Icon: "❄️", Description: "AC repair and maintenance"},
	{ID: 4, Name: string(model.SkillCarpenter), Icon: "🪚", Description: "Carpentry and woodwork"},
	{ID: 5, Name: string(model.SkillPainter), Icon: "🎨", Description: "Interior and exterior painting"},
}

// Catalog returns a copy of the static list of trades.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}
