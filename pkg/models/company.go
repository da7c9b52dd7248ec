package models

// Contact is an alert recipient from the company profile.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role" yaml:"role"`
}

// Company is the monitored enterprise. One per deployment, seeded once,
// read-only to the pipeline.
type Company struct {
	ID                  string             `json:"id" yaml:"id"`
	Name                string             `json:"name" yaml:"name"`
	Industry            string             `json:"industry" yaml:"industry"`
	RawMaterials        []string           `json:"raw_materials" yaml:"raw_materials"`
	MaterialCriticality map[string]float64 `json:"material_criticality" yaml:"material_criticality"` // material -> [1,10]
	InventoryDays       map[string]float64 `json:"inventory_days" yaml:"inventory_days"`             // material -> buffer days
	KeyGeographies      []string           `json:"key_geographies" yaml:"key_geographies"`
	Contacts            []Contact          `json:"contacts" yaml:"contacts"`
}

// CriticalityFor returns the criticality for a material, defaulting to 5
// when the profile does not list it.
func (c *Company) CriticalityFor(material string) float64 {
	if v, ok := c.MaterialCriticality[material]; ok {
		return v
	}
	return 5
}

// BufferDaysFor returns the inventory buffer in days for a material,
// defaulting to 0.
func (c *Company) BufferDaysFor(material string) float64 {
	return c.InventoryDays[material]
}
