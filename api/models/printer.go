// api/models/printer.go
package models

// Printer represents a 3D printer in the lab
type Printer struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Model   string `json:"model"`
	Name    string `json:"name,omitempty"`
}

// DisplayName returns the name shown on dashboards
func (p *Printer) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Company == "" {
		return p.Model
	}
	return p.Company + " " + p.Model
}
