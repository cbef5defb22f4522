package services

const (
	TechnologyWindOnshore = "wind_energy_onshore"
	TechnologyHydro       = "hydro"
	TechnologySolar       = "solar"
	TechnologyThermal     = "thermal"

	unknownText = "Unknown"
)

var technologyCodes = map[string]string{
	"Eolien onshore": TechnologyWindOnshore,
	"Hydraulique":    TechnologyHydro,
	"Solaire":        TechnologySolar,
	"Thermique":      TechnologyThermal,
}

// TechnologyCode maps the publisher's French technology label to its code.
// Labels outside the mapping pass through unchanged.
func TechnologyCode(label string) string {
	if code, ok := technologyCodes[label]; ok {
		return code
	}
	return label
}
