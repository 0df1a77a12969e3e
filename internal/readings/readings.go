// Package readings maps raw inverter detail payloads into the typed,
// unit-tagged values the agent publishes. The cloud reports most values as
// strings, so everything numeric goes through CoerceFloat.
package readings

import (
	"fmt"
	"strconv"
	"time"

	"github.com/soliswatch/solis-agent/internal/models"
)

// InverterState is the coarse operating state reported by the inverter.
type InverterState string

const (
	StateOffline    InverterState = "offline"
	StateStandby    InverterState = "standby"
	StateGenerating InverterState = "generating"
)

// Definition describes one published reading derived from the raw field map.
type Definition struct {
	Key   string // stable reading identifier
	Field string // field name in the inverter detail payload
	Name  string
	Unit  string
}

// Catalog lists every numeric reading the agent publishes per inverter.
var Catalog = []Definition{
	{Key: "current_power", Field: "pac", Name: "Current Power", Unit: "kW"},
	{Key: "dc_power", Field: "dcPac", Name: "DC Power", Unit: "kW"},
	{Key: "energy_today", Field: "eToday", Name: "Energy Today", Unit: "kWh"},
	{Key: "energy_month", Field: "eMonth", Name: "Energy This Month", Unit: "kWh"},
	{Key: "energy_year", Field: "eYear", Name: "Energy This Year", Unit: "MWh"},
	{Key: "energy_total", Field: "eTotal", Name: "Total Energy", Unit: "MWh"},
	{Key: "pv1_voltage", Field: "uPv1", Name: "PV String 1 Voltage", Unit: "V"},
	{Key: "pv1_current", Field: "iPv1", Name: "PV String 1 Current", Unit: "A"},
	{Key: "pv1_power", Field: "pow1", Name: "PV String 1 Power", Unit: "W"},
	{Key: "grid_voltage", Field: "uAc1", Name: "Grid Voltage", Unit: "V"},
	{Key: "grid_current", Field: "iAc1", Name: "Grid Current", Unit: "A"},
	{Key: "grid_frequency", Field: "fac", Name: "Grid Frequency", Unit: "Hz"},
	{Key: "inverter_temperature", Field: "inverterTemperature", Name: "Inverter Temperature", Unit: "°C"},
	{Key: "daily_runtime", Field: "fullHour", Name: "Generation Hours Today", Unit: "h"},
}

// stateField is the raw field carrying the operating state code.
const stateField = "currentState"

// Reading is one unit-tagged numeric value. Value is nil when the field was
// missing, blank or non-numeric.
type Reading struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
}

// Payload is the full typed reading set published for one inverter.
type Payload struct {
	SN         string             `json:"sn"`
	CapturedAt time.Time          `json:"captured_at"`
	State      InverterState      `json:"inverter_state"`
	Readings   map[string]Reading `json:"readings"`
}

// CoerceFloat converts raw API values to floats when possible. The cloud
// mixes strings and numbers for the same fields across firmware versions.
func CoerceFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if t == "" {
			return nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// StateFromRaw maps the cloud's operating state code to an InverterState.
// Anything outside the documented codes reports offline.
func StateFromRaw(v any) InverterState {
	switch fmt.Sprint(v) {
	case "2":
		return StateStandby
	case "3":
		return StateGenerating
	default:
		return StateOffline
	}
}

// FromSnapshot builds the typed reading payload for one inverter snapshot.
func FromSnapshot(sn string, snap models.DeviceSnapshot) Payload {
	values := make(map[string]Reading, len(Catalog))
	for _, def := range Catalog {
		values[def.Key] = Reading{
			Value: CoerceFloat(snap.Fields[def.Field]),
			Unit:  def.Unit,
		}
	}

	return Payload{
		SN:         sn,
		CapturedAt: snap.CapturedAt,
		State:      StateFromRaw(snap.Fields[stateField]),
		Readings:   values,
	}
}
