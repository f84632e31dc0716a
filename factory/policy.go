/*
Package factory provides JSON to Go leave policy conversion.

PURPOSE:
  Converts JSON policy definitions into leave.Settings and per-type
  allowances. This enables policy configuration without code changes -
  HR can define a deployment's policy in JSON, and the factory creates
  the proper Go structs.

WHY JSON?
  - Non-developers can modify the policy
  - Easy integration with an admin UI
  - Version control for policy definitions

JSON SCHEMA:
  {
    "id": "us-standard",
    "name": "US Standard",
    "workweek": {"start_day": 1, "end_day": 5},
    "exclude_holidays": true,
    "weekend_bridging": true,
    "allowances": {
      "annual": "20",
      "sick": "10",
      "personal": "3"
    }
  }

  Allowance amounts are decimal strings so fractional grants ("12.5")
  survive parsing exactly.

KEY FEATURES:
  - Validates the workweek before returning
  - Built-in presets for common deployments
  - Load from raw JSON, a file, or by preset ID

SEE ALSO:
  - leave/types.go: Settings and Days
  - api/scenarios.go: Demo seeding built on these presets
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// POLICY DEFINITION - The JSON shape
// =============================================================================

// WorkweekDef is the JSON shape of a workweek, weekday indices 0-6.
type WorkweekDef struct {
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`
}

// PolicyDef is the JSON shape of a deployment policy.
type PolicyDef struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Workweek        WorkweekDef       `json:"workweek"`
	ExcludeHolidays bool              `json:"exclude_holidays"`
	WeekendBridging bool              `json:"weekend_bridging"`
	Allowances      map[string]string `json:"allowances"`
}

// =============================================================================
// POLICY - The parsed result
// =============================================================================

// Policy is a parsed deployment policy: the engine settings plus the
// default allowance granted per leave type.
type Policy struct {
	ID         string
	Name       string
	Settings   leave.Settings
	Allowances map[leave.LeaveType]leave.Days
}

// FromJSON parses and validates a policy definition.
func FromJSON(data []byte) (*Policy, error) {
	var def PolicyDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return FromDef(def)
}

// FromFile reads and parses a policy definition file.
func FromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return FromJSON(data)
}

// FromDef converts a definition into a validated policy.
func FromDef(def PolicyDef) (*Policy, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("policy id is required")
	}

	settings := leave.Settings{
		Workweek: leave.WorkweekConfig{
			StartDay: time.Weekday(def.Workweek.StartDay),
			EndDay:   time.Weekday(def.Workweek.EndDay),
		},
		Flags: leave.Flags{
			ExcludeHolidays: def.ExcludeHolidays,
			WeekendBridging: def.WeekendBridging,
		},
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", def.ID, err)
	}

	allowances := make(map[leave.LeaveType]leave.Days, len(def.Allowances))
	for leaveType, amount := range def.Allowances {
		days, err := leave.ParseDays(amount)
		if err != nil {
			return nil, fmt.Errorf("policy %s: invalid allowance for %s: %w", def.ID, leaveType, err)
		}
		if days.IsNegative() {
			return nil, fmt.Errorf("policy %s: negative allowance for %s", def.ID, leaveType)
		}
		allowances[leave.LeaveType(leaveType)] = days
	}

	return &Policy{
		ID:         def.ID,
		Name:       def.Name,
		Settings:   settings,
		Allowances: allowances,
	}, nil
}

// =============================================================================
// PRESETS - Common deployments
// =============================================================================

// Preset returns a built-in policy by ID. Known presets:
//
//	us-standard:   Mon-Fri week, 20 annual / 10 sick / 3 personal
//	gulf-standard: Sun-Thu week, 22 annual / 15 sick
func Preset(id string) (*Policy, error) {
	def, ok := presets[id]
	if !ok {
		return nil, fmt.Errorf("unknown policy preset %q", id)
	}
	return FromDef(def)
}

// PresetIDs lists the built-in preset identifiers.
func PresetIDs() []string {
	return []string{"us-standard", "gulf-standard"}
}

var presets = map[string]PolicyDef{
	"us-standard": {
		ID:              "us-standard",
		Name:            "US Standard",
		Workweek:        WorkweekDef{StartDay: 1, EndDay: 5},
		ExcludeHolidays: true,
		WeekendBridging: true,
		Allowances: map[string]string{
			"annual":   "20",
			"sick":     "10",
			"personal": "3",
		},
	},
	"gulf-standard": {
		ID:              "gulf-standard",
		Name:            "Gulf Standard",
		Workweek:        WorkweekDef{StartDay: 0, EndDay: 4},
		ExcludeHolidays: true,
		WeekendBridging: true,
		Allowances: map[string]string{
			"annual": "22",
			"sick":   "15",
		},
	},
}
