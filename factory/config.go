/*
Package factory provides JSON to Go payroll configuration conversion.

PURPOSE:
  Converts JSON configuration into positions, shifts, tax policies, and
  the holiday calendar. This enables compensation configuration without
  code changes - HR can define positions and tax tables in JSON, and the
  factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify compensation tables
  - Easy integration with admin UI
  - Version control for configuration
  - Database storage of config documents

JSON SCHEMA:
  {
    "positions": [
      {
        "id": "pos-operator",
        "title": "Machine Operator",
        "base_salary": 60000,
        "type": "Labor",
        "tax_percentage": 2.5,
        "overtime_rate": 1.5,
        "salary_cap": 50000,
        "custom_allowances": [
          {"name": "Tool Allowance", "amount": 1500}
        ],
        "tax_brackets": [
          {"up_to": 600000, "rate": 0},
          {"up_to": 1200000, "rate": 5},
          {"rate": 15}
        ]
      }
    ],
    "shifts": [
      {"id": "day", "name": "Day", "start": "09:00", "end": "17:00"},
      {"id": "night", "name": "Night", "start": "23:00", "end": "07:00"}
    ],
    "holidays": [
      {"date": "2025-08-14", "name": "Independence Day", "recurring": true}
    ]
  }

KEY FEATURES:
  - Validates the whole document before returning anything
  - A malformed tax bracket table is fatal (ConfigurationError), because
    it would corrupt every employee's withholding equally
  - Positions without tax_brackets fall back to the flat tax_percentage

USAGE:
  f := factory.NewConfigFactory()
  cfg, err := f.Parse(jsonStr)
  if err != nil { ... }

  result, err := calc.Run(payroll.RunInput{
      Positions:    cfg.Positions,
      TaxOverrides: cfg.TaxPolicies,
      Calendar:     cfg.Calendar,
      ...
  })

SEE ALSO:
  - hcm/types.go: Position and Shift definitions
  - payroll/tax.go: TaxPolicy and bracket validation
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of the compensation configuration.
type ConfigJSON struct {
	Positions []PositionJSON `json:"positions"`
	Shifts    []ShiftJSON    `json:"shifts"`
	Holidays  []HolidayJSON  `json:"holidays,omitempty"`
}

// PositionJSON represents one position's compensation contract.
type PositionJSON struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	BaseSalary    float64 `json:"base_salary"`
	Type          string  `json:"type"`            // Labor, Management
	Level         string  `json:"level,omitempty"` // management ladder rung
	TaxPercentage float64 `json:"tax_percentage,omitempty"`
	OvertimeRate  float64 `json:"overtime_rate,omitempty"`

	// SalaryCap splits base pay into bank and cash components; omitted
	// means no cap.
	SalaryCap *float64 `json:"salary_cap,omitempty"`

	CustomAllowances []AllowanceJSON `json:"custom_allowances,omitempty"`

	// TaxBrackets switches the position to a bracketed annual policy,
	// overriding tax_percentage.
	TaxBrackets []BracketJSON `json:"tax_brackets,omitempty"`
}

// AllowanceJSON is a named fixed amount on a position.
type AllowanceJSON struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// BracketJSON is one annual tax bracket; omitting up_to marks the
// open-ended top bracket.
type BracketJSON struct {
	UpTo *float64 `json:"up_to,omitempty"`
	Rate float64  `json:"rate"`
}

// ShiftJSON represents a daily work window, "HH:mm" clock times.
type ShiftJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// HolidayJSON represents a company holiday.
type HolidayJSON struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Name      string `json:"name"`
	Recurring bool   `json:"recurring,omitempty"`
}

// =============================================================================
// PARSED CONFIG
// =============================================================================

// Config is the validated, ready-to-use configuration.
type Config struct {
	Positions map[hcm.PositionID]hcm.Position

	// TaxPolicies holds the bracketed overrides; positions absent from
	// this map use their flat percentage.
	TaxPolicies map[hcm.PositionID]payroll.TaxPolicy

	Shifts   map[string]hcm.Shift
	Calendar *hcm.ListHolidayCalendar
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON configuration to Go structs.
type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// Parse parses and validates a JSON configuration document. Nothing is
// returned on error: a half-valid config must never reach a payroll run.
func (f *ConfigFactory) Parse(jsonStr string) (*Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts ConfigJSON into a validated Config.
func (f *ConfigFactory) FromJSON(cj ConfigJSON) (*Config, error) {
	cfg := &Config{
		Positions:   make(map[hcm.PositionID]hcm.Position, len(cj.Positions)),
		TaxPolicies: make(map[hcm.PositionID]payroll.TaxPolicy),
		Shifts:      make(map[string]hcm.Shift, len(cj.Shifts)),
		Calendar:    &hcm.ListHolidayCalendar{},
	}

	for _, pj := range cj.Positions {
		pos, policy, err := parsePosition(pj)
		if err != nil {
			return nil, err
		}
		if _, dup := cfg.Positions[pos.ID]; dup {
			return nil, &hcm.ConfigurationError{
				Field:  fmt.Sprintf("positions[%s]", pos.ID),
				Reason: "duplicate position id",
			}
		}
		cfg.Positions[pos.ID] = pos
		if policy != nil {
			cfg.TaxPolicies[pos.ID] = *policy
		}
	}

	for _, sj := range cj.Shifts {
		shift, err := parseShift(sj)
		if err != nil {
			return nil, err
		}
		if _, dup := cfg.Shifts[shift.ID]; dup {
			return nil, &hcm.ConfigurationError{
				Field:  fmt.Sprintf("shifts[%s]", shift.ID),
				Reason: "duplicate shift id",
			}
		}
		cfg.Shifts[shift.ID] = shift
	}

	for _, hj := range cj.Holidays {
		h, err := parseHoliday(hj)
		if err != nil {
			return nil, err
		}
		cfg.Calendar.Holidays = append(cfg.Calendar.Holidays, h)
	}

	return cfg, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parsePosition(pj PositionJSON) (hcm.Position, *payroll.TaxPolicy, error) {
	if pj.ID == "" {
		return hcm.Position{}, nil, &hcm.ConfigurationError{Field: "positions", Reason: "position id is required"}
	}
	if pj.BaseSalary < 0 {
		return hcm.Position{}, nil, &hcm.ConfigurationError{
			Field:  fmt.Sprintf("positions[%s].base_salary", pj.ID),
			Reason: "base salary must be non-negative",
		}
	}
	if pj.OvertimeRate < 0 {
		return hcm.Position{}, nil, &hcm.ConfigurationError{
			Field:  fmt.Sprintf("positions[%s].overtime_rate", pj.ID),
			Reason: "overtime rate must be non-negative",
		}
	}

	pos := hcm.Position{
		ID:            hcm.PositionID(pj.ID),
		Title:         pj.Title,
		BaseSalary:    hcm.NewMoney(pj.BaseSalary),
		Type:          parseEmployeeType(pj.Type),
		Level:         hcm.ManagementLevel(pj.Level),
		TaxPercentage: decimal.NewFromFloat(pj.TaxPercentage),
		OvertimeRate:  decimal.NewFromFloat(pj.OvertimeRate),
	}

	if pj.SalaryCap != nil {
		cap := hcm.NewMoney(*pj.SalaryCap)
		if cap.IsNegative() {
			return hcm.Position{}, nil, &hcm.ConfigurationError{
				Field:  fmt.Sprintf("positions[%s].salary_cap", pj.ID),
				Reason: "salary cap must be non-negative",
			}
		}
		pos.SalaryCap = &cap
	}

	for _, aj := range pj.CustomAllowances {
		amount := hcm.NewMoney(aj.Amount)
		if amount.IsNegative() {
			return hcm.Position{}, nil, &hcm.ConfigurationError{
				Field:  fmt.Sprintf("positions[%s].custom_allowances[%s]", pj.ID, aj.Name),
				Reason: "allowance amount must be non-negative",
			}
		}
		pos.CustomAllowances = append(pos.CustomAllowances, hcm.CustomAllowance{Name: aj.Name, Amount: amount})
	}

	// The flat percentage is always validated, even when brackets
	// override it: a bad value is a config defect either way.
	if err := payroll.Flat(pos.TaxPercentage).Validate(); err != nil {
		return hcm.Position{}, nil, err
	}

	if len(pj.TaxBrackets) == 0 {
		return pos, nil, nil
	}

	policy := payroll.Bracketed(parseBrackets(pj.TaxBrackets))
	if err := policy.Validate(); err != nil {
		return hcm.Position{}, nil, err
	}
	return pos, &policy, nil
}

func parseBrackets(bjs []BracketJSON) []payroll.TaxBracket {
	brackets := make([]payroll.TaxBracket, 0, len(bjs))
	for _, bj := range bjs {
		b := payroll.TaxBracket{RatePct: decimal.NewFromFloat(bj.Rate)}
		if bj.UpTo != nil {
			edge := hcm.NewMoney(*bj.UpTo)
			b.UpTo = &edge
		}
		brackets = append(brackets, b)
	}
	return brackets
}

func parseEmployeeType(s string) hcm.EmployeeType {
	switch s {
	case "Management":
		return hcm.TypeManagement
	default:
		return hcm.TypeLabor
	}
}

func parseShift(sj ShiftJSON) (hcm.Shift, error) {
	if sj.ID == "" {
		return hcm.Shift{}, &hcm.ConfigurationError{Field: "shifts", Reason: "shift id is required"}
	}
	start, err := hcm.ParseClockTime(sj.Start)
	if err != nil {
		return hcm.Shift{}, &hcm.ConfigurationError{
			Field:  fmt.Sprintf("shifts[%s].start", sj.ID),
			Reason: err.Error(),
		}
	}
	end, err := hcm.ParseClockTime(sj.End)
	if err != nil {
		return hcm.Shift{}, &hcm.ConfigurationError{
			Field:  fmt.Sprintf("shifts[%s].end", sj.ID),
			Reason: err.Error(),
		}
	}
	return hcm.Shift{ID: sj.ID, Name: sj.Name, Start: start, End: end}, nil
}

func parseHoliday(hj HolidayJSON) (hcm.Holiday, error) {
	date, err := hcm.ParseDate(hj.Date)
	if err != nil {
		return hcm.Holiday{}, &hcm.ConfigurationError{
			Field:  fmt.Sprintf("holidays[%s]", hj.Name),
			Reason: err.Error(),
		}
	}
	return hcm.Holiday{Date: date, Name: hj.Name, Recurring: hj.Recurring}, nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToJSON converts a parsed Config back to its JSON form, for admin UIs
// that round-trip the stored document.
func (f *ConfigFactory) ToJSON(cfg *Config) ConfigJSON {
	var cj ConfigJSON

	for _, pos := range cfg.Positions {
		pj := PositionJSON{
			ID:            string(pos.ID),
			Title:         pos.Title,
			BaseSalary:    pos.BaseSalary.Float64(),
			Type:          string(pos.Type),
			Level:         string(pos.Level),
			TaxPercentage: toFloat(pos.TaxPercentage),
			OvertimeRate:  toFloat(pos.OvertimeRate),
		}
		if pos.SalaryCap != nil {
			v := pos.SalaryCap.Float64()
			pj.SalaryCap = &v
		}
		for _, a := range pos.CustomAllowances {
			pj.CustomAllowances = append(pj.CustomAllowances, AllowanceJSON{Name: a.Name, Amount: a.Amount.Float64()})
		}
		if policy, ok := cfg.TaxPolicies[pos.ID]; ok {
			for _, b := range policy.Brackets {
				bj := BracketJSON{Rate: toFloat(b.RatePct)}
				if b.UpTo != nil {
					v := b.UpTo.Float64()
					bj.UpTo = &v
				}
				pj.TaxBrackets = append(pj.TaxBrackets, bj)
			}
		}
		cj.Positions = append(cj.Positions, pj)
	}

	for _, shift := range cfg.Shifts {
		cj.Shifts = append(cj.Shifts, ShiftJSON{
			ID:    shift.ID,
			Name:  shift.Name,
			Start: shift.Start.String(),
			End:   shift.End.String(),
		})
	}

	for _, h := range cfg.Calendar.Holidays {
		cj.Holidays = append(cj.Holidays, HolidayJSON{
			Date:      h.Date.String(),
			Name:      h.Name,
			Recurring: h.Recurring,
		})
	}

	return cj
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
