// internal/services/compatibility_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/carverse/partsearch-backend/internal/models"
)

// CompatibilityService evaluates fitment rules for parts against a vehicle.
type CompatibilityService struct {
	db *gorm.DB
}

func NewCompatibilityService(db *gorm.DB) *CompatibilityService {
	return &CompatibilityService{db: db}
}

type CompatibilityCheckRequest struct {
	Vehicle Vehicle `json:"vehicle" validate:"required"`
	Strict  bool    `json:"strict,omitempty"`
}

type BatchCompatibilityRequest struct {
	PartIDs []uuid.UUID `json:"part_ids" validate:"required,min=1,max=100"`
	Vehicle Vehicle     `json:"vehicle" validate:"required"`
	Strict  bool        `json:"strict,omitempty"`
}

type CompatibilityResult struct {
	Compatible   bool                      `json:"compatible"`
	Confidence   float64                   `json:"confidence"`
	Level        models.CompatibilityLevel `json:"level"`
	Message      string                    `json:"message"`
	Warnings     []string                  `json:"warnings"`
	Requirements []string                  `json:"requirements"`
	Notes        string                    `json:"notes,omitempty"`
}

// VehicleFitment is one entry in a part's compatible-vehicle listing.
type VehicleFitment struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	YearRange string `json:"year_range"`
	Trim      string `json:"trim,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Position  string `json:"position,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Check evaluates all rules stored for one part against a vehicle. In strict
// mode only exact or universal rules count; otherwise a same-make match in
// the year range is reported as a possible fit.
func (s *CompatibilityService) Check(ctx context.Context, partID uuid.UUID, vehicle Vehicle, strict bool) (*CompatibilityResult, error) {
	var rules []models.CompatibilityRule
	err := s.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load compatibility rules: %w", err)
	}

	result := evaluateRules(rules, vehicle, strict)
	return &result, nil
}

// CheckMany evaluates every part against the vehicle. Rules are fetched in a
// single query; each requested ID gets an entry even when no rules exist.
func (s *CompatibilityService) CheckMany(ctx context.Context, partIDs []uuid.UUID, vehicle Vehicle, strict bool) (map[uuid.UUID]CompatibilityResult, error) {
	results := make(map[uuid.UUID]CompatibilityResult, len(partIDs))
	if len(partIDs) == 0 {
		return results, nil
	}

	var rules []models.CompatibilityRule
	err := s.db.WithContext(ctx).
		Where("part_id IN ?", partIDs).
		Order("part_id, created_at").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load compatibility rules: %w", err)
	}

	byPart := make(map[uuid.UUID][]models.CompatibilityRule)
	for _, rule := range rules {
		byPart[rule.PartID] = append(byPart[rule.PartID], rule)
	}

	compatible := 0
	for _, id := range partIDs {
		result := evaluateRules(byPart[id], vehicle, strict)
		if result.Compatible {
			compatible++
		}
		results[id] = result
	}

	logrus.WithFields(logrus.Fields{
		"parts_checked": len(partIDs),
		"compatible":    compatible,
	}).Debug("Batch compatibility check completed")

	return results, nil
}

// ListCompatibleVehicles returns the vehicles a part fits. A universal rule
// collapses the listing to a single "All" entry.
func (s *CompatibilityService) ListCompatibleVehicles(ctx context.Context, partID uuid.UUID, limit int) ([]VehicleFitment, error) {
	var rules []models.CompatibilityRule
	err := s.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at").
		Limit(limit).
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load compatibility rules: %w", err)
	}

	for _, rule := range rules {
		if rule.IsUniversal {
			return []VehicleFitment{{
				Make:      "All",
				Model:     "Universal",
				YearRange: "All years",
				Notes:     "Universal part",
			}}, nil
		}
	}

	vehicles := make([]VehicleFitment, 0, len(rules))
	for _, rule := range rules {
		vehicles = append(vehicles, VehicleFitment{
			Make:      rule.Make,
			Model:     rule.Model,
			YearRange: fmt.Sprintf("%d-%d", rule.YearStart, rule.YearEnd),
			Trim:      rule.Trim,
			Engine:    rule.Engine,
			Position:  rule.Position,
			Notes:     rule.Notes,
		})
	}

	return vehicles, nil
}

// evaluateRules applies fitment precedence: universal, then exact
// make/model/year, then (non-strict) same make and year range, then no match.
// Rules with an inverted year range are skipped.
func evaluateRules(rules []models.CompatibilityRule, vehicle Vehicle, strict bool) CompatibilityResult {
	for _, rule := range rules {
		if rule.IsUniversal {
			return CompatibilityResult{
				Compatible:   true,
				Confidence:   1.0,
				Level:        models.CompatibilityUniversal,
				Message:      "Universal part - fits all vehicles",
				Warnings:     []string{},
				Requirements: []string{},
			}
		}
	}

	var exact []models.CompatibilityRule
	for _, rule := range rules {
		if !rule.Valid() {
			continue
		}
		if rule.Make == vehicle.Make && rule.Model == vehicle.Model && rule.CoversYear(vehicle.Year) {
			exact = append(exact, rule)
		}
	}

	if len(exact) > 0 {
		best := bestRuleMatch(exact, vehicle.Trim, vehicle.Engine)

		confidence := best.Confidence
		if confidence == 0 {
			confidence = 1.0
		}

		warnings := []string{}
		requirements := []string{}

		if best.Trim != "" && vehicle.Trim != "" && best.Trim != vehicle.Trim {
			warnings = append(warnings, fmt.Sprintf("Specified for %s trim, you have %s", best.Trim, vehicle.Trim))
			confidence *= 0.9
		}
		if best.Engine != "" && vehicle.Engine != "" && best.Engine != vehicle.Engine {
			warnings = append(warnings, fmt.Sprintf("Specified for %s engine", best.Engine))
			confidence *= 0.9
		}
		if best.Position != "" {
			requirements = append(requirements, fmt.Sprintf("Position: %s", best.Position))
		}

		return CompatibilityResult{
			Compatible:   true,
			Confidence:   confidence,
			Level:        confidenceLevel(confidence),
			Message:      fmt.Sprintf("Compatible with %d %s %s", vehicle.Year, vehicle.Make, vehicle.Model),
			Warnings:     warnings,
			Requirements: requirements,
			Notes:        best.Notes,
		}
	}

	if !strict {
		var covered []string
		for _, rule := range rules {
			if !rule.Valid() {
				continue
			}
			if rule.Make == vehicle.Make && rule.CoversYear(vehicle.Year) {
				covered = append(covered, rule.Model)
			}
		}
		if len(covered) > 0 {
			return CompatibilityResult{
				Compatible: false,
				Confidence: 0.5,
				Level:      models.CompatibilityPossible,
				Message:    fmt.Sprintf("May fit %s vehicles from %d", vehicle.Make, vehicle.Year),
				Warnings: []string{
					fmt.Sprintf("Not specifically listed for %s", vehicle.Model),
					"Compatible with: " + strings.Join(covered, ", "),
				},
				Requirements: []string{"Verify fitment before purchase"},
			}
		}
	}

	return CompatibilityResult{
		Compatible:   false,
		Confidence:   0.0,
		Level:        models.CompatibilityIncompatible,
		Message:      fmt.Sprintf("No compatibility data for %d %s %s", vehicle.Year, vehicle.Make, vehicle.Model),
		Warnings:     []string{"Part may not fit this vehicle"},
		Requirements: []string{"Contact seller for compatibility verification"},
	}
}

// bestRuleMatch scores each candidate rule and returns the highest scorer.
// Ties keep the first rule encountered.
func bestRuleMatch(rules []models.CompatibilityRule, trim, engine string) models.CompatibilityRule {
	if len(rules) == 1 {
		return rules[0]
	}

	best := rules[0]
	bestScore := matchScore(rules[0], trim, engine)
	for _, rule := range rules[1:] {
		if score := matchScore(rule, trim, engine); score > bestScore {
			best = rule
			bestScore = score
		}
	}
	return best
}

// matchScore rewards trim and engine agreement (+10 each), penalizes a
// specified-but-mismatched value (-5), and weights stored confidence by 5.
func matchScore(rule models.CompatibilityRule, trim, engine string) float64 {
	score := 0.0

	if rule.Trim != "" && trim != "" {
		if rule.Trim == trim {
			score += 10
		} else {
			score -= 5
		}
	}
	if rule.Engine != "" && engine != "" {
		if rule.Engine == engine {
			score += 10
		} else {
			score -= 5
		}
	}

	score += rule.Confidence * 5
	return score
}

func confidenceLevel(confidence float64) models.CompatibilityLevel {
	switch {
	case confidence >= 0.95:
		return models.CompatibilityGuaranteed
	case confidence >= 0.85:
		return models.CompatibilityHigh
	case confidence >= 0.70:
		return models.CompatibilityModerate
	case confidence >= 0.50:
		return models.CompatibilityLow
	default:
		return models.CompatibilityIncompatible
	}
}
