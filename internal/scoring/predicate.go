// Package scoring implements the scoring engine: matching active rules
// against an incoming event or the current lead/organization field state,
// applying caps, appending score_history, and invoking the recalc
// primitive. This predicate evaluator is deliberately a closed set of
// operators over a fixed field vocabulary, not a general expression
// language or DSL.
package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

func matchEventConditions(cond *models.EventConditions, eventType string, metadata map[string]any) bool {
	if cond == nil {
		return false
	}
	if cond.EventType != "" && cond.EventType != eventType {
		return false
	}
	return MatchMetadata(cond.Metadata, metadata)
}

func matchAllFieldConditions(fields []models.FieldCondition, lead *models.Lead, org *models.Organization) bool {
	if len(fields) == 0 {
		return false
	}
	for _, fc := range fields {
		if !matchFieldCondition(fc, lead, org) {
			return false
		}
	}
	return true
}

func matchFieldCondition(fc models.FieldCondition, lead *models.Lead, org *models.Organization) bool {
	actual := fieldValue(lead, org, fc.Field)
	switch fc.Operator {
	case models.OpEquals:
		return fmt.Sprint(actual) == fmt.Sprint(fc.Value)
	case models.OpIn:
		list, ok := fc.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if fmt.Sprint(item) == fmt.Sprint(actual) {
				return true
			}
		}
		return false
	case models.OpContains:
		s, _ := actual.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(fc.Value)))
	case models.OpPattern:
		s, _ := actual.(string)
		re, err := regexp.Compile("(?i)" + fmt.Sprint(fc.Value))
		if err != nil {
			return false
		}
		return re.MatchString(s)
	case models.OpGTE:
		af, aok := toFloat(actual)
		bf, bok := toFloat(fc.Value)
		return aok && bok && af >= bf
	case models.OpLTE:
		af, aok := toFloat(actual)
		bf, bok := toFloat(fc.Value)
		return aok && bok && af <= bf
	default:
		return false
	}
}

func fieldValue(lead *models.Lead, org *models.Organization, field string) any {
	switch field {
	case "status":
		return string(lead.Status)
	case "lifecycle_stage":
		return string(lead.LifecycleStage)
	case "job_title":
		return lead.JobTitle
	case "email":
		return lead.Email
	case "first_name":
		return lead.FirstName
	case "last_name":
		return lead.LastName
	case "phone":
		return lead.Phone
	case "organization.industry":
		if org != nil {
			return org.Industry
		}
		return ""
	case "organization.size":
		if org != nil {
			return org.Size
		}
		return ""
	case "organization.country":
		if org != nil {
			return org.Country
		}
		return ""
	case "organization.name":
		if org != nil {
			return org.Name
		}
		return ""
	default:
		return nil
	}
}

// MatchMetadata reports whether every key in predicate is satisfied by
// the corresponding value in metadata, using the same comparison rules as
// an event rule's metadata conditions (scalar equality or a
// {gt|gte|lt|lte: n} numeric comparison). Shared with the automation
// engine so an `event`-triggered automation rule can carry the same kind
// of optional metadata predicate as a scoring rule.
func MatchMetadata(predicate, metadata map[string]any) bool {
	for key, want := range predicate {
		got, ok := metadata[key]
		if !ok || !matchValue(want, got) {
			return false
		}
	}
	return true
}

// matchValue compares a metadata predicate value against the event's
// actual metadata value. A map value ({gt|gte|lt|lte: n}) is treated as a
// models.NumericComparison; anything else is a loose scalar equality
// check (YAML/JSON decode both numbers and strings into untyped `any`).
func matchValue(want, got any) bool {
	if m, ok := want.(map[string]any); ok {
		return matchNumericComparison(m, got)
	}
	if wf, wok := toFloat(want); wok {
		if gf, gok := toFloat(got); gok {
			return wf == gf
		}
	}
	return fmt.Sprint(want) == fmt.Sprint(got)
}

func matchNumericComparison(cmp map[string]any, got any) bool {
	af, ok := toFloat(got)
	if !ok {
		return false
	}
	if v, exists := cmp["gt"]; exists {
		f, _ := toFloat(v)
		if !(af > f) {
			return false
		}
	}
	if v, exists := cmp["gte"]; exists {
		f, _ := toFloat(v)
		if !(af >= f) {
			return false
		}
	}
	if v, exists := cmp["lt"]; exists {
		f, _ := toFloat(v)
		if !(af < f) {
			return false
		}
	}
	if v, exists := cmp["lte"]; exists {
		f, _ := toFloat(v)
		if !(af <= f) {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
