package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// AdvancedRulesID identifies the advanced rules in validation results.
const AdvancedRulesID = "advanced_rules"

// AdvancedRule selects entries by glob pattern.
type AdvancedRule struct {
	Pattern string `json:"pattern"`
}

// Filtering carries the filtering configuration of a sync.
type Filtering struct {
	// Advanced is the raw advanced rule document, validated before use.
	Advanced json.RawMessage `json:"advanced_snippet,omitempty"`
}

// HasAdvancedRules reports whether a non-empty advanced rule document is present.
func (f Filtering) HasAdvancedRules() bool {
	trimmed := bytes.TrimSpace(f.Advanced)
	switch string(trimmed) {
	case "", "null", "[]":
		return false
	default:
		return true
	}
}

// AdvancedRules decodes the advanced rules.
func (f Filtering) AdvancedRules() ([]AdvancedRule, error) {
	if !f.HasAdvancedRules() {
		return nil, nil
	}
	var rules []AdvancedRule
	if err := json.Unmarshal(f.Advanced, &rules); err != nil {
		return nil, fmt.Errorf("invalid advanced rules: %w", err)
	}
	return rules, nil
}

// FilteringValidationResult is the verdict on a filtering rule set.
type FilteringValidationResult struct {
	RuleID  string `json:"rule_id"`
	IsValid bool   `json:"is_valid"`
	Message string `json:"validation_message"`
}

// Valid returns a passing result for ruleID.
func Valid(ruleID string) FilteringValidationResult {
	return FilteringValidationResult{RuleID: ruleID, IsValid: true, Message: "Valid rule"}
}

// Invalid returns a failing result for ruleID.
func Invalid(ruleID, message string) FilteringValidationResult {
	return FilteringValidationResult{RuleID: ruleID, IsValid: false, Message: message}
}

// RulesValidator validates a raw advanced rule document.
// Rule problems are reported in the result; the error is for infrastructure failures.
type RulesValidator interface {
	Validate(ctx context.Context, advanced json.RawMessage) (FilteringValidationResult, error)
}
