package networkdrive

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"connector-service/core/retry"
	"connector-service/core/source"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	validationAttempts = 3
	validationInterval = 2 * time.Second
)

const rulesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "minLength": 1}
		},
		"required": ["pattern"],
		"additionalProperties": false
	}
}`

var compiledRulesSchema = mustCompileRulesSchema()

func mustCompileRulesSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(rulesSchema))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("advanced_rules.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("advanced_rules.json")
}

// InvalidRulesError names every advanced rule that matched no path.
type InvalidRulesError struct {
	Patterns []string
}

func (e *InvalidRulesError) Error() string {
	return fmt.Sprintf("Following advanced rules are invalid: %s", strings.Join(e.Patterns, ", "))
}

// checkRulesShape validates raw rules against the rule schema.
func checkRulesShape(raw json.RawMessage) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return compiledRulesSchema.Validate(inst)
}

// MatchRules tests every rule against every snapshot path. A rule is valid
// when it matches at least one path. The base directory only matches
// catch-all patterns made of "**" segments. Matched paths come back sorted,
// invalid patterns in rule order.
func MatchRules(snap Snapshot, rules []source.AdvancedRule) (matched []SnapshotEntry, invalid []string) {
	seen := make(map[string]bool)
	for _, rule := range rules {
		pattern := strings.ReplaceAll(rule.Pattern, `\`, "/")
		valid := false
		for _, entry := range snap.Entries {
			var ok bool
			if entry.Path == "" {
				ok = matchesAll(pattern)
			} else {
				var err error
				if ok, err = doublestar.Match(pattern, entry.Path); err != nil {
					break
				}
			}
			if !ok {
				continue
			}
			valid = true
			if !seen[entry.Path] {
				seen[entry.Path] = true
				matched = append(matched, entry)
			}
		}
		if !valid {
			invalid = append(invalid, rule.Pattern)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Path < matched[j].Path })
	return matched, invalid
}

func matchesAll(pattern string) bool {
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return false
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment != "**" {
			return false
		}
	}
	return true
}

// RulesValidator checks advanced rules against the share snapshot.
type RulesValidator struct {
	source *Source
	policy *retry.Policy
}

// NewRulesValidator creates the validator of a source.
func NewRulesValidator(src *Source) *RulesValidator {
	return &RulesValidator{
		source: src,
		policy: retry.New(validationAttempts, validationInterval, retry.ExponentialBackoff),
	}
}

// Validate implements source.RulesValidator.
func (v *RulesValidator) Validate(ctx context.Context, advanced json.RawMessage) (source.FilteringValidationResult, error) {
	switch string(bytes.TrimSpace(advanced)) {
	case "", "null", "[]":
		return source.Valid(source.AdvancedRulesID), nil
	}
	return retry.Value(ctx, v.policy, func(ctx context.Context) (source.FilteringValidationResult, error) {
		return v.remoteValidation(ctx, advanced)
	})
}

func (v *RulesValidator) remoteValidation(ctx context.Context, advanced json.RawMessage) (source.FilteringValidationResult, error) {
	if err := checkRulesShape(advanced); err != nil {
		return source.Invalid(source.AdvancedRulesID, err.Error()), nil
	}

	var rules []source.AdvancedRule
	if err := json.Unmarshal(advanced, &rules); err != nil {
		return source.Invalid(source.AdvancedRulesID, err.Error()), nil
	}

	if _, err := v.source.connect(ctx); err != nil {
		return source.FilteringValidationResult{}, err
	}
	snap, err := v.source.Snapshot(ctx)
	if err != nil {
		return source.FilteringValidationResult{}, err
	}

	_, invalid := MatchRules(snap, rules)
	if len(invalid) > 0 {
		return source.Invalid(source.AdvancedRulesID,
			fmt.Sprintf("Following patterns do not match any path '%s'", strings.Join(invalid, ", "))), nil
	}
	return source.Valid(source.AdvancedRulesID), nil
}
