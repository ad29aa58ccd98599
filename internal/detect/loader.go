package detect

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout of a rule file:
//
//	rules:
//	  - name: build-failed
//	    pattern: 'BUILD FAILED'
//	    kind: attention_required
//	    description: Build needs a look
//	    case_sensitive: true
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Name          string `yaml:"name"`
	Pattern       string `yaml:"pattern"`
	Kind          string `yaml:"kind"`
	Description   string `yaml:"description"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

// LoadRules reads a YAML rule file. Every rule is validated; the first
// invalid rule aborts loading.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes rules from YAML bytes. See LoadRules.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	seen := make(map[string]bool, len(file.Rules))
	for i, entry := range file.Rules {
		kind, err := ParseKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, entry.Name, err)
		}
		r := Rule{
			Name:          entry.Name,
			Pattern:       entry.Pattern,
			Kind:          kind,
			Description:   entry.Description,
			CaseSensitive: entry.CaseSensitive,
		}
		if _, err := compileRule(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %d: %w: %s", i+1, ErrDuplicateRule, r.Name)
		}
		seen[r.Name] = true
		rules = append(rules, r)
	}
	return rules, nil
}
