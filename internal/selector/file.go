package selector

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/knowlife/internal/entity"
)

// document is the top-level shape of the selector file.
type document struct {
	Articles yaml.Node `yaml:"Articles"`
}

// ruleFields is decoded from either a mapping or a list of single-key
// mappings; later keys override earlier ones.
type ruleFields struct {
	Domain         string `yaml:"domain"`
	ContentTag     string `yaml:"content_tag"`
	ContentClass   string `yaml:"content_class"`
	ContentID      string `yaml:"content_id"`
	ContentTextTag string `yaml:"content_text_tag"`
}

// LoadFile reads the selector rules from a YAML (or JSON) file. Any
// problem with the file, including an unusable rule, is a *ConfigLoadError.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return newConfig(rules), nil
}

// Parse decodes and validates the rules of a selector document.
func Parse(data []byte) ([]entity.SelectorRule, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse selector file: %w", err)
	}

	switch doc.Articles.Kind {
	case 0:
		return nil, errors.New("missing Articles section")
	case yaml.SequenceNode:
	default:
		return nil, fmt.Errorf("line %d: Articles must be a list", doc.Articles.Line)
	}

	var rules []entity.SelectorRule
	for _, item := range doc.Articles.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: article entry must map a domain to its rule", item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			rule, err := decodeRule(item.Content[i], item.Content[i+1])
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}

	if len(rules) == 0 {
		return nil, errNoRules
	}
	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func decodeRule(key, body *yaml.Node) (entity.SelectorRule, error) {
	if key.Kind != yaml.ScalarNode || key.Value == "" {
		return entity.SelectorRule{}, fmt.Errorf("line %d: domain key must be a non-empty string", key.Line)
	}

	var f ruleFields
	switch body.Kind {
	case yaml.MappingNode:
		if err := body.Decode(&f); err != nil {
			return entity.SelectorRule{}, fmt.Errorf("line %d: %w", body.Line, err)
		}
	case yaml.SequenceNode:
		for _, part := range body.Content {
			if part.Kind != yaml.MappingNode {
				return entity.SelectorRule{}, fmt.Errorf("line %d: rule list entries must be key/value pairs", part.Line)
			}
			if err := part.Decode(&f); err != nil {
				return entity.SelectorRule{}, fmt.Errorf("line %d: %w", part.Line, err)
			}
		}
	default:
		return entity.SelectorRule{}, fmt.Errorf("line %d: rule for %q is empty", body.Line, key.Value)
	}

	if f.Domain != "" && f.Domain != key.Value {
		return entity.SelectorRule{}, fmt.Errorf("line %d: domain %q does not match key %q", body.Line, f.Domain, key.Value)
	}

	return entity.SelectorRule{
		Domain:         key.Value,
		ContentTag:     f.ContentTag,
		ContentClass:   f.ContentClass,
		ContentID:      f.ContentID,
		ContentTextTag: f.ContentTextTag,
	}, nil
}
