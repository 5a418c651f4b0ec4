package entity

import "errors"

var (
	ErrRuleMissingDomain  = errors.New("selector rule has no domain key")
	ErrRuleMissingTag     = errors.New("selector rule requires content_tag")
	ErrRuleMissingLocator = errors.New("selector rule requires content_class or content_id")
	ErrRuleMissingTextTag = errors.New("selector rule requires content_text_tag")
)

// SelectorRule describes how to locate the article body on pages of one
// domain. An empty string means the field is not set.
type SelectorRule struct {
	Domain         string `yaml:"domain" json:"domain"`
	ContentTag     string `yaml:"content_tag" json:"content_tag,omitempty"`
	ContentClass   string `yaml:"content_class" json:"content_class,omitempty"`
	ContentID      string `yaml:"content_id" json:"content_id,omitempty"`
	ContentTextTag string `yaml:"content_text_tag" json:"content_text_tag,omitempty"`
}

// Validate reports the first requirement the rule does not meet.
func (r SelectorRule) Validate() error {
	switch {
	case r.Domain == "":
		return ErrRuleMissingDomain
	case r.ContentTag == "":
		return ErrRuleMissingTag
	case r.ContentClass == "" && r.ContentID == "":
		return ErrRuleMissingLocator
	case r.ContentTextTag == "":
		return ErrRuleMissingTextTag
	}
	return nil
}
