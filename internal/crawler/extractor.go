package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/knowlife/internal/entity"
)

// ParseHTML parses an HTML document.
func ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Extract locates the content element described by rule and returns the
// text lines of its content_text_tag descendants.
func Extract(doc *goquery.Document, rule entity.SelectorRule) []string {
	lines := []string{}

	content := findContent(doc.Selection, rule)
	if content == nil || rule.ContentTextTag == "" {
		return lines
	}

	findTag(content, rule.ContentTextTag).Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, strings.Split(strings.TrimSpace(s.Text()), "\n")...)
	})
	return lines
}

// findContent picks the last element matching the rule. The id only gates
// which branch runs: the filter is always the class attribute, and when only
// an id is configured its value is compared against the class.
func findContent(root *goquery.Selection, rule entity.SelectorRule) *goquery.Selection {
	var candidates *goquery.Selection
	switch {
	case rule.ContentTag != "" && rule.ContentClass != "" && rule.ContentID != "":
		candidates = findByTagAndClass(root, rule.ContentTag, rule.ContentClass)
	case rule.ContentTag != "" && rule.ContentClass != "":
		candidates = findByTagAndClass(root, rule.ContentTag, rule.ContentClass)
	case rule.ContentTag != "" && rule.ContentID != "":
		candidates = findByTagAndClass(root, rule.ContentTag, rule.ContentID)
	default:
		return nil
	}

	if candidates.Length() == 0 {
		return nil
	}
	content := candidates.Last()
	if content.Contents().Length() == 0 {
		return nil
	}
	return content
}

func findByTagAndClass(root *goquery.Selection, tag, class string) *goquery.Selection {
	return findTag(root, tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasClass(s, class)
	})
}

// findTag returns the descendants named tag. The name is compared literally,
// never read as a CSS selector.
func findTag(root *goquery.Selection, tag string) *goquery.Selection {
	tag = strings.ToLower(tag)
	return root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == tag
	})
}

// hasClass matches the whole class attribute or any single class in it.
func hasClass(s *goquery.Selection, class string) bool {
	attr, ok := s.Attr("class")
	if !ok {
		return false
	}
	if attr == class {
		return true
	}
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}
