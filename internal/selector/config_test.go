package selector

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/knowlife/internal/entity"
)

func writeSelectorFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const legacyAndMapping = `Articles:
  - vnexpress.net:
      - domain: vnexpress.net
      - content_tag: article
      - content_class: fck_detail
      - content_id:
      - content_text_tag: p
  - tuoitre.vn:
      content_tag: div
      content_id: main-detail-body
      content_text_tag: p
  - vnexpress.net:
      content_tag: div
      content_class: sidebar
      content_text_tag: li
`

func TestLoadFile_BothShapes(t *testing.T) {
	cfg, err := LoadFile(writeSelectorFile(t, legacyAndMapping))
	require.NoError(t, err)

	rules := cfg.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, entity.SelectorRule{
		Domain:         "vnexpress.net",
		ContentTag:     "article",
		ContentClass:   "fck_detail",
		ContentTextTag: "p",
	}, rules[0])
	assert.Equal(t, entity.SelectorRule{
		Domain:         "tuoitre.vn",
		ContentTag:     "div",
		ContentID:      "main-detail-body",
		ContentTextTag: "p",
	}, rules[1])
	assert.Equal(t, "sidebar", rules[2].ContentClass)
}

func TestLoadFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "..", "configs", "selectors.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Rules())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var loadErr *ConfigLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid yaml":       "Articles: [\n  - a: {",
		"no articles":        "Other: 1\n",
		"empty file":         "",
		"articles not list":  "Articles:\n  vnexpress.net: {}\n",
		"entry not mapping":  "Articles:\n  - vnexpress.net\n",
		"empty rule body":    "Articles:\n  - vnexpress.net:\n",
		"empty list":         "Articles: []\n",
		"domain mismatch":    "Articles:\n  - a.vn:\n      domain: b.vn\n      content_tag: div\n      content_class: x\n      content_text_tag: p\n",
		"missing text tag":   "Articles:\n  - a.vn:\n      content_tag: div\n      content_class: x\n",
		"missing locator":    "Articles:\n  - a.vn:\n      content_tag: div\n      content_text_tag: p\n",
		"missing tag":        "Articles:\n  - a.vn:\n      content_class: x\n      content_text_tag: p\n",
		"scalar in rule seq": "Articles:\n  - a.vn:\n      - div\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadFile(writeSelectorFile(t, content))
			assert.Nil(t, cfg)

			var loadErr *ConfigLoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.NotEmpty(t, loadErr.Path)
		})
	}
}

func TestLoadFile_InvalidRuleReason(t *testing.T) {
	_, err := LoadFile(writeSelectorFile(t, "Articles:\n  - a.vn:\n      content_tag: div\n      content_text_tag: p\n"))
	assert.ErrorIs(t, err, entity.ErrRuleMissingLocator)
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, errNoRules)

	_, err = New(entity.SelectorRule{Domain: "a.vn", ContentTag: "div", ContentClass: "x"})
	assert.ErrorIs(t, err, entity.ErrRuleMissingTextTag)

	cfg, err := New(entity.SelectorRule{Domain: "a.vn", ContentTag: "div", ContentClass: "x", ContentTextTag: "p"})
	require.NoError(t, err)
	assert.Len(t, cfg.Rules(), 1)
}

func TestFindRulesForDomain_Substring(t *testing.T) {
	cfg, err := New(
		entity.SelectorRule{Domain: "example.com", ContentTag: "div", ContentClass: "body", ContentTextTag: "p"},
		entity.SelectorRule{Domain: "other.org", ContentTag: "div", ContentClass: "body", ContentTextTag: "p"},
		entity.SelectorRule{Domain: "example.com", ContentTag: "article", ContentID: "main", ContentTextTag: "p"},
	)
	require.NoError(t, err)

	matched := cfg.FindRulesForDomain("www.example.com")
	require.Len(t, matched, 2)
	assert.Equal(t, "div", matched[0].ContentTag)
	assert.Equal(t, "article", matched[1].ContentTag)

	assert.Len(t, cfg.FindRulesForDomain("example.com"), 2)

	none := cfg.FindRulesForDomain("examp.com")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestConfig_RulesIsACopy(t *testing.T) {
	cfg, err := New(entity.SelectorRule{Domain: "a.vn", ContentTag: "div", ContentClass: "x", ContentTextTag: "p"})
	require.NoError(t, err)

	rules := cfg.Rules()
	rules[0].Domain = "mutated"
	assert.Equal(t, "a.vn", cfg.Rules()[0].Domain)
}

func TestConfig_ConcurrentReads(t *testing.T) {
	cfg, err := LoadFile(writeSelectorFile(t, legacyAndMapping))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, cfg.FindRulesForDomain("vnexpress.net"), 2)
		}()
	}
	wg.Wait()
}
