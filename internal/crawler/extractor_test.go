package crawler

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/knowlife/internal/entity"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseHTML(html)
	require.NoError(t, err)
	return doc
}

const threeBodies = `<html><body>
<div class="body"><p>A</p></div>
<div class="body"><p>B</p></div>
<div class="body"><p>C</p></div>
<div id="main" class="other"><p>by id</p></div>
<div class="main"><p>class named like the id</p></div>
</body></html>`

func TestExtract_TagAndClassTakesLastMatch(t *testing.T) {
	doc := mustParse(t, threeBodies)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div", ContentClass: "body", ContentTextTag: "p"})
	assert.Equal(t, []string{"C"}, lines)
}

func TestExtract_IDDoesNotFilterWhenClassIsSet(t *testing.T) {
	doc := mustParse(t, threeBodies)

	// The id names an element that is not the last div.body; it is ignored.
	lines := Extract(doc, entity.SelectorRule{
		ContentTag: "div", ContentClass: "body", ContentID: "main", ContentTextTag: "p",
	})
	assert.Equal(t, []string{"C"}, lines)
}

func TestExtract_IDOnlyIsComparedAgainstClass(t *testing.T) {
	doc := mustParse(t, threeBodies)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div", ContentID: "main", ContentTextTag: "p"})
	assert.Equal(t, []string{"class named like the id"}, lines)
}

func TestExtract_NoBranch(t *testing.T) {
	doc := mustParse(t, threeBodies)

	for name, rule := range map[string]entity.SelectorRule{
		"tag only":        {ContentTag: "div", ContentTextTag: "p"},
		"class only":      {ContentClass: "body", ContentTextTag: "p"},
		"nothing":         {ContentTextTag: "p"},
		"no text tag":     {ContentTag: "div", ContentClass: "body"},
		"no such element": {ContentTag: "section", ContentClass: "body", ContentTextTag: "p"},
	} {
		t.Run(name, func(t *testing.T) {
			lines := Extract(doc, rule)
			assert.NotNil(t, lines)
			assert.Empty(t, lines)
		})
	}
}

func TestExtract_LineSplitting(t *testing.T) {
	doc := mustParse(t, "<div class=\"c\"><p> line1\nline2 \n</p><p>a\n\n  b</p><p>   </p></div>")

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div", ContentClass: "c", ContentTextTag: "p"})
	assert.Equal(t, []string{"line1", "line2", "a", "", "  b", ""}, lines)
}

func TestExtract_MultiClassAttribute(t *testing.T) {
	doc := mustParse(t, `<article class="fck_detail width_common"><p>Hello</p><p>World</p></article>`)

	rule := entity.SelectorRule{ContentTag: "article", ContentClass: "fck_detail", ContentTextTag: "p"}
	assert.Equal(t, []string{"Hello", "World"}, Extract(doc, rule))

	rule.ContentClass = "fck_detail width_common"
	assert.Equal(t, []string{"Hello", "World"}, Extract(doc, rule))

	rule.ContentClass = "fck"
	assert.Empty(t, Extract(doc, rule))
}

func TestExtract_NestedTextTagsInDocumentOrder(t *testing.T) {
	doc := mustParse(t, `<div class="c"><div>outer<div>inner</div></div><div>second</div></div>`)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div", ContentClass: "c", ContentTextTag: "div"})
	assert.Equal(t, []string{"outerinner", "inner", "second"}, lines)
}

func TestExtract_EmptyContentElement(t *testing.T) {
	doc := mustParse(t, `<div class="c"><p>first</p></div><div class="c"></div>`)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div", ContentClass: "c", ContentTextTag: "p"})
	assert.Empty(t, lines)
}

func TestExtract_UppercaseTagsInRule(t *testing.T) {
	doc := mustParse(t, `<DIV CLASS="c"><P>x</P></DIV>`)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "DIV", ContentClass: "c", ContentTextTag: "P"})
	assert.Equal(t, []string{"x"}, lines)
}

func TestExtract_TagNamesAreNotSelectors(t *testing.T) {
	doc := mustParse(t, `<html><body>
<section class="c"><p>y</p></section>
<fb:post class="c"><p>social</p></fb:post>
</body></html>`)

	lines := Extract(doc, entity.SelectorRule{ContentTag: "div,section", ContentClass: "c", ContentTextTag: "p"})
	assert.Empty(t, lines)

	lines = Extract(doc, entity.SelectorRule{ContentTag: "fb:post", ContentClass: "c", ContentTextTag: "p"})
	assert.Equal(t, []string{"social"}, lines)

	lines = Extract(doc, entity.SelectorRule{ContentTag: "section", ContentClass: "c", ContentTextTag: "p > b"})
	assert.Empty(t, lines)
}
