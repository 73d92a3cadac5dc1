package proposals

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/templates"
)

func TestDocumentFormatting(t *testing.T) {
	assert.True(t, strings.HasSuffix(formatMoney(dec("1234.5")), ",50 €"), formatMoney(dec("1234.5")))
	assert.Equal(t, "0,00 €", formatMoney(dec("0")))
	assert.Equal(t, "2,5", formatQuantity(dec("2.5")))
	assert.Equal(t, "10 %", formatPercent(dec("10")))
}

func TestDocumentHidesInternalColumns(t *testing.T) {
	expiry := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	p := Proposal{
		Number:             "PROP-2026-0042",
		ClientName:         "Oficina <Norte>",
		Status:             StatusSent,
		ProposalDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:         &expiry,
		Subtotal:           dec("800"),
		DiscountPercentage: dec("0"),
		Total:              dec("800"),
		Lines: []Line{{
			Description: "Manutenção anual",
			Unit:        "un",
			Quantity:    dec("1"),
			UnitPrice:   dec("800"),
			CostPrice:   dec("555"),
			MarginEuro:  dec("245"),
			LineTotal:   dec("800"),
		}},
	}

	doc := NewDocument(p, nil)
	assert.Equal(t, "01/04/2026", doc.Date)
	assert.Equal(t, "30/04/2026", doc.Expiry)
	assert.False(t, doc.HasDiscount)
	require.Len(t, doc.Lines, 1)

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "PROP-2026-0042")
	assert.Contains(t, html, "Oficina &lt;Norte&gt;")
	assert.Contains(t, html, "Manutenção anual")
	assert.NotContains(t, html, "555")
	assert.NotContains(t, html, "245")
	assert.NotContains(t, html, "Desconto")
}

func TestDocumentWithTemplatePages(t *testing.T) {
	cover := "data:image/png;base64,iVBORw0KGgo="
	tpl := &templates.Template{
		Name: "Institucional",
		Type: templates.TypeProposal,
		Pages: []templates.Page{
			{ID: "a", Title: "Capa", Orientation: templates.OrientationVertical, BackgroundImage: &cover},
			{ID: "b", Title: "Corpo", Orientation: templates.OrientationHorizontal},
			{ID: "c", Title: "Contracapa", Orientation: templates.OrientationVertical},
		},
	}
	p := Proposal{
		Number:       "PROP-2026-0007",
		ClientName:   "Padaria Lusa",
		ProposalDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	doc := NewDocument(p, nil).WithTemplate(tpl)
	require.Len(t, doc.Pages, 3)
	assert.False(t, doc.Pages[0].Body)
	assert.True(t, doc.Pages[1].Body)
	assert.Equal(t, "landscape", doc.Pages[1].Orientation)

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(html, `<section class="sheet`))
	assert.Contains(t, html, `src="data:image/png;base64,iVBORw0KGgo="`)
	assert.Contains(t, html, `<section class="sheet landscape"><h1>Proposta PROP-2026-0007</h1>`)
	assert.Equal(t, 1, strings.Count(html, "<h1>"))
}

func TestDocumentWithTemplateDropsUnsafeBackground(t *testing.T) {
	script := "javascript:alert(1)"
	tpl := &templates.Template{Pages: []templates.Page{{ID: "a", Title: "Corpo", BackgroundImage: &script}}}

	doc := NewDocument(Proposal{Number: "PROP-2026-0008"}, nil).WithTemplate(tpl)
	html, err := doc.HTML()
	require.NoError(t, err)
	assert.NotContains(t, html, "javascript")
	assert.NotContains(t, html, "<img")

	plain, err := NewDocument(Proposal{Number: "PROP-2026-0008"}, nil).WithTemplate(nil).HTML()
	require.NoError(t, err)
	assert.NotContains(t, plain, "sheet portrait")
	assert.Contains(t, plain, "<h1>Proposta PROP-2026-0008</h1>")
}
