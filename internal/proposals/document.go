package proposals

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/templates"
	"github.com/bizdesk/bizdesk/web"
)

const dateLayout = "02/01/2006"

// Document is the printable view of a proposal. Amounts are preformatted for
// the pt-PT locale; cost and margin columns are internal and never printed.
type Document struct {
	Number        string
	Status        string
	Date          string
	Expiry        string
	ClientName    string
	ClientNIF     string
	ClientAddress string
	ClientEmail   string
	Notes         string
	Lines         []DocumentLine
	Subtotal      string
	DiscountPct   string
	Discount      string
	Total         string
	HasDiscount   bool
	Pages         []DocumentPage
}

// DocumentPage is one sheet of the chosen template. The proposal content is
// printed on the Body sheet only.
type DocumentPage struct {
	Orientation string
	Background  template.URL
	Body        bool
}

type DocumentLine struct {
	Description string
	Unit        string
	Quantity    string
	UnitPrice   string
	DiscountPct string
	Total       string
}

var documentPrinter = message.NewPrinter(language.EuropeanPortuguese)

func formatMoney(d decimal.Decimal) string {
	return documentPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2))) + " €"
}

func formatQuantity(d decimal.Decimal) string {
	return documentPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}

func formatPercent(d decimal.Decimal) string {
	return formatQuantity(d) + " %"
}

// NewDocument builds the printable view. client may be nil when the record
// was removed after the proposal was issued.
func NewDocument(p Proposal, client *clients.Client) Document {
	doc := Document{
		Number:      p.Number,
		Status:      string(p.Status),
		Date:        p.ProposalDate.Format(dateLayout),
		ClientName:  p.ClientName,
		Subtotal:    formatMoney(p.Subtotal),
		DiscountPct: formatPercent(p.DiscountPercentage),
		Discount:    formatMoney(p.DiscountAmount),
		Total:       formatMoney(p.Total),
		HasDiscount: p.DiscountAmount.IsPositive(),
	}
	if p.ExpiryDate != nil {
		doc.Expiry = p.ExpiryDate.Format(dateLayout)
	}
	if p.Notes != nil {
		doc.Notes = *p.Notes
	}
	if client != nil {
		doc.ClientName = client.Name
		doc.ClientNIF = deref(client.NIF)
		doc.ClientAddress = deref(client.Address)
		doc.ClientEmail = deref(client.Email)
	}
	for _, l := range p.Lines {
		doc.Lines = append(doc.Lines, DocumentLine{
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    formatQuantity(l.Quantity),
			UnitPrice:   formatMoney(l.UnitPrice),
			DiscountPct: formatPercent(l.DiscountPercentage),
			Total:       formatMoney(l.LineTotal),
		})
	}
	return doc
}

// WithTemplate lays the document out on the template's pages. Backgrounds
// that do not pass templates.ValidBackground are left out.
func (d Document) WithTemplate(t *templates.Template) Document {
	if t == nil || len(t.Pages) == 0 {
		d.Pages = nil
		return d
	}
	body := t.BodyIndex()
	d.Pages = make([]DocumentPage, 0, len(t.Pages))
	for i, page := range t.Pages {
		dp := DocumentPage{Orientation: "portrait", Body: i == body}
		if page.Orientation == templates.OrientationHorizontal {
			dp.Orientation = "landscape"
		}
		if page.BackgroundImage != nil && templates.ValidBackground(*page.BackgroundImage) {
			dp.Background = template.URL(*page.BackgroundImage)
		}
		d.Pages = append(d.Pages, dp)
	}
	return d
}

var documentTemplate = template.Must(template.ParseFS(web.Templates, "templates/proposals/document.html"))

// HTML renders the document markup handed to the PDF converter.
func (d Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.ExecuteTemplate(&buf, "document.html", d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
