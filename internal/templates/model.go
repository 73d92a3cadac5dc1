package templates

import (
	"strings"
	"time"
)

// Type is the kind of document a template prints.
type Type string

const (
	TypeProposal Type = "proposal"
	TypeInvoice  Type = "invoice"
	TypeQuote    Type = "quote"
	TypeReport   Type = "report"
)

func (t Type) Valid() bool {
	switch t {
	case TypeProposal, TypeInvoice, TypeQuote, TypeReport:
		return true
	}
	return false
}

// Orientation of a printed A4 sheet.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// BodyTitle names the page that carries the document content.
const BodyTitle = "Corpo"

// Page is one printed sheet of a template, in print order.
type Page struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Orientation     Orientation `json:"orientation"`
	BackgroundImage *string     `json:"background_image,omitempty"`
}

// Template is an ordered set of pages a document is printed on.
type Template struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Pages     []Page    `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BodyIndex returns the page the document content goes on: the one titled
// BodyTitle, otherwise the first.
func (t Template) BodyIndex() int {
	for i, p := range t.Pages {
		if strings.EqualFold(strings.TrimSpace(p.Title), BodyTitle) {
			return i
		}
	}
	return 0
}
