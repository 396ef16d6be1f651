package hsp

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Ticket is the confirmation shown on the final booking page.
type Ticket struct {
	Headline string
	Fields   []TicketField
}

type TicketField struct {
	Label string
	Value string
}

func (t Ticket) Empty() bool { return t.Headline == "" && len(t.Fields) == 0 }

func (t Ticket) String() string {
	var b strings.Builder
	b.WriteString(t.Headline)
	for _, f := range t.Fields {
		fmt.Fprintf(&b, "\n  %s %s", f.Label, f.Value)
	}
	return strings.TrimSpace(b.String())
}

// ExtractTicket reads the headline marker and the label/value rows of the
// confirmation page.
func ExtractTicket(html string) (Ticket, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Ticket{}, fmt.Errorf("parse confirmation page: %w", err)
	}

	var t Ticket
	t.Headline = squash(doc.Find("div.bs_text_red.bs_text_big").First().Text())
	doc.Find("div.bs_form_row").Each(func(_ int, row *goquery.Selection) {
		label := squash(row.Find(".bs_form_sp1").First().Text())
		value := squash(row.Find(".bs_form_sp2").First().Text())
		if label == "" && value == "" {
			return
		}
		t.Fields = append(t.Fields, TicketField{Label: label, Value: value})
	})
	return t, nil
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }
