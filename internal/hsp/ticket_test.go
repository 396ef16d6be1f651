package hsp

import "testing"

func TestExtractTicket(t *testing.T) {
	t.Parallel()

	got, err := ExtractTicket(confirmationHTML)
	if err != nil {
		t.Fatalf("ExtractTicket() error = %v", err)
	}
	if got.Headline != "Buchungsbestätigung" {
		t.Fatalf("Headline = %q", got.Headline)
	}
	want := []TicketField{
		{Label: "Kurs:", Value: "Fitness Training"},
		{Label: "Buchungsnummer:", Value: "4711"},
	}
	if len(got.Fields) != len(want) {
		t.Fatalf("Fields = %+v, want %+v", got.Fields, want)
	}
	for i := range want {
		if got.Fields[i] != want[i] {
			t.Fatalf("Fields[%d] = %+v, want %+v", i, got.Fields[i], want[i])
		}
	}
}

func TestExtractTicketFormPage(t *testing.T) {
	t.Parallel()

	got, err := ExtractTicket(`<html><body><form><input name="tnbed" type="checkbox"></form></body></html>`)
	if err != nil {
		t.Fatalf("ExtractTicket() error = %v", err)
	}
	if !got.Empty() {
		t.Fatalf("ExtractTicket() = %+v, want empty ticket", got)
	}
}
