package browser_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/hsp-booker/internal/browser"
)

const listingHTML = `<html><body>
<div class="bs_head">Floorball Spielbetrieb</div>
<table class="bs_kurse"><tbody>
<tr><td class="bs_sknr">12231858</td><td class="bs_sdet">Level 1</td><td class="bs_stag">Mi</td>
<td class="bs_szeit">18:00-20:00</td><td class="bs_sort">Halle 2</td>
<td class="bs_sbuch"><a id="K12231858"></a><input type="submit" value="buchen" class="bs_btn_buchen"></td></tr>
</tbody></table></body></html>`

func TestStaticReader(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/angebote/floorball.html" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, listingHTML)
	}))
	defer srv.Close()

	ctx := context.Background()
	s := browser.NewStatic(5*time.Second, "test-agent")
	if err := s.Navigate(ctx, srv.URL+"/angebote/floorball.html"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	head, err := s.Locate(ctx, "//div[@class='bs_head']")
	if err != nil {
		t.Fatalf("Locate head: %v", err)
	}
	if head.Text != "Floorball Spielbetrieb" || head.Tag != "div" {
		t.Fatalf("head = %+v", head)
	}

	// the course listing's control selector: first node after the row anchor
	btn, err := s.Locate(ctx, "(//a[@id='K12231858']/following::*)[1]")
	if err != nil {
		t.Fatalf("Locate control: %v", err)
	}
	if btn.Tag != "input" || !btn.HasClass("bs_btn_buchen") {
		t.Fatalf("control = %+v", btn)
	}
	if n, err := s.Count(ctx, "(//a[@id='K12231858']/following::*)[1]"); err != nil || n != 1 {
		t.Fatalf("Count control = %d, %v; want 1", n, err)
	}

	n, err := s.Count(ctx, `//td[text()="12231858"]/parent::tr`)
	if err != nil || n != 1 {
		t.Fatalf("Count row = %d, %v; want 1", n, err)
	}

	if _, err := s.Locate(ctx, "//div[@id='missing']"); !errors.Is(err, browser.ErrNotFound) {
		t.Fatalf("Locate missing = %v, want ErrNotFound", err)
	}

	ok, err := s.WaitUntil(ctx, browser.Absent("//div[@id='missing']"), time.Second)
	if err != nil || !ok {
		t.Fatalf("WaitUntil = %v, %v", ok, err)
	}

	if err := s.Navigate(ctx, srv.URL+"/nope"); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
