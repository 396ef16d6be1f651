// Package hsp reads the Hochschulsport course listing and drives its booking form.
package hsp

import (
	"fmt"

	"github.com/example/hsp-booker/internal/browser"
)

// Course listing page.
const (
	selCourseName browser.Selector = "//div[@class='bs_head']"

	cellWeekday  = "bs_stag"
	cellTime     = "bs_szeit"
	cellLocation = "bs_sort"
	cellLevel    = "bs_sdet"

	classWaitlist = "bs_btn_warteliste"
	classBook     = "bs_btn_buchen"
)

func rowSelector(id string) browser.Selector {
	return browser.Selector(fmt.Sprintf(`//td[text()="%s"]/parent::tr`, id))
}

func cellSelector(id, class string) browser.Selector {
	return rowSelector(id) + browser.Selector(fmt.Sprintf(`/td[@class="%s"]`, class))
}

// controlSelector is the booking button or status text right after the
// course anchor.
func controlSelector(id string) browser.Selector {
	return browser.Selector(fmt.Sprintf("(//a[@id='K%s']/following::*)[1]", id))
}

// Booking form.
const (
	selCoursePassword       browser.Selector = "//input[@class='bs_form_field'][@name='passwd']"
	selCoursePasswordSubmit browser.Selector = "//input[@type='submit'][@value='weiter']"

	selLoginLink     browser.Selector = `//div[@id="bs_pw_anmlink"]`
	selLoginEmail    browser.Selector = `//input[@name="pw_email"]`
	selLoginPassword browser.Selector = `//input[contains(@name, "pw_pwd_")]`

	selStudentID  browser.Selector = `//input[@id="BS_F1700"][@name="matnr"]`
	selEmployeeID browser.Selector = `//input[@id="BS_F1700"][@name="mitnr"]`
	selFirstName  browser.Selector = `//input[@id="BS_F1100"][@name="vorname"]`
	selSurname    browser.Selector = `//input[@id="BS_F1200"][@name="name"]`
	selStatus     browser.Selector = `//select[@id="BS_F1600"]`
	selStreet     browser.Selector = `//input[@id="BS_F1300"][@name="strasse"]`
	selCity       browser.Selector = `//input[@id="BS_F1400"][@name="ort"]`
	selEmail      browser.Selector = `//input[@id="BS_F2000"][@name="email"]`
	selPhone      browser.Selector = `//input[@id="BS_F2100"][@name="telefon"]`
	selIBAN       browser.Selector = `//input[@id="BS_F_iban"][@name="iban"]`

	selTerms         browser.Selector = `//input[@name="tnbed"]`
	selTermsCheckbox browser.Selector = "//input[@type='checkbox'][@name='tnbed']"
	selContinue      browser.Selector = "//input[@type='submit'][@value='weiter zur Buchung']"

	selConfirmEmail  browser.Selector = "//input[@class='bs_form_field'][contains(@name, 'email_check_')]"
	selConfirm       browser.Selector = "//input[@type='submit'][contains(@value, 'buchen')]"
	selConfirmMarker browser.Selector = "//div[contains(@class, 'bs_text_red') and contains(@class, 'bs_text_big')]"
)

func statusOption(status string) browser.Selector {
	return browser.Selector(fmt.Sprintf(`%s//option[@value="%s"]`, selStatus, status))
}

func genderRadio(gender string) browser.Selector {
	return browser.Selector(fmt.Sprintf(`//input[@name="sex"][@value="%s"]`, gender))
}

// skipCountdownJS hides the submit countdown the form shows before it
// accepts input.
const skipCountdownJS = `document.getElementById("bs_counter").className = "hidden"; document.getElementById("bs_submit").className = "sub"; send = 1;`
