package hsp

// Selectors for tests in package hsp_test.
var (
	SelCourseName    = selCourseName
	RowSelector      = rowSelector
	ControlSelector  = controlSelector
	SelStatus        = selStatus
	StatusOption     = statusOption
	GenderRadio      = genderRadio
	SelFirstName     = selFirstName
	SelSurname       = selSurname
	SelStreet        = selStreet
	SelCity          = selCity
	SelEmail         = selEmail
	SelPhone         = selPhone
	SelTerms         = selTerms
	SelTermsCheckbox = selTermsCheckbox
	SelContinue      = selContinue
	SelConfirm       = selConfirm
	SelConfirmMarker = selConfirmMarker
)
