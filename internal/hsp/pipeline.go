package hsp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/domain/course"
	"github.com/example/hsp-booker/internal/domain/user"
	"github.com/example/hsp-booker/internal/internaltypes"
)

const (
	bookingWidth  = 2000
	bookingHeight = 1500

	optionalFieldWait = time.Second
)

// errSkipStep is returned by a Fill func when an optional field is absent.
var errSkipStep = errors.New("step not applicable")

// Step is one state transition of the booking form. When Submit is set the
// step completes once Done holds; Submit is re-clicked until then.
type Step struct {
	Name    string
	Fill    func(ctx context.Context, page browser.Page) error
	Submit  browser.Selector
	Done    browser.Condition
	Timeout time.Duration
}

// Request is everything one run of the booking form needs.
type Request struct {
	Target      course.Target
	State       course.State
	Credentials user.Credentials
	// Test stops before the final confirmation.
	Test bool
	// SnapshotPath overrides the default booking_confirmation_<id>.png.
	SnapshotPath string
}

type Result struct {
	Steps    []string
	Snapshot string
	Record   string
	Ticket   Ticket
}

// Pipeline fills and submits the booking form in a tab opened from the
// course listing.
type Pipeline struct {
	Retrier       *Retrier
	SubmitTimeout time.Duration
	SnapshotDir   string
	Log           zerolog.Logger
}

func NewPipeline(r *Retrier, submitTimeout time.Duration, snapshotDir string, log zerolog.Logger) *Pipeline {
	if submitTimeout <= 0 {
		submitTimeout = 20 * time.Second
	}
	return &Pipeline{Retrier: r, SubmitTimeout: submitTimeout, SnapshotDir: snapshotDir, Log: log}
}

// Run books req.Target. listing must still show the page req.State was
// probed from. The booking tab is closed when Run returns.
func (p *Pipeline) Run(ctx context.Context, listing browser.Page, req Request) (Result, error) {
	var res Result
	if !req.State.Eligible() {
		return res, fmt.Errorf("%w: %s (%s)", internaltypes.ErrCourseNotBookable, req.Target.ID, req.State.StatusLine())
	}
	if err := req.Credentials.Validate(); err != nil {
		return res, err
	}

	page, err := listing.Follow(ctx, controlSelector(req.Target.ID))
	if err != nil {
		return res, fmt.Errorf("%w: open booking form for %s: %w", internaltypes.ErrLoadingFailed, req.Target.ID, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			p.Log.Debug().Err(err).Msg("close booking tab")
		}
	}()
	if err := page.Resize(ctx, bookingWidth, bookingHeight); err != nil {
		p.Log.Debug().Err(err).Msg("resize booking tab")
	}

	for _, step := range p.Steps(req) {
		log := p.Log.With().Str("step", step.Name).Logger()
		if step.Fill != nil {
			err := step.Fill(ctx, page)
			if errors.Is(err, errSkipStep) {
				log.Debug().Msg("skipped")
				continue
			}
			if err != nil {
				return res, fmt.Errorf("step %s: %w", step.Name, err)
			}
		}
		if step.Submit != "" {
			if err := p.Retrier.RetrySubmit(ctx, page, step.Submit, step.Done, step.Timeout); err != nil {
				return res, fmt.Errorf("step %s: %w", step.Name, err)
			}
		}
		res.Steps = append(res.Steps, step.Name)
		log.Info().Msg("done")
	}

	p.record(ctx, page, req, &res)
	return res, nil
}

// Steps lists the transitions for req in execution order. Exactly one of
// the login and personal-details branches is included.
func (p *Pipeline) Steps(req Request) []Step {
	var steps []Step
	if req.Target.Password != "" {
		steps = append(steps, p.coursePassword(req.Target.Password))
	}

	creds := req.Credentials
	switch a := creds.Access.(type) {
	case user.LoginPayload:
		steps = append(steps, p.login(creds.Email, a.Password), addressPatch(creds.Profile))
	case user.DirectPayload:
		steps = append(steps, personalDetails(creds.Profile))
	}

	steps = append(steps,
		Step{Name: "terms", Fill: agreeTerms},
		Step{
			Name: "submit",
			Fill: func(ctx context.Context, page browser.Page) error {
				if err := page.Eval(ctx, skipCountdownJS); err != nil {
					p.Log.Debug().Err(err).Msg("countdown skip not applied")
				}
				return nil
			},
			Submit:  selContinue,
			Done:    browser.Absent(selTermsCheckbox),
			Timeout: p.SubmitTimeout,
		},
		Step{Name: "confirm email", Fill: typeIfPresent(selConfirmEmail, creds.Email)},
	)
	if !req.Test {
		steps = append(steps, Step{
			Name:    "confirm",
			Submit:  selConfirm,
			Done:    browser.Present(selConfirmMarker),
			Timeout: p.SubmitTimeout,
		})
	}
	return steps
}

func (p *Pipeline) coursePassword(password string) Step {
	return Step{
		Name:    "course password",
		Fill:    typeIfPresent(selCoursePassword, password),
		Submit:  selCoursePasswordSubmit,
		Done:    browser.Absent(selCoursePassword),
		Timeout: p.SubmitTimeout,
	}
}

func (p *Pipeline) login(email, password string) Step {
	return Step{
		Name: "login",
		Fill: func(ctx context.Context, page browser.Page) error {
			if err := page.Click(ctx, selLoginLink); err != nil {
				return err
			}
			ok, err := page.WaitUntil(ctx, browser.Present(selLoginEmail), optionalFieldWait)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("login form did not open")
			}
			if err := page.Type(ctx, selLoginEmail, email); err != nil {
				return err
			}
			return page.Type(ctx, selLoginPassword, password)
		},
		Submit:  selContinue,
		Done:    browser.Absent(selLoginPassword),
		Timeout: p.SubmitTimeout,
	}
}

func addressPatch(pr user.Profile) Step {
	return Step{
		Name: "address",
		Fill: func(ctx context.Context, page browser.Page) error {
			for _, f := range []struct {
				sel  browser.Selector
				text string
			}{
				{selStreet, pr.StreetLine()},
				{selCity, pr.CityLine()},
			} {
				if err := page.Clear(ctx, f.sel); err != nil {
					return err
				}
				if err := page.Type(ctx, f.sel, f.text); err != nil {
					return err
				}
			}
			return fillIBAN(ctx, page, pr.IBAN)
		},
	}
}

func personalDetails(pr user.Profile) Step {
	return Step{
		Name: "personal details",
		Fill: func(ctx context.Context, page browser.Page) error {
			n, err := page.Count(ctx, statusOption(string(pr.Status)))
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("status %s is not offered by this course", pr.Status)
			}
			if err := page.Select(ctx, selStatus, string(pr.Status)); err != nil {
				return err
			}
			switch {
			case pr.Status.Student():
				if err := page.Type(ctx, selStudentID, pr.PID); err != nil {
					return err
				}
			case pr.Status.Employee():
				if err := page.Type(ctx, selEmployeeID, pr.PID); err != nil {
					return err
				}
			}
			if err := page.Click(ctx, genderRadio(pr.Gender)); err != nil {
				return err
			}
			for _, f := range []struct {
				sel  browser.Selector
				text string
			}{
				{selFirstName, pr.Name},
				{selSurname, pr.Surname},
				{selStreet, pr.StreetLine()},
				{selCity, pr.CityLine()},
				{selEmail, pr.Email},
				{selPhone, pr.Phone},
			} {
				if err := page.Type(ctx, f.sel, f.text); err != nil {
					return err
				}
			}
			return fillIBAN(ctx, page, pr.IBAN)
		},
	}
}

// fillIBAN fills the IBAN field if the form shows one within a second.
func fillIBAN(ctx context.Context, page browser.Page, iban string) error {
	ok, err := page.WaitUntil(ctx, browser.Present(selIBAN), optionalFieldWait)
	if err != nil || !ok {
		return err
	}
	if err := page.Clear(ctx, selIBAN); err != nil {
		return err
	}
	return page.Type(ctx, selIBAN, iban)
}

func agreeTerms(ctx context.Context, page browser.Page) error {
	ok, err := page.WaitUntil(ctx, browser.Present(selTerms), optionalFieldWait)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("terms control not present")
	}
	return page.Click(ctx, selTerms)
}

func typeIfPresent(sel browser.Selector, text string) func(context.Context, browser.Page) error {
	return func(ctx context.Context, page browser.Page) error {
		n, err := page.Count(ctx, sel)
		if err != nil {
			return err
		}
		if n == 0 {
			return errSkipStep
		}
		return page.Type(ctx, sel, text)
	}
}

// record saves the final page as a screenshot and an HTML file. Failures are
// logged only; the booking itself already went through.
func (p *Pipeline) record(ctx context.Context, page browser.Page, req Request, res *Result) {
	path := req.SnapshotPath
	if path == "" {
		path = filepath.Join(p.SnapshotDir, fmt.Sprintf("booking_confirmation_%s.png", req.Target.ID))
	}
	if err := page.SaveSnapshot(ctx, path); err != nil {
		p.Log.Warn().Err(err).Str("path", path).Msg("save snapshot")
	} else {
		res.Snapshot = path
	}

	html, err := page.HTML(ctx)
	if err != nil {
		p.Log.Warn().Err(err).Msg("read confirmation page")
		return
	}
	recordPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	if err := os.WriteFile(recordPath, []byte(html), 0o644); err != nil {
		p.Log.Warn().Err(err).Str("path", recordPath).Msg("save page record")
	} else {
		res.Record = recordPath
	}
	if t, err := ExtractTicket(html); err != nil {
		p.Log.Debug().Err(err).Msg("extract ticket")
	} else {
		res.Ticket = t
	}
}
