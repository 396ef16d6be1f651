package internaltypes

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Listing-level failures.
	ErrCourseIDNotListed = errors.New("course id not listed")
	ErrCourseIDAmbiguous = errors.New("course id ambiguous")
	ErrLoadingFailed     = errors.New("loading failed")

	ErrCourseNotBookable = errors.New("course not bookable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSubmissionTimeout  = errors.New("submission timeout")
)

// Retryable reports whether a failed attempt may be restarted from a fresh probe.
func Retryable(err error) bool {
	return errors.Is(err, ErrCourseNotBookable) || errors.Is(err, ErrLoadingFailed)
}
