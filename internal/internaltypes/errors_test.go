package internaltypes

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("probe: %w", ErrLoadingFailed), true},
		{fmt.Errorf("%w: 23404102", ErrCourseNotBookable), true},
		{ErrCourseIDNotListed, false},
		{ErrCourseIDAmbiguous, false},
		{ErrInvalidCredentials, false},
		{ErrSubmissionTimeout, false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Fatalf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
