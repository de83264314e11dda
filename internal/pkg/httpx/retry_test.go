package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string        { return fmt.Sprintf("http %d", e.code) }
func (e *statusErr) HTTPStatusCode() int  { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
		{599, true},
	}
	for _, tc := range cases {
		if got := IsRetryableHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d)=%v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsTransientOverload(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"typed_503", &statusErr{503}, true},
		{"typed_500", &statusErr{500}, false},
		{"typed_429", &statusErr{429}, false},
		{"marker_in_text", errors.New("backend said 503 unavailable"), true},
		{"plain_error", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransientOverload(tc.err); got != tc.want {
				t.Fatalf("IsTransientOverload(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestExpBackoffWindow(t *testing.T) {
	for attempt := 0; attempt < 4; attempt++ {
		base := time.Duration(int64(1)<<uint(attempt)) * time.Second
		for i := 0; i < 50; i++ {
			d := ExpBackoff(attempt)
			if d < base || d >= base+time.Second {
				t.Fatalf("ExpBackoff(%d)=%v outside [%v, %v)", attempt, d, base, base+time.Second)
			}
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 3*time.Second {
		t.Fatalf("RetryAfterDuration header = %v, want 3s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("RetryAfterDuration fallback = %v, want 1s", got)
	}
	resp = &http.Response{Header: http.Header{"Retry-After": []string{"60"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("RetryAfterDuration cap = %v, want 10s", got)
	}
}
