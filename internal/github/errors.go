package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
)

// RequestError is the single failure shape of every remote call. StatusCode
// is non-zero only when the server answered with a non-success status; it is
// zero for transport failures and timeouts, whose cause is kept in Err.
type RequestError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s failed with %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HasStatus reports whether the remote server responded at all.
func (e *RequestError) HasStatus() bool { return e.StatusCode != 0 }

// normalize maps go-github failures onto RequestError.
func normalize(u string, resp *gh.Response, err error) error {
	var (
		errResp   *gh.ErrorResponse
		rateErr   *gh.RateLimitError
		abuseErr  *gh.AbuseRateLimitError
		acceptErr *gh.AcceptedError
	)
	switch {
	case errors.As(err, &errResp):
		return &RequestError{URL: u, StatusCode: statusOf(errResp.Response), Body: errResp.Message, Err: err}
	case errors.As(err, &rateErr):
		return &RequestError{URL: u, StatusCode: statusOf(rateErr.Response), Body: rateErr.Message, Err: err}
	case errors.As(err, &abuseErr):
		return &RequestError{URL: u, StatusCode: statusOf(abuseErr.Response), Body: abuseErr.Message, Err: err}
	case errors.As(err, &acceptErr):
		return &RequestError{URL: u, StatusCode: http.StatusAccepted, Body: string(acceptErr.Raw), Err: err}
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusMultipleChoices {
		return &RequestError{URL: u, StatusCode: resp.StatusCode, Err: err}
	}
	return &RequestError{URL: u, Err: err}
}

func statusOf(r *http.Response) int {
	if r == nil {
		// go-github synthesizes these when it refuses to send a request
		// because the previous response exhausted the rate limit
		return http.StatusForbidden
	}
	return r.StatusCode
}
