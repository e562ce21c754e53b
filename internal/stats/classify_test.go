package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[int]Outcome{
		100: OutcomeError,
		199: OutcomeError,
		200: OutcomeSuccess,
		201: OutcomeSuccess,
		204: OutcomeSuccess,
		301: OutcomeSuccess,
		304: OutcomeSuccess,
		399: OutcomeSuccess,
		400: OutcomeError,
		404: OutcomeError,
		422: OutcomeError,
		500: OutcomeError,
		503: OutcomeError,
	}
	for status, want := range cases {
		assert.Equal(t, want, Classify(status), "status %d", status)
	}
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcomeOf(200, nil, false))
	assert.Equal(t, OutcomeError, outcomeOf(200, errors.New("boom"), false), "returned error wins over status")
	assert.Equal(t, OutcomeError, outcomeOf(200, nil, true), "panic wins over status")
	assert.Equal(t, OutcomeError, outcomeOf(500, nil, false))
}

func TestEndpointOf(t *testing.T) {
	cases := map[string]string{
		"/api/products":         "api/products",
		"/api/products/":        "api/products",
		"/":                     "/",
		"":                      "/",
		"//":                    "/",
		"/api/stats/api%2Fuser": "api/stats/api/user",
		"/api/search/caf%C3%A9": "api/search/café",
		"/api/bad%zzescape":     "api/bad%zzescape",
	}
	for raw, want := range cases {
		assert.Equal(t, want, EndpointOf(raw), "path %q", raw)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "error", OutcomeError.String())
}
