package stats

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2/utils"
)

// Outcome is the classification of one finished request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "error"
}

// Classify maps a response status to an outcome: [200, 400) is a success.
func Classify(status int) Outcome {
	if status >= 200 && status < 400 {
		return OutcomeSuccess
	}
	return OutcomeError
}

// outcomeOf treats a returned error or a panic as an error whatever the
// status currently written to the response says.
func outcomeOf(status int, err error, panicked bool) Outcome {
	if panicked || err != nil {
		return OutcomeError
	}
	return Classify(status)
}

// EndpointOf derives the stats key from a raw request path: surrounding
// slashes are trimmed, escapes are decoded and the root path stays "/".
// The result never aliases the input.
func EndpointOf(rawPath string) string {
	path := rawPath
	if decoded, err := url.PathUnescape(rawPath); err == nil {
		path = decoded
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	return utils.CopyString(path)
}
