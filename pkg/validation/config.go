// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/iwvelando/cpi-calculator/pkg/constants"
)

// Countries lists the supported country codes in presentation order.
var Countries = []string{constants.CountryEU, constants.CountryUK, constants.CountryUS}

// ValidateCountry checks that code names one of the supported statistics sources.
func ValidateCountry(code string) error {
	for _, c := range Countries {
		if code == c {
			return nil
		}
	}
	return fmt.Errorf("unknown country %q: expected one of %s", code, strings.Join(Countries, ", "))
}

// ValidateEndpoint checks that an upstream endpoint is an absolute http(s) URL.
func ValidateEndpoint(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme %q: must be http or https", name, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", name, raw)
	}
	return nil
}

// InsecureEndpointWarning returns a warning for endpoints that are not served
// over TLS, or an empty string.
func InsecureEndpointWarning(name, raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "http" {
		return ""
	}
	return fmt.Sprintf("%s uses plain http (%s)", name, raw)
}
