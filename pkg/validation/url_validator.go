package validation

import (
	"net/url"
	"strings"

	apperrors "go-dirtycam/internal/errors"
)

// URLValidator decides which remote image URLs may be fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https host
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{"http", "https"}, nil)
}

// NewURLValidatorWithOptions restricts schemes and hosts. A host entry of
// the form "*.example.com" matches every subdomain of example.com. An empty
// host list allows all hosts.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	v := &URLValidator{}
	for _, s := range schemes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			v.allowedSchemes = append(v.allowedSchemes, s)
		}
	}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			v.allowedHosts = append(v.allowedHosts, h)
		}
	}
	return v
}

// ValidateImageURL returns a validation error when imageURL may not be fetched
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed: "+parsedURL.Scheme, nil)
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(host) {
		return apperrors.NewValidationError("URL host not allowed: "+host, nil)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if suffix, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
