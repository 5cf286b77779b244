package config

import (
	"net/url"
	"strings"
)

// TableLocation is a parsed table root URI. Its path always ends with "/",
// so appending a relative file path can never escape the root.
type TableLocation struct {
	u *url.URL
}

// ParseTableLocation parses raw and enforces the trailing-separator invariant.
func ParseTableLocation(raw string) (TableLocation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TableLocation{}, &ConfigurationError{Field: "table", Reason: "table uri is required"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return TableLocation{}, &ConfigurationError{Field: "table", Reason: "invalid uri", Err: err}
	}

	switch u.Scheme {
	case "s3", "s3a":
		if u.Host == "" {
			return TableLocation{}, &ConfigurationError{Field: "table", Reason: "s3 uri must name a bucket"}
		}
	case "file":
	case "":
		return TableLocation{}, &ConfigurationError{Field: "table", Reason: "uri scheme is required (s3:// or file://)"}
	default:
		return TableLocation{}, &ConfigurationError{Field: "table", Reason: "unsupported uri scheme " + u.Scheme}
	}

	if !strings.HasSuffix(u.Path, "/") {
		return TableLocation{}, &ConfigurationError{Field: "table", Reason: "path must end with /"}
	}

	return TableLocation{u: u}, nil
}

func (l TableLocation) Scheme() string { return l.u.Scheme }

// Bucket is the URI host; empty for file:// locations.
func (l TableLocation) Bucket() string { return l.u.Host }

// Path is the root path including its leading and trailing separators.
func (l TableLocation) Path() string { return l.u.Path }

// Prefix is the root path with its leading separator stripped, i.e. the
// bucket-relative key prefix every deletion key starts with.
func (l TableLocation) Prefix() string { return strings.TrimPrefix(l.u.Path, "/") }

func (l TableLocation) String() string {
	if l.u == nil {
		return ""
	}
	return l.u.String()
}
