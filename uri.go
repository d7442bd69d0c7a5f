package httpmsg

import "strings"

// URI is an immutable "path?query" decomposition of the request-target
// (the second start-line token of a request). It does not implement full
// RFC 3986 URI resolution (no scheme/host/fragment) — that is a
// deliberate Non-goal.
type URI struct {
	encodedPath  string
	path         string
	encodedQuery string
	query        string
}

// ParseURI splits s on the first '?' into a raw path and raw query, and
// percent-decodes both for display purposes. EncodedQuery (not Query)
// should be used to extract form parameters, since percent-decoding the
// whole query string before splitting on '&'/'=' would corrupt any '&' or
// '=' byte that was itself percent-encoded.
func ParseURI(s string) URI {
	var u URI
	if path, query, found := strings.Cut(s, "?"); found {
		u.encodedPath = path
		u.encodedQuery = query
	} else {
		u.encodedPath = s
	}
	u.path = DecodePercent(u.encodedPath)
	u.query = DecodePercent(u.encodedQuery)
	return u
}

// EncodedPath returns the raw (still percent-encoded) path segment.
func (u URI) EncodedPath() string {
	return u.encodedPath
}

// Path returns the percent-decoded path segment.
func (u URI) Path() string {
	return u.path
}

// EncodedQuery returns the raw (still percent-encoded) query segment.
// Use this, not Query, to feed ParseParams.
func (u URI) EncodedQuery() string {
	return u.encodedQuery
}

// Query returns the percent-decoded query segment, for application-level
// display only.
func (u URI) Query() string {
	return u.query
}

// ComposedSize returns the byte length of the composed form of u:
// len(EncodedPath) + (len(EncodedQuery) > 0 ? 1 + len(EncodedQuery) : 0).
func (u URI) ComposedSize() int {
	if u.encodedQuery == "" {
		return len(u.encodedPath)
	}
	return len(u.encodedPath) + 1 + len(u.encodedQuery)
}

// String composes u back into "path?query" form (empty query segment
// omits the '?').
func (u URI) String() string {
	if u.encodedQuery == "" {
		return u.encodedPath
	}
	return u.encodedPath + "?" + u.encodedQuery
}
