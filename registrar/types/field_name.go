package types

import (
	"strings"

	"github.com/pkg/errors"
)

// RawFieldName is a normalized admin-facing field name.
type RawFieldName string

// Admin field names. RawAll is a meta-name resolved by the admin dispatch;
// it is not a valid target for a single-field mutation.
const (
	RawLegalName   RawFieldName = "legal_name"
	RawDisplayName RawFieldName = "display_name"
	RawEmail       RawFieldName = "email"
	RawWeb         RawFieldName = "web"
	RawTwitter     RawFieldName = "twitter"
	RawMatrix      RawFieldName = "matrix"
	RawAll         RawFieldName = "all"
)

// ErrUnknownFieldName is returned when a token does not normalize to any
// known field name.
var ErrUnknownFieldName = errors.New("unknown field name")

// NormalizeFieldName lowercases a token and strips whitespace, dashes and
// underscores, making the admin grammar tolerant of spellings like
// "display_name", "Display-Name" and "displayname".
func NormalizeFieldName(token string) string {
	normalized := strings.ToLower(strings.TrimSpace(token))
	return strings.NewReplacer("-", "", "_", "").Replace(normalized)
}

// ParseRawFieldName parses an admin-supplied field token.
func ParseRawFieldName(token string) (RawFieldName, error) {
	switch NormalizeFieldName(token) {
	case "legalname":
		return RawLegalName, nil
	case "displayname":
		return RawDisplayName, nil
	case "email":
		return RawEmail, nil
	case "web":
		return RawWeb, nil
	case "twitter":
		return RawTwitter, nil
	case "matrix":
		return RawMatrix, nil
	case "all":
		return RawAll, nil
	default:
		return "", errors.Wrapf(ErrUnknownFieldName, "%q", NormalizeFieldName(token))
	}
}

// ManuallyVerifiableFieldNames lists every field name a manual verification
// may target, in the order a full manual verification walks them.
func ManuallyVerifiableFieldNames() []RawFieldName {
	return []RawFieldName{RawLegalName, RawDisplayName, RawEmail, RawWeb, RawTwitter, RawMatrix}
}

// String implements fmt.Stringer.
func (r RawFieldName) String() string {
	return string(r)
}
