// Package token inspects the handed-off credential without verifying it.
// The bridge never checks signatures: the payload decode is a routing hint
// for the admin UI, not a security boundary. Real enforcement happens on the
// services behind it.
package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for anything that does not decode to the expected
// three-segment shape with a JSON payload carrying an exp claim. Callers do
// not distinguish between corrupt and expired; both end at the error route.
var ErrMalformed = errors.New("malformed token")

// Claims is the decoded payload segment of a credential.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Raw       jwtlib.MapClaims
}

// Decode splits the compact three-segment form and base64url-decodes the
// middle segment as JSON, tolerating missing padding. No signature
// verification is performed. A payload without an exp claim is treated as
// malformed: expiry is the one claim the guard depends on.
func Decode(raw string) (*Claims, error) {
	parser := jwtlib.NewParser(jwtlib.WithPaddingAllowed())

	parsed, _, err := parser.ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, ErrMalformed
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrMalformed
	}

	subject, _ := mapClaims.GetSubject()

	return &Claims{
		Subject:   subject,
		ExpiresAt: exp.Time,
		Raw:       mapClaims,
	}, nil
}

// Expired compares the exp claim (epoch seconds, widened to milliseconds)
// against now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt.UnixMilli() < now.UnixMilli()
}
