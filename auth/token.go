package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds best-effort metadata decoded from an access token.
// All fields are optional; a token that is not a decodable JWT yields
// the zero value.
type Claims struct {
	Issuer   string    `json:"iss,omitempty"`
	Subject  string    `json:"sub,omitempty"`
	Audience []string  `json:"aud,omitempty"`
	IssuedAt time.Time `json:"iat,omitempty"`
	Expiry   time.Time `json:"exp,omitempty"`
	Scope    string    `json:"scope,omitempty"`
}

// DecodeClaims extracts claims from an access token without
// verifying its signature. Decode failures are tolerated and produce
// empty claims; they are never surfaced as errors.
func DecodeClaims(accessToken string) Claims {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return Claims{}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}
	}

	var c Claims
	if iss, err := mapClaims.GetIssuer(); err == nil {
		c.Issuer = iss
	}
	if sub, err := mapClaims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if aud, err := mapClaims.GetAudience(); err == nil {
		c.Audience = aud
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.Expiry = exp.Time
	}
	if scope, ok := mapClaims["scope"].(string); ok {
		c.Scope = scope
	}
	return c
}
