// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import "regexp"

// Access token length bounds.
const (
	MinAccessTokenLength = 50
	MaxAccessTokenLength = 5000
)

// FieldAccessToken labels token validation errors.
const FieldAccessToken = "access token"

// jwtPrefix is the base64url encoding of `{"` that starts every JWT header.
const jwtPrefix = "eyJ"

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateAccessToken checks that token looks like a JWT bearer token and carries
// no characters that could break out of a shell argument or HTTP header.
// It does not verify the signature.
func ValidateAccessToken(token string) error {
	if token == "" {
		return Invalid(FieldAccessToken, "must be a non-empty string")
	}

	if len(token) < MinAccessTokenLength || len(token) > MaxAccessTokenLength {
		return Invalid(FieldAccessToken, "length must be between %d and %d characters", MinAccessTokenLength, MaxAccessTokenLength)
	}

	if token[:len(jwtPrefix)] != jwtPrefix {
		return Invalid(FieldAccessToken, "must be a valid JWT token")
	}

	if !tokenPattern.MatchString(token) {
		return Rejected(FieldAccessToken, "contains illegal characters")
	}

	return nil
}
