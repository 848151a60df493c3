package auth

import (
	"encoding/base64"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skillbridge/auth/internal/common"
)

// MinKeyBytes is the minimum HMAC key size accepted by the codec (256 bits).
const MinKeyBytes = 32

var signingMethod = jwt.SigningMethodHS256

// Claims is the decoded payload of a signed token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// Expired reports whether the token is no longer valid at now.
// A token is valid only while now < ExpiresAt.
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// String returns the extra claim key as a string, or "" when absent.
func (c Claims) String(key string) string {
	s, _ := c.Extra[key].(string)
	return s
}

// Codec signs and verifies HS256 JWTs with a single shared key.
type Codec struct {
	key []byte
	now func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec decodes a base64 signing secret and builds a Codec. An empty
// secret yields common.ErrConfigurationMissing; a key shorter than
// MinKeyBytes yields common.ErrWeakSigningKey.
func NewCodec(encodedSecret string, opts ...CodecOption) (*Codec, error) {
	encodedSecret = strings.TrimSpace(encodedSecret)
	if encodedSecret == "" {
		return nil, fmt.Errorf("%w: signing secret", common.ErrConfigurationMissing)
	}
	key, err := decodeSecret(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: signing secret is not valid base64", common.ErrConfigurationMissing)
	}
	return NewCodecFromKey(key, opts...)
}

// NewCodecFromKey builds a Codec from raw key material.
func NewCodecFromKey(key []byte, opts ...CodecOption) (*Codec, error) {
	if len(key) < MinKeyBytes {
		return nil, common.ErrWeakSigningKey
	}
	c := &Codec{key: append([]byte(nil), key...), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func decodeSecret(s string) ([]byte, error) {
	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		key, err := enc.DecodeString(s)
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Encode signs a token for subject that expires ttl from now. Extra claims
// are copied into the payload; sub, iat and exp always win over them.
func (c *Codec) Encode(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	now := c.now()

	payload := make(jwt.MapClaims, len(claims)+3)
	maps.Copy(payload, claims)
	payload["sub"] = subject
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(signingMethod, payload).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and algorithm, then parses the payload.
// Any failure is reported as common.ErrInvalidSignature. Expiry is not
// checked here; see Verify and Claims.Expired.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	payload := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenString, payload, func(*jwt.Token) (any, error) {
		return c.key, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", common.ErrInvalidSignature, err)
	}

	sub, err := payload.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", common.ErrInvalidSignature)
	}
	exp, err := payload.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, fmt.Errorf("%w: missing expiry", common.ErrInvalidSignature)
	}

	claims := Claims{Subject: sub, ExpiresAt: exp.Time, Extra: map[string]any{}}
	if iat, err := payload.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	for k, v := range payload {
		switch k {
		case "sub", "iat", "exp":
		default:
			claims.Extra[k] = v
		}
	}
	return claims, nil
}

// Verify decodes the token and rejects it with common.ErrTokenExpired once
// its expiry has passed. The parsed claims are returned in both cases.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.Expired(c.now()) {
		return claims, common.ErrTokenExpired
	}
	return claims, nil
}

// ExtractSubject returns the sub claim of a correctly signed token.
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
