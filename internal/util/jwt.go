package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims issued by the identity provider. Subject is the user id.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

func parsePEMPublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// keyFuncFor picks the verification key from the token's alg header.
func keyFuncFor(keyMaterial string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return []byte(keyMaterial), nil
		case *jwt.SigningMethodRSA:
			pub, err := parsePEMPublicKey(keyMaterial)
			if err != nil {
				return nil, err
			}
			rsaPub, ok := pub.(*rsa.PublicKey)
			if !ok {
				return nil, errors.New("public key is not RSA")
			}
			return rsaPub, nil
		case *jwt.SigningMethodECDSA:
			pub, err := parsePEMPublicKey(keyMaterial)
			if err != nil {
				return nil, err
			}
			ecdsaPub, ok := pub.(*ecdsa.PublicKey)
			if !ok {
				return nil, errors.New("public key is not ECDSA")
			}
			return ecdsaPub, nil
		default:
			return nil, fmt.Errorf("unsupported signing algorithm: %v", token.Header["alg"])
		}
	}
}

// ValidateJWT verifies tokenString with keyMaterial, which is either an HMAC
// secret or a PEM-encoded RSA/ECDSA public key.
func ValidateJWT(tokenString string, keyMaterial string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFuncFor(keyMaterial),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
