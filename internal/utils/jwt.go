package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for refresh tokens
    "encoding/hex"  // hex encoding
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique token ids (jti) for revocation
)

// AccessToken is a signed JWT access token.  ID is the jti claim that the
// revocation list is keyed by.
type AccessToken struct {
    Token string    // the serialized JWT string
    ID    string    // jti claim
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access
// tokens.  Only a SHA‑256 hash of Raw is ever stored.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
    UserID uint64
    Role   string
    ID     string
    Exp    time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries sub (user id), role, jti, exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    jti := uuid.NewString()
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10),
        "role": role,
        "jti":  jti,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies an HS256 access token and extracts its claims.
// Tokens signed with any other algorithm are rejected.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return AccessClaims{}, err
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return AccessClaims{}, errors.New("invalid claims")
    }
    sub, err := claims.GetSubject()
    if err != nil {
        return AccessClaims{}, err
    }
    uid, err := strconv.ParseUint(sub, 10, 64)
    if err != nil || uid == 0 {
        return AccessClaims{}, errors.New("invalid subject")
    }
    exp, err := claims.GetExpirationTime()
    if err != nil || exp == nil {
        return AccessClaims{}, errors.New("missing expiration")
    }
    role, _ := claims["role"].(string)
    jti, _ := claims["jti"].(string)
    return AccessClaims{UserID: uid, Role: role, ID: jti, Exp: exp.Time}, nil
}

// NewRefreshToken returns a cryptographically secure random token and its
// expiration time, ttlDays from now.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA‑256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
