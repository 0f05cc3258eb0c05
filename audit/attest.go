package audit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hollowmoor/showdown/outcome"
)

// OutcomeClaims is the signed statement the engine issues alongside an
// Outcome. Downstream reward and persistence collaborators verify the
// token instead of trusting whoever relayed the outcome to them.
type OutcomeClaims struct {
	Variant     string   `json:"variant"`
	WinnerIDs   []string `json:"winner_ids"`
	Margin      int      `json:"margin"`
	Draw        bool     `json:"draw"`
	SpecialFlag bool     `json:"special_flag"`
	jwt.RegisteredClaims
}

// SignOutcome issues an HS256 token attesting the outcome. The session
// id rides in the subject claim so the token pairs with the audit trail.
func SignOutcome(out *outcome.Outcome, key []byte, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("empty attestation key")
	}
	now := time.Now()
	claims := &OutcomeClaims{
		Variant:     out.Variant,
		WinnerIDs:   out.WinnerIDs,
		Margin:      out.Margin,
		Draw:        out.Draw,
		SpecialFlag: out.SpecialFlag,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "showdown",
			Subject:   out.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// VerifyOutcome checks the signature and returns the attested claims.
func VerifyOutcome(tokenRaw string, key []byte) (*OutcomeClaims, error) {
	claims := &OutcomeClaims{}
	token, err := jwt.ParseWithClaims(tokenRaw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid attestation token")
	}
	return claims, nil
}
