package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an operator account password with bcrypt.  The
// cost comes from BCRYPT_COST, letting deployments trade login latency
// against brute-force resistance; out-of-range values fall back to the
// bcrypt default rather than failing account creation.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
