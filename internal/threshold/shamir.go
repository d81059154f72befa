package threshold

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Shamir secret sharing over GF(2^8). The data-encapsulation key is split
// byte-wise: each byte gets its own random polynomial with the secret byte as
// constant term, and share x holds the polynomial evaluated at x. Any
// `parts` shares reconstruct via Lagrange interpolation at zero; fewer
// shares reveal nothing about the secret.

// Share is one evaluation point of the split secret. Exported for the wire
// protocol: key servers return recovered shares in this shape.
type Share struct {
	X byte   `json:"x"`
	Y []byte `json:"y"`
}

// splitSecret splits secret into total shares, any threshold of which
// recombine. Share indexes are 1..total (x=0 would leak the secret).
func splitSecret(secret []byte, total, threshold int) ([]Share, error) {
	if threshold < 1 || threshold > total {
		return nil, fmt.Errorf("threshold %d out of range for %d shares", threshold, total)
	}
	if total > 255 {
		return nil, errors.New("at most 255 shares")
	}

	shares := make([]Share, total)
	for i := range shares {
		shares[i] = Share{X: byte(i + 1), Y: make([]byte, len(secret))}
	}

	coeffs := make([]byte, threshold)
	for pos, sb := range secret {
		coeffs[0] = sb
		if _, err := rand.Read(coeffs[1:]); err != nil {
			return nil, fmt.Errorf("generating coefficients: %w", err)
		}
		for i := range shares {
			shares[i].Y[pos] = evalPoly(coeffs, shares[i].X)
		}
	}
	return shares, nil
}

// combineShares reconstructs the secret from any sufficient subset.
// Duplicate x coordinates are rejected.
func combineShares(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.New("no shares")
	}
	size := len(shares[0].Y)
	seen := make(map[byte]bool, len(shares))
	for _, s := range shares {
		if s.X == 0 {
			return nil, errors.New("share index zero")
		}
		if seen[s.X] {
			return nil, fmt.Errorf("duplicate share index %d", s.X)
		}
		seen[s.X] = true
		if len(s.Y) != size {
			return nil, errors.New("share length mismatch")
		}
	}

	secret := make([]byte, size)
	for pos := range secret {
		var acc byte
		for i, si := range shares {
			// Lagrange basis polynomial evaluated at x=0.
			num, den := byte(1), byte(1)
			for j, sj := range shares {
				if i == j {
					continue
				}
				num = gfMul(num, sj.X)
				den = gfMul(den, si.X^sj.X)
			}
			acc ^= gfMul(si.Y[pos], gfDiv(num, den))
		}
		secret[pos] = acc
	}
	return secret, nil
}

// evalPoly evaluates the polynomial with the given coefficients at x using
// Horner's rule.
func evalPoly(coeffs []byte, x byte) byte {
	var out byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		out = gfMul(out, x) ^ coeffs[i]
	}
	return out
}

// gfMul multiplies in GF(2^8) with the AES polynomial 0x11b.
func gfMul(a, b byte) byte {
	var p byte
	for b > 0 {
		if b&1 == 1 {
			p ^= a
		}
		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return p
}

// gfDiv divides in GF(2^8). Division by zero panics; callers guarantee
// distinct share indexes.
func gfDiv(a, b byte) byte {
	if b == 0 {
		panic("threshold: division by zero in GF(256)")
	}
	if a == 0 {
		return 0
	}
	return gfMul(a, gfInv(b))
}

// gfInv computes the multiplicative inverse via exponentiation (a^254).
func gfInv(a byte) byte {
	// a^254 = a^-1 in GF(2^8)
	var result byte = 1
	base := a
	for exp := 254; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			result = gfMul(result, base)
		}
		base = gfMul(base, base)
	}
	return result
}
