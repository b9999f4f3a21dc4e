// Package totp wraps the time-based one-time password pieces of the
// two-factor flow: secret generation, otpauth:// enrollment URIs, QR
// rendering, and code verification with a bounded clock-skew window.
package totp

import (
	"bytes"
	"errors"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the TOTP step size in seconds.
	DefaultPeriod uint = 30
	// DefaultSkew accepts codes from one step on either side of now, the
	// usual tolerance for client clock drift.
	DefaultSkew uint = 1
)

// Generator parameterizes secret generation and code checks. The zero
// value is not usable; construct with NewGenerator.
type Generator struct {
	issuer string
	period uint
	skew   uint
}

// NewGenerator returns a Generator for the given issuer. Zero period or
// skew fall back to the defaults.
func NewGenerator(issuer string, period, skew uint) (Generator, error) {
	if issuer == "" {
		return Generator{}, errors.New("totp: issuer is required")
	}
	if period == 0 {
		period = DefaultPeriod
	}
	if skew == 0 {
		skew = DefaultSkew
	}
	return Generator{issuer: issuer, period: period, skew: skew}, nil
}

// Generate creates a fresh shared secret for account (the user's email)
// and returns the key whose URL is the enrollment URI for authenticator
// apps.
func (g Generator) Generate(account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: account,
		Period:      g.period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// Verify checks a six-digit code against the base32 secret at time now,
// accepting the configured skew window. Malformed codes simply verify
// false.
func (g Generator) Verify(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    g.period,
		Skew:      g.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// QRPNG renders the enrollment URI as a size×size PNG for provisioning.
func QRPNG(enrollmentURI string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(enrollmentURI)
	if err != nil {
		return nil, err
	}

	img, err := key.Image(size, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
