// Package fulfillment processes payment-completion events: verify the
// notification signature, claim the event exactly once, rebuild the
// submission, render the certificate, and deliver it by email.
package fulfillment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medipause/certserve/model"
)

// DefaultTolerance bounds how old a signed timestamp may be. Notifications
// outside the window are rejected even with a valid MAC, limiting replay of
// captured payloads.
const DefaultTolerance = 5 * time.Minute

// SignatureHeader is the HTTP header carrying the notification signature.
const SignatureHeader = "Processor-Signature"

// Verifier checks notification signatures. The scheme is the processor's:
// the header holds "t=<unix>,v1=<hex>" and the MAC is HMAC-SHA256 over
// "<t>.<raw body>" with the shared webhook secret.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier with the shared secret. A zero tolerance
// falls back to DefaultTolerance.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify checks the signature header against the raw request body. Any
// failure is a SIGNATURE_INVALID envelope; callers must not distinguish the
// reasons to the sender.
func (v *Verifier) Verify(header string, body []byte) error {
	ts, macs, err := parseSignatureHeader(header)
	if err != nil {
		return model.NewSignatureInvalidError(err.Error())
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return model.NewSignatureInvalidError("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range macs {
		raw, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}
	return model.NewSignatureInvalidError("no matching signature")
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]". Multiple v1
// entries are allowed so the sender can rotate secrets.
func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, fmt.Errorf("missing signature header")
	}

	var ts int64 = -1
	var macs []string
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, fmt.Errorf("malformed signature header")
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed signature timestamp")
			}
			ts = parsed
		case "v1":
			macs = append(macs, val)
		}
	}
	if ts < 0 {
		return 0, nil, fmt.Errorf("signature header has no timestamp")
	}
	if len(macs) == 0 {
		return 0, nil, fmt.Errorf("signature header has no signature")
	}
	return ts, macs, nil
}
