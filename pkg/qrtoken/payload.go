package qrtoken

import "time"

const msPerMinute = int64(60 * 1000)

// MaxIssuedAtMillis is 9999-12-31T23:59:59.999Z; it keeps the expiry sum
// far from int64 overflow.
const MaxIssuedAtMillis int64 = 253402300799999

// Payload is the decoded content of an attendance QR token.
type Payload struct {
	TargetID        string `json:"targetId" validate:"required"`
	IssuedAt        int64  `json:"issuedAt" validate:"required,gt=0,lte=253402300799999"`
	ValidityMinutes int    `json:"validityMinutes" validate:"required,gte=1"`
}

// ExpiresAt is the last instant at which the payload is still accepted.
func (p Payload) ExpiresAt() time.Time {
	return time.UnixMilli(p.expiryMillis())
}

func (p Payload) expiryMillis() int64 {
	return p.IssuedAt + int64(p.ValidityMinutes)*msPerMinute
}
