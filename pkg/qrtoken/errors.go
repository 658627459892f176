package qrtoken

import "errors"

var (
	ErrMalformedPayload = errors.New("malformed qr payload")
	ErrExpired          = errors.New("qr code expired")
	ErrInvalidRequest   = errors.New("invalid qr request")
)
