package models

import "strings"

const AnonymousPrincipal = "anonymous"

// Caller is the identity behind a single request. It is passed explicitly to
// every store operation; nothing about it is kept between calls.
type Caller struct {
	Principal string `json:"principal"`
}

func AnonymousCaller() Caller {
	return Caller{Principal: AnonymousPrincipal}
}

func NewCaller(principal string) Caller {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return AnonymousCaller()
	}
	return Caller{Principal: principal}
}

func (c Caller) Authenticated() bool {
	return c.Principal != "" && c.Principal != AnonymousPrincipal
}
