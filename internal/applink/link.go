// Package applink builds the web application link handed off at the end of
// a call and sends the follow-up emails around a loan decision.
package applink

import (
	"net/url"
	"strings"
)

// BuildLink returns the pre-filled application URL for the caller. The same
// inputs always produce the same link.
func BuildLink(baseURL, legalName, phone, zip string) string {
	q := url.Values{}
	q.Set("legal_name", legalName)
	q.Set("phone", phone)
	q.Set("zip_code", zip)
	return strings.TrimRight(baseURL, "/") + "/apply?" + q.Encode()
}
