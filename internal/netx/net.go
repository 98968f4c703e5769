// Package netx resolves navigation targets for the checkout handoff.
package netx

import (
	"net/url"
	"strings"
)

// ConfirmationURL returns the address of the confirmation page for orderID,
// resolved against the page the checkout ran on.
//
// The target is looked up next to pageURL, except when pageURL lives under
// the subdir segment (e.g. ".../categories/rings.html"), where the target is
// resolved one directory up. Query and fragment of pageURL are dropped and
// backslashes are treated as slashes. If pageURL cannot be used the bare
// relative "target?order=<id>" is returned.
func ConfirmationURL(pageURL, target, subdir, orderID string) string {
	query := url.Values{"order": []string{orderID}}.Encode()
	fallback := target + "?" + query

	if pageURL == "" {
		return fallback
	}

	base, err := url.Parse(strings.ReplaceAll(pageURL, `\`, "/"))
	if err != nil {
		return fallback
	}
	base.RawQuery = ""
	base.Fragment = ""

	rel := target
	if subdir != "" && strings.Contains(strings.ToLower(base.Path), "/"+strings.ToLower(subdir)+"/") {
		rel = "../" + target
	}

	ref, err := url.Parse(rel)
	if err != nil {
		return fallback
	}

	u := base.ResolveReference(ref)
	u.RawQuery = query
	return u.String()
}

// OrderFromURL extracts the order id from a confirmation address. A value
// without a query string is returned unchanged so plain ids work too.
func OrderFromURL(s string) string {
	if !strings.Contains(s, "?") {
		return s
	}
	u, err := url.Parse(strings.ReplaceAll(s, `\`, "/"))
	if err != nil {
		return ""
	}
	return u.Query().Get("order")
}
