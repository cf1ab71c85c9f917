package identity

import (
	"net/url"
	"regexp"
)

var urlRe = regexp.MustCompile(`https?://\S+`)

// PersonalizeLink rewrites the first URL in msg so that its query string
// carries param=<digits-only canonical>. Existing values for param are
// overwritten; every other query parameter is preserved. Messages without a
// URL pass through unchanged, as does the text around the URL.
func PersonalizeLink(msg, canonical, param string) string {
	loc := urlRe.FindStringIndex(msg)
	if loc == nil {
		return msg
	}
	rewritten, ok := setQueryParam(msg[loc[0]:loc[1]], param, DigitsOnly(canonical))
	if !ok {
		return msg
	}
	return msg[:loc[0]] + rewritten + msg[loc[1]:]
}

func setQueryParam(raw, key, value string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), true
}
