package core

import "net/url"

// ParseCallbackValues flattens the payload of a redirect callback URL into a
// key/value map. Fragment parameters take precedence over query parameters:
// implicit flows return tokens in the fragment, code flows in the query.
func ParseCallbackValues(u *url.URL) (map[string]string, error) {
	source := u.EscapedFragment()
	if source == "" {
		source = u.RawQuery
	}
	parsed, err := url.ParseQuery(source)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(parsed))
	for key, items := range parsed {
		if len(items) > 0 {
			values[key] = items[0]
			continue
		}
		values[key] = ""
	}
	return values, nil
}
