package fetch

import (
	"net/url"
	"strings"
)

// trackingParams are query keys that never select page content.
var trackingParams = map[string]bool{
	"campaign_id": true, "cid": true, "lid": true, "_pos": true, "add-to-cart": true,
	"logged_in": true, "_sid": true, "offer": true, "t": true, "sscid": true, "_kx": true,
	"email": true, "rdt_cid": true, "rdt_uid": true, "rdt_sid": true, "timestamp": true,
	"orderby": true, "ad_group_id": true, "filter_product_brand": true, "filtering": true,
	"filter_brand": true, "gclid": true, "fbclid": true, "theme": true, "source": true,
	"gad_source": true, "msclkid": true, "gbraid": true,
}

// IsTrackingParam reports whether a query key is stripped by CleanURL.
func IsTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}

// CleanURL removes tracking parameters from a page URL so every visit to the
// same page asks for the same suggestions. Other parameters keep their order
// and encoding. Unparseable input is returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if IsTrackingParam(key) {
			continue
		}
		kept = append(kept, pair)
	}

	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String()
}
