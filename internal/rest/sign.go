package rest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// decodeAccountKey decodes the base64 shared key.
func decodeAccountKey(accountKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(accountKey)
	if err != nil {
		return nil, fmt.Errorf("account key is not valid base64: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("account key is empty")
	}
	return key, nil
}

// sign computes the shared-key signature for req and sets the Authorization
// header. The canonical string covers the method, the payload length and
// hashes, the range header, every x-tc-* header in sorted order, and the
// canonicalized resource path including query parameters.
func (c *Client) sign(req *http.Request, contentLength int64) error {
	lengthField := ""
	if contentLength > 0 {
		lengthField = fmt.Sprintf("%d", contentLength)
	}

	canonical := strings.Join([]string{
		req.Method,
		lengthField,
		req.Header.Get("Content-MD5"),
		req.Header.Get("Content-Type"),
		req.Header.Get("Range"),
		canonicalHeaders(req.Header),
		canonicalResource(c.account, req),
	}, "\n")

	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(canonical))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("Authorization", fmt.Sprintf("TC %s:%s", c.account, signature))
	return nil
}

// canonicalHeaders returns every x-tc-* header as "name:value" lines in
// lexicographic order.
func canonicalHeaders(header http.Header) string {
	var lines []string
	for name, values := range header {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "x-tc-") {
			continue
		}
		lines = append(lines, lower+":"+strings.Join(values, ","))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// canonicalResource returns "/account/path" plus the sorted query parameters.
func canonicalResource(account string, req *http.Request) string {
	resource := "/" + account + req.URL.Path

	query := req.URL.Query()
	if len(query) == 0 {
		return resource
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(resource)
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(strings.ToLower(k))
		b.WriteString(":")
		b.WriteString(strings.Join(query[k], ","))
	}
	return b.String()
}
