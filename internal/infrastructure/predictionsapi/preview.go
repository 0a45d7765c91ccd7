package predictionsapi

import (
	"strings"
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"
)

const (
	maxPreviewBody = 4096
	maxLoggedBody  = 512
)

// curlPreview is attached to outgoing spans so a failing backend call can be replayed by hand.
// Credentials and the caller id are always masked.
type curlPreview struct {
	method string
	url    string
	body   string
}

func (p curlPreview) String() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X ")
	_, _ = buf.WriteString(p.method)
	writeQuoted(buf, p.url)
	writeHeader(buf, "Authorization: Bearer ***")
	writeHeader(buf, userIDHeader+": ***")
	if p.body != "" {
		writeHeader(buf, "Content-Type: application/json")
		_, _ = buf.WriteString(" -d")
		writeQuoted(buf, p.body)
	}
	return buf.String()
}

func buildCurlPreview(method, fullURL, body string) string {
	return curlPreview{method: method, url: fullURL, body: body}.String()
}

func writeHeader(buf *bytebufferpool.ByteBuffer, header string) {
	_, _ = buf.WriteString(" -H")
	writeQuoted(buf, header)
}

// writeQuoted appends a space and value as a single-quoted shell word.
func writeQuoted(buf *bytebufferpool.ByteBuffer, value string) {
	_, _ = buf.WriteString(" '")
	_, _ = buf.WriteString(strings.ReplaceAll(value, "'", `'"'"'`))
	_ = buf.WriteByte('\'')
}

// truncateForLog cuts value to at most limit bytes without splitting a UTF-8 sequence.
func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "...(truncated)"
}

func abbreviateBody(raw []byte) string {
	return truncateForLog(strings.TrimSpace(string(raw)), maxLoggedBody)
}

// redactToken removes the backend token from transport errors, which may echo request URLs.
func redactToken(value, token string) string {
	value = strings.TrimSpace(value)
	if token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}
