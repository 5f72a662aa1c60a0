package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Declared charsets that are known-wrong server placeholders. The sites
// serve GB-family or UTF-8 bodies regardless; sniff the real encoding.
var placeholderCharsets = map[string]bool{
	"iso-8859-1":   true,
	"windows-1252": true,
}

// decodeBody converts a response body to UTF-8, honoring the declared
// charset unless it is a known-wrong placeholder, in which case the encoding
// is re-sniffed from the content itself.
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	declared := declaredCharset(contentType)
	if declared == "" || placeholderCharsets[declared] {
		enc, _, _ := charset.DetermineEncoding(raw, "")
		return decodeWith(raw, enc)
	}
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, fmt.Errorf("charset reader: %w", err)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return decoded, nil
}

func decodeWith(raw []byte, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return raw, nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return decoded, nil
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}
