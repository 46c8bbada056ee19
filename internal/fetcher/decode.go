package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"mime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// decompress undoes a declared gzip or deflate Content-Encoding. When the
// body cannot be decompressed the raw bytes are returned unchanged.
// truncated is set when the decompressed body exceeds limit.
func decompress(body []byte, contentEncoding string, limit int64) (out []byte, truncated bool) {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	switch {
	case strings.Contains(enc, "gzip"):
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			zap.L().Debug("fetch: gzip header invalid, using raw body", zap.Error(err))
			return body, false
		}
		defer zr.Close() //nolint:errcheck
		return readAllOr(zr, body, limit)
	case strings.Contains(enc, "deflate"):
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer zr.Close() //nolint:errcheck
			return readAllOr(zr, body, limit)
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close() //nolint:errcheck
		return readAllOr(fr, body, limit)
	default:
		return body, false
	}
}

func readAllOr(r io.Reader, fallback []byte, limit int64) ([]byte, bool) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		zap.L().Debug("fetch: decompression failed, using raw body", zap.Error(err))
		return fallback, false
	}
	if int64(len(out)) > limit {
		return nil, true
	}
	return out, false
}

// decodeText converts body to UTF-8 using the charset declared in the
// Content-Type header, falling back to defaultCharset. Undecodable bytes
// become U+FFFD. It returns the text and the canonical charset name used.
func decodeText(body []byte, contentType, defaultCharset string) (string, string) {
	label := defaultCharset
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
			label = params["charset"]
		}
	}

	enc, err := htmlindex.Get(label)
	if err != nil && label != defaultCharset {
		zap.L().Debug("fetch: unknown charset, using default",
			zap.String("charset", label),
			zap.String("default", defaultCharset),
		)
		enc, err = htmlindex.Get(defaultCharset)
	}
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD"), "utf-8"
	}

	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD"), name
	}
	return strings.ToValidUTF8(string(out), "\uFFFD"), name
}
