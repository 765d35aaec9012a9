package http

import (
	gohttp "net/http"
	"strings"
)

const MIME_JSON = "application/json"
const MIME_NDJSON = "application/x-ndjson"
const CONTENT_TYPE = "Content-Type"

func HasContentType(header gohttp.Header, contentType string) bool {
	for _, value := range header[CONTENT_TYPE] {
		if strings.HasPrefix(value, contentType) {
			return true
		}
	}

	return false
}
