package handlers

import (
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxTextBody caps the text-to-json request body.
const maxTextBody = 1 << 20

// TextToJSON handles POST /api/v1/utils/text-to-json.
// Splits pasted text into identifiers on any whitespace, ready for the bulk
// endpoints. The text is the users_text form field or the raw body.
func TextToJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBody)

	var text string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		text = r.FormValue("users_text")
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			BadRequest(w, "Invalid request body")
			return
		}
		text = string(body)
	}

	identifiers := strings.Fields(text)
	if identifiers == nil {
		identifiers = []string{}
	}
	WriteJSONOK(w, map[string][]string{"identifiers": identifiers})
}
