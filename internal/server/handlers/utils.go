package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
)

const maxRequestBytes = 4 << 20

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. Encoding is performed into an intermediate buffer so that we
// don't send partial responses if serialization fails.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty pretty prints when pretty=1 or pretty=true is in the query.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_, werr := w.Write(append(b, '\n'))
			return werr
		}
		slog.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
	}
	return writeJSON(w, status, v)
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid JSON request body").Build()
	}
	return nil
}
