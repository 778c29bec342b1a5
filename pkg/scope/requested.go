package scope

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Names of the request parameters that carry an explicit target scope
const (
	ParamCityCorporation = "cityCorporationCode"
	ParamZone            = "zoneId"
	ParamWard            = "wardId"
	ParamCategory        = "category"
)

const maxBodyBytes = 1 << 20

// requested looks name up in the path variables, then the query string, then
// the top level of a JSON body. The body is restored for the handler.
func requested(r *http.Request, res *Resolved, name string) (string, bool) {
	if v, ok := mux.Vars(r)[name]; ok && v != "" {
		return v, true
	}
	if v := r.URL.Query().Get(name); v != "" {
		return v, true
	}

	raw, ok := jsonBody(r, res)[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	// present but neither string nor number, e.g. an object
	return strings.TrimSpace(string(raw)), true
}

// jsonBody decodes the request body once per request. Bodies over
// maxBodyBytes are not decoded and mark the request as too large.
func jsonBody(r *http.Request, res *Resolved) map[string]json.RawMessage {
	if res.bodyRead {
		return res.body
	}
	res.bodyRead = true
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if len(data) > maxBodyBytes {
		res.bodyTooLarge = true
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), r.Body))
		return nil
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return nil
	}

	var body map[string]json.RawMessage
	if json.Unmarshal(data, &body) == nil {
		res.body = body
	}
	return res.body
}

// requestedID returns the named id. present is false when the request does
// not name one; err is set when it does but the value is not an integer.
func requestedID(r *http.Request, res *Resolved, name string) (id int64, present bool, err error) {
	raw, ok := requested(r, res, name)
	if !ok {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	return id, true, err
}
