// Package document turns one input line into a structured JSON document.
package document

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var ErrParse = errors.New("JSON parse failed")

// Document is a parsed JSON value
type Document struct {
	raw    []byte
	result gjson.Result
}

// Parse accepts exactly one JSON value, optionally surrounded by whitespace.
// Numbers whose magnitude overflows a float64 are rejected.
func Parse(line string) (Document, error) {
	if !gjson.Valid(line) {
		return Document{}, ErrParse
	}
	raw := pretty.Ugly([]byte(line))
	result := gjson.ParseBytes(raw)
	if !numbersInRange(result) {
		return Document{}, ErrParse
	}
	return Document{raw: raw, result: result}, nil
}

func numbersInRange(r gjson.Result) bool {
	switch {
	case r.Type == gjson.Number:
		_, err := strconv.ParseFloat(r.Raw, 64)
		return err == nil
	case r.IsArray(), r.IsObject():
		ok := true
		r.ForEach(func(_, v gjson.Result) bool {
			ok = numbersInRange(v)
			return ok
		})
		return ok
	}
	return true
}

// Canonical returns the compact form: no insignificant whitespace, member
// order and number text as written.
func (d Document) Canonical() []byte {
	return d.raw
}

// Kind names the type of the root value
func (d Document) Kind() string {
	switch d.result.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	if d.result.IsArray() {
		return "array"
	}
	return "object"
}
