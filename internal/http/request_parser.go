// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"iexpense/internal/core"
	"iexpense/internal/view"
)

const maxBodyBytes = 64 << 10

var ErrInvalidPosition = errors.New("invalid position")

// ExpenseInput is a parsed add-form submission.
type ExpenseInput struct {
	Name     string
	Category core.Category
	Amount   core.Money
}

// DeleteInput is a parsed delete submission.
type DeleteInput struct {
	Category core.Category
	Targets  []view.Target
}

// ParseExpenseInput reads name, type and amount from a parsed body.
func ParseExpenseInput(p *RequestBodyParser) (ExpenseInput, error) {
	name := p.Get("name")
	if name == "" {
		return ExpenseInput{}, core.ErrEmptyName
	}
	category, err := core.ParseCategory(p.Get("type"))
	if err != nil {
		return ExpenseInput{}, err
	}
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return ExpenseInput{}, err
	}
	return ExpenseInput{Name: name, Category: category, Amount: core.Money{Cents: cents}}, nil
}

// ParseDeleteInput reads a category and repeated position values.
func ParseDeleteInput(form url.Values) (DeleteInput, error) {
	category, err := core.ParseCategory(sanitizeInput(form.Get("category")))
	if err != nil {
		return DeleteInput{}, err
	}
	targets, err := ParseTargets(form["position"])
	if err != nil {
		return DeleteInput{}, err
	}
	return DeleteInput{Category: category, Targets: targets}, nil
}

// ParseTargets reads position values of the form "N" or "N:id", where id
// is the record the row showed when it was rendered. Range checking is
// left to the view.
func ParseTargets(values []string) ([]view.Target, error) {
	out := make([]view.Target, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		pos, id, _ := strings.Cut(v, ":")
		n, err := strconv.Atoi(pos)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, v)
		}
		out = append(out, view.Target{Position: n, ID: strings.TrimSpace(id)})
	}
	return out, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET accepts GET and HEAD.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
