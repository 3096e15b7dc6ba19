package graph

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"sort"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

// ParseFilter reads a property filter from query parameters, either as
// ?property=k&value=v[&match=exact|contains] or as a single ?k=v. Keys in
// skip are left for the caller.
func ParseFilter(values url.Values, skip ...string) (NodeQuery, error) {
	match, err := ParseMatchMode(values.Get("match"))
	if err != nil {
		return NodeQuery{}, err
	}

	if prop := values.Get("property"); prop != "" {
		if err := checkPropertyName(prop); err != nil {
			return NodeQuery{}, err
		}
		return NodeQuery{Property: prop, Value: values.Get("value"), Match: match}, nil
	}

	ignored := map[string]bool{"property": true, "value": true, "match": true}
	for _, k := range skip {
		ignored[k] = true
	}

	var keys []string
	for k := range values {
		if !ignored[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	switch len(keys) {
	case 0:
		return NodeQuery{}, nil
	case 1:
		if err := checkPropertyName(keys[0]); err != nil {
			return NodeQuery{}, err
		}
		return NodeQuery{Property: keys[0], Value: values.Get(keys[0]), Match: match}, nil
	}
	return NodeQuery{}, apperror.NewBadRequest("only one property filter is supported")
}

// ParseUpdate validates an update request body.
func ParseUpdate(req UpdateRequest) (map[string]any, Operation, error) {
	op, err := ParseOperation(req.Operation)
	if err != nil {
		return nil, "", err
	}
	if req.Updates == nil {
		req.Updates = map[string]any{}
	}
	return req.Updates, op, nil
}

// DecodeProps reads a JSON object body. Numbers are kept exact until
// NormalizeProps converts them.
func DecodeProps(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, apperror.ErrBadRequest.WithMessage("request body must be a JSON object")
	}
	if props == nil {
		return nil, apperror.ErrBadRequest.WithMessage("request body must be a JSON object")
	}
	return props, nil
}

// DecodeQuery reads the body of a raw query request. An empty body decodes
// to an empty request.
func DecodeQuery(body io.Reader) (QueryRequest, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var req QueryRequest
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return QueryRequest{}, apperror.ErrBadRequest.WithMessage("invalid request body")
	}
	return req, nil
}
