package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/dshills/QuantaPlan/internal/document"
	"github.com/dshills/QuantaPlan/internal/errors"
)

// ParseFilter parses a JSON filter document into a predicate tree.
// The syntax follows the usual operator-document form:
//
//	{"a": 1, "b": {"$gt": 5}}
//	{"$or": [{"a": 1}, {"b": 2}]}
//	{"arr": {"$elemMatch": {"x": 1}}}
//	{"loc": {"$nearSphere": {"lat": 40.7, "lng": -74.0, "maxDistance": 1000}}}
//
// Key order in the input is preserved in the resulting child order.
func ParseFilter(data []byte) (*Expr, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	val, err := readValue(dec)
	if err != nil {
		return nil, errors.Newf(errors.MalformedExpression, "invalid filter JSON: %v", err)
	}
	obj, ok := val.(*orderedObject)
	if !ok {
		return nil, errors.New(errors.MalformedExpression, "filter must be a JSON object")
	}
	return buildFilter(obj)
}

// orderedObject is a JSON object with its member order preserved.
type orderedObject struct {
	keys   []string
	values []interface{}
}

func (o *orderedObject) get(key string) (interface{}, bool) {
	for i, k := range o.keys {
		if k == key {
			return o.values[i], true
		}
	}
	return nil, false
}

func readValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}

func readObject(dec *json.Decoder) (*orderedObject, error) {
	obj := &orderedObject{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.values = append(obj.values, val)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return obj, nil
}

func readArray(dec *json.Decoder) ([]interface{}, error) {
	var arr []interface{}
	for dec.More() {
		val, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return arr, nil
}

// toValue converts a decoded JSON value into a document value.
func toValue(v interface{}) document.Value {
	switch t := v.(type) {
	case nil:
		return document.NewNullValue()
	case bool:
		return document.NewValue(t)
	case string:
		return document.NewValue(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return document.NewValue(i)
		}
		f, _ := t.Float64()
		return document.NewValue(f)
	case []interface{}:
		elems := make([]document.Value, len(t))
		for i, e := range t {
			elems[i] = toValue(e)
		}
		return document.NewArrayValue(elems...)
	case *orderedObject:
		fields := make(map[string]document.Value, len(t.keys))
		for i, k := range t.keys {
			fields[k] = toValue(t.values[i])
		}
		return document.NewDocumentValue(fields)
	default:
		return document.NewNullValue()
	}
}

// buildFilter turns a filter document into a tree. A document with one
// resulting condition returns that condition directly; multiple
// conditions are wrapped in a conjunction.
func buildFilter(obj *orderedObject) (*Expr, error) {
	var children []*Expr
	for i, key := range obj.keys {
		val := obj.values[i]
		switch {
		case key == "$or" || key == "$and":
			branches, err := buildBranches(key, val)
			if err != nil {
				return nil, err
			}
			if key == "$or" {
				children = append(children, NewOr(branches...))
			} else {
				children = append(children, NewAnd(branches...))
			}
		case strings.HasPrefix(key, "$"):
			return nil, errors.Newf(errors.MalformedExpression, "unsupported top-level operator %q", key)
		default:
			nodes, err := buildFieldCondition(key, val)
			if err != nil {
				return nil, err
			}
			children = append(children, nodes...)
		}
	}
	if len(children) == 0 {
		return nil, errors.New(errors.MalformedExpression, "empty filter")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return NewAnd(children...), nil
}

func buildBranches(op string, val interface{}) ([]*Expr, error) {
	arr, ok := val.([]interface{})
	if !ok || len(arr) == 0 {
		return nil, errors.Newf(errors.MalformedExpression, "%s requires a non-empty array", op)
	}
	branches := make([]*Expr, 0, len(arr))
	for _, elem := range arr {
		sub, ok := elem.(*orderedObject)
		if !ok {
			return nil, errors.Newf(errors.MalformedExpression, "%s members must be objects", op)
		}
		node, err := buildFilter(sub)
		if err != nil {
			return nil, err
		}
		branches = append(branches, node)
	}
	return branches, nil
}

// buildFieldCondition turns one field entry into predicate nodes. An
// operator document may expand into several nodes on the same field.
func buildFieldCondition(path string, val interface{}) ([]*Expr, error) {
	obj, ok := val.(*orderedObject)
	if !ok || !isOperatorObject(obj) {
		return []*Expr{NewComparison(MatchEquals, path, toValue(val))}, nil
	}

	var nodes []*Expr
	for i, op := range obj.keys {
		node, err := buildOperator(path, op, obj.values[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func isOperatorObject(obj *orderedObject) bool {
	if obj == nil || len(obj.keys) == 0 {
		return false
	}
	for _, k := range obj.keys {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

var comparisonOps = map[string]MatchType{
	"$eq":  MatchEquals,
	"$ne":  MatchNotEquals,
	"$lt":  MatchLess,
	"$lte": MatchLessEquals,
	"$gt":  MatchGreater,
	"$gte": MatchGreaterEquals,
}

func buildOperator(path, op string, val interface{}) (*Expr, error) {
	if t, ok := comparisonOps[op]; ok {
		return NewComparison(t, path, toValue(val)), nil
	}
	switch op {
	case "$in":
		if _, ok := val.([]interface{}); !ok {
			return nil, errors.New(errors.MalformedExpression, "$in requires an array")
		}
		return NewComparison(MatchIn, path, toValue(val)), nil
	case "$all":
		if _, ok := val.([]interface{}); !ok {
			return nil, errors.New(errors.MalformedExpression, "$all requires an array")
		}
		return NewComparison(MatchAll, path, toValue(val)), nil
	case "$exists":
		return NewComparison(MatchExists, path, toValue(val)), nil
	case "$regex":
		if _, ok := val.(string); !ok {
			return nil, errors.New(errors.MalformedExpression, "$regex requires a string")
		}
		return NewComparison(MatchRegex, path, toValue(val)), nil
	case "$not":
		sub, ok := val.(*orderedObject)
		if !ok || !isOperatorObject(sub) {
			return nil, errors.New(errors.MalformedExpression, "$not requires an operator object")
		}
		inner, err := buildFieldCondition(path, sub)
		if err != nil {
			return nil, err
		}
		if len(inner) == 1 {
			return NewNot(inner[0]), nil
		}
		return NewNot(NewAnd(inner...)), nil
	case "$elemMatch":
		return buildElemMatch(path, val)
	case "$nearSphere":
		return buildGeoNear(path, val)
	default:
		return nil, errors.Newf(errors.MalformedExpression, "unsupported operator %q on field %q", op, path)
	}
}

func buildElemMatch(path string, val interface{}) (*Expr, error) {
	obj, ok := val.(*orderedObject)
	if !ok {
		return nil, errors.New(errors.MalformedExpression, "$elemMatch requires an object")
	}
	if isOperatorObject(obj) {
		// Value form: operators apply to the array elements directly.
		var children []*Expr
		for i, op := range obj.keys {
			node, err := buildOperator("", op, obj.values[i])
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		return NewElemValue(path, children...), nil
	}
	// Object form: a sub-filter evaluated against each array element.
	var children []*Expr
	for i, key := range obj.keys {
		nodes, err := buildFieldCondition(key, obj.values[i])
		if err != nil {
			return nil, err
		}
		children = append(children, nodes...)
	}
	if len(children) == 0 {
		return nil, errors.New(errors.MalformedExpression, "$elemMatch requires at least one condition")
	}
	return NewElemObject(path, children...), nil
}

func buildGeoNear(path string, val interface{}) (*Expr, error) {
	obj, ok := val.(*orderedObject)
	if !ok {
		return nil, errors.New(errors.MalformedExpression, "$nearSphere requires an object")
	}
	lat, err := geoNumber(obj, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := geoNumber(obj, "lng")
	if err != nil {
		return nil, err
	}
	geo := &GeoNearData{Center: s2.LatLngFromDegrees(lat, lng)}
	if raw, ok := obj.get("maxDistance"); ok {
		num, ok := raw.(json.Number)
		if !ok {
			return nil, errors.New(errors.MalformedExpression, "$nearSphere maxDistance must be a number")
		}
		geo.MaxDistance, _ = num.Float64()
	}
	return NewGeoNear(path, geo), nil
}

func geoNumber(obj *orderedObject, key string) (float64, error) {
	raw, ok := obj.get(key)
	if !ok {
		return 0, errors.Newf(errors.MalformedExpression, "$nearSphere requires %q", key)
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, errors.Newf(errors.MalformedExpression, "$nearSphere %q must be a number", key)
	}
	f, _ := num.Float64()
	return f, nil
}
