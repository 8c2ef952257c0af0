package reelsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
)

// queryValues flattens a params value into query parameters. Maps and
// JSON-taggable structs are accepted; slices become repeated keys.
func queryValues(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	case map[string]string:
		q := url.Values{}
		for k, v := range p {
			q.Set(k, v)
		}
		return q, nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("query params must be an object: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		switch v := m[k].(type) {
		case nil:
		case []any:
			for _, item := range v {
				q.Add(k, fmt.Sprint(item))
			}
		case map[string]any:
			nested, _ := json.Marshal(v)
			q.Set(k, string(nested))
		default:
			q.Set(k, fmt.Sprint(v))
		}
	}
	return q, nil
}
