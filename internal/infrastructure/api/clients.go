package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// ClientRecord is the normalized local representation of a client, flattened
// from whichever of the server's response shapes arrived.
type ClientRecord struct {
	ClientKey  string            `json:"client_key"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ClientsEnvelope is the GET /api/v1/clients list shape: a map of client
// keys to blobs, plus optional attribute key hints.
type ClientsEnvelope struct {
	Clients       map[string]ClientBlob `json:"clients"`
	AttributeKeys []string              `json:"attribute_keys,omitempty"`
}

// ClientBlob holds a client's name plus arbitrary extra attributes. Extra
// values may arrive as strings, numbers, bools, or null; all are coerced to
// strings.
type ClientBlob struct {
	Name   string
	Extras map[string]string
}

func (b *ClientBlob) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Extras = make(map[string]string)
	for key, value := range raw {
		if key == "name" {
			var name string
			if err := json.Unmarshal(value, &name); err == nil {
				b.Name = name
			}
			continue
		}
		if coerced, ok := coerceScalar(value); ok {
			b.Extras[key] = coerced
		}
	}
	return nil
}

func coerceScalar(value json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, true
	}
	var i int64
	if err := json.Unmarshal(value, &i); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	var f float64
	if err := json.Unmarshal(value, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	var v bool
	if err := json.Unmarshal(value, &v); err == nil {
		return strconv.FormatBool(v), true
	}
	if string(value) == "null" {
		return "—", true
	}
	return "", false
}

// singleEnvelope is the single-client route shape:
// {"client_key": "...", "client": {...}} with an optional top-level name.
type singleEnvelope struct {
	ClientKey string            `json:"client_key"`
	Client    map[string]string `json:"client"`
	Name      string            `json:"name"`
}

// DecodeClientRecord interprets a single-client response body. The server is
// known to answer with any of three shapes depending on route and version,
// so decode attempts run in a fixed fallback order: flat attribute map,
// then {client_key, client} envelope, then the list blob shape. The order
// is load-bearing; do not reorder it.
func DecodeClientRecord(clientKey string, body []byte) (*ClientRecord, error) {
	var flat map[string]string
	if err := json.Unmarshal(body, &flat); err == nil {
		name := flat["name"]
		if name == "" {
			name = clientKey
		}
		attrs := make(map[string]string, len(flat))
		for key, value := range flat {
			if key != "name" {
				attrs[key] = value
			}
		}
		return &ClientRecord{ClientKey: clientKey, Name: name, Attributes: attrs}, nil
	}

	var env singleEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.ClientKey != "" {
		name := env.Name
		if name == "" {
			name = env.Client["name"]
		}
		if name == "" {
			name = env.ClientKey
		}
		attrs := make(map[string]string, len(env.Client))
		for key, value := range env.Client {
			if key != "name" {
				attrs[key] = value
			}
		}
		return &ClientRecord{ClientKey: env.ClientKey, Name: name, Attributes: attrs}, nil
	}

	var blob ClientBlob
	if err := json.Unmarshal(body, &blob); err == nil && (blob.Name != "" || len(blob.Extras) > 0) {
		return &ClientRecord{ClientKey: clientKey, Name: blob.Name, Attributes: blob.Extras}, nil
	}

	return nil, &DecodingError{cause: fmt.Errorf("unrecognized client response shape")}
}

// ListClients fetches the full client envelope and flattens it to records
// sorted by name.
func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, []string, error) {
	resp, err := Send[ClientsEnvelope](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/api/v1/clients",
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Value == nil {
		return nil, nil, nil
	}

	records := make([]ClientRecord, 0, len(resp.Value.Clients))
	for key, blob := range resp.Value.Clients {
		records = append(records, ClientRecord{
			ClientKey:  key,
			Name:       blob.Name,
			Attributes: blob.Extras,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
	})
	return records, resp.Value.AttributeKeys, nil
}

// CreateClient creates a client with the given key, name, and extra
// attributes.
func (c *Client) CreateClient(ctx context.Context, clientKey, name string, attributes map[string]string) (*ClientRecord, error) {
	body := map[string]any{"client_key": clientKey, "name": name}
	for key, value := range attributes {
		body[key] = value
	}
	resp, err := Send[json.RawMessage](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/clients",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return &ClientRecord{ClientKey: clientKey, Name: name, Attributes: attributes}, nil
	}
	return DecodeClientRecord(clientKey, *resp.Value)
}

// UpdateClient patches a client. patch uses nil values to clear fields.
func (c *Client) UpdateClient(ctx context.Context, clientKey string, patch map[string]any) (*ClientRecord, error) {
	resp, err := Send[json.RawMessage](ctx, c, Request{
		Method: http.MethodPatch,
		Path:   "/api/v1/clients/" + clientKey,
		Body:   patch,
	})
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, &DecodingError{cause: fmt.Errorf("empty client response")}
	}
	return DecodeClientRecord(clientKey, *resp.Value)
}
