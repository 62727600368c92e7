package remoteapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed envelope.yml
var envelopeSpec []byte

var (
	envelopeOnce   sync.Once
	envelopeSchema *openapi3.Schema
	envelopeErr    error
)

func loadEnvelopeSchema() (*openapi3.Schema, error) {
	envelopeOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(envelopeSpec)
		if err != nil {
			envelopeErr = fmt.Errorf("load envelope schema: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			envelopeErr = fmt.Errorf("invalid envelope schema: %w", err)
			return
		}
		ref, ok := doc.Components.Schemas["Envelope"]
		if !ok || ref.Value == nil {
			envelopeErr = fmt.Errorf("envelope schema missing")
			return
		}
		envelopeSchema = ref.Value
	})
	return envelopeSchema, envelopeErr
}

// Envelope is a decoded {success, message, ...} response. The remaining
// top-level fields are kept raw and decoded on demand by the typed actions.
type Envelope struct {
	Success bool
	Message string
	body    []byte
	fields  map[string]json.RawMessage
}

// parseEnvelope checks the body against the envelope schema and splits it
// into the common fields and the action-specific ones.
func parseEnvelope(body []byte) (*Envelope, error) {
	schema, err := loadEnvelopeSchema()
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if err := schema.VisitJSON(generic); err != nil {
		return nil, fmt.Errorf("response does not match envelope: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}

	env := &Envelope{body: body, fields: fields}
	if err := json.Unmarshal(fields["success"], &env.Success); err != nil {
		return nil, fmt.Errorf("invalid success flag: %w", err)
	}
	if raw, ok := fields["message"]; ok {
		if err := json.Unmarshal(raw, &env.Message); err != nil {
			return nil, fmt.Errorf("invalid message: %w", err)
		}
	}
	return env, nil
}

// Has reports whether the response carried the named top-level field with a
// non-null value.
func (e *Envelope) Has(field string) bool {
	raw, ok := e.fields[field]
	return ok && string(raw) != "null"
}

// Field decodes one top-level field into v. A missing field leaves v untouched.
func (e *Envelope) Field(field string, v any) error {
	raw, ok := e.fields[field]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

// Into decodes the whole body into v, for payloads spread across the top level.
func (e *Envelope) Into(v any) error {
	if err := json.Unmarshal(e.body, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
