package auditlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is the ISO-8601 layout used when events are serialized.
const TimestampFormat = time.RFC3339Nano

// Event is a single immutable record in a Log.
type Event[T any] struct {
	ID        uuid.UUID
	Timestamp time.Time
	Payload   T
}

// MarshalJSON flattens object payloads into the event object. Payloads that do
// not encode as a JSON object are nested under "payload".
func (e Event[T]) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(eventHeader{
		ID:        e.ID.String(),
		Timestamp: e.Timestamp.UTC().Format(TimestampFormat),
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	body = bytes.TrimSpace(body)

	// head is always `{"id":...,"timestamp":...}`; reopen it to add fields.
	var buf bytes.Buffer
	buf.Write(head[:len(head)-1])

	if len(body) > 0 && body[0] == '{' {
		fields, err := payloadFields(body)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			buf.WriteByte(',')
			buf.Write(f.key)
			buf.WriteByte(':')
			buf.Write(f.value)
		}
	} else {
		buf.WriteString(`,"payload":`)
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. Whether the
// payload was nested or flattened is read from the data, not from T.
func (e *Event[T]) UnmarshalJSON(data []byte) error {
	var head eventHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	var parsed Event[T]
	if head.ID != "" {
		id, err := uuid.Parse(head.ID)
		if err != nil {
			return fmt.Errorf("parse event id: %w", err)
		}
		parsed.ID = id
	}
	if head.Timestamp != "" {
		ts, err := time.Parse(TimestampFormat, head.Timestamp)
		if err != nil {
			return fmt.Errorf("parse event timestamp: %w", err)
		}
		parsed.Timestamp = ts
	}

	payload, err := decodePayload[T](data)
	if err != nil {
		return err
	}
	parsed.Payload = payload

	*e = parsed
	return nil
}

type eventHeader struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

type field struct {
	key   []byte
	value []byte
}

// payloadFields splits a JSON object into raw key/value pairs in source order,
// dropping keys the event header already owns.
func payloadFields(obj []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected payload key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if key == "id" || key == "timestamp" {
			continue
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field{key: encodedKey, value: value})
	}
	return fields, nil
}

// decodePayload rebuilds the payload from an event object. A lone "payload"
// key next to the header is the nested form; if T cannot hold that value the
// key is taken as a flattened payload field instead.
func decodePayload[T any](data []byte) (T, error) {
	var payload T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return payload, err
	}
	delete(fields, "id")
	delete(fields, "timestamp")
	if len(fields) == 0 {
		return payload, nil
	}

	if nested, ok := fields["payload"]; ok && len(fields) == 1 {
		var v T
		if err := json.Unmarshal(nested, &v); err == nil {
			return v, nil
		}
	}

	rest, err := json.Marshal(fields)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(rest, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}
