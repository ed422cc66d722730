package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageCreated(t *testing.T) {
	evt, err := NewMessageCreated("m1", "Finished chapter 3", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeMessageCreated, evt.Type)
	assert.Zero(t, evt.Attempt)
	assert.JSONEq(t, `{"messageId":"m1","content":"Finished chapter 3","userId":"u1"}`, string(evt.Payload))

	var payload MessageCreated
	require.NoError(t, evt.Decode(&payload))
	assert.Equal(t, MessageCreated{MessageID: "m1", Content: "Finished chapter 3", UserID: "u1"}, payload)
}

func TestEnvelopeTransport(t *testing.T) {
	evt, err := NewMessageCreated("m1", "hello", "u1")
	require.NoError(t, err)
	evt.Attempt = 2
	evt.LastError = "boom"

	data, err := Marshal(evt)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, 2, got.Attempt)
	assert.Equal(t, "boom", got.LastError)
	assert.JSONEq(t, string(evt.Payload), string(got.Payload))
}

func TestUnmarshal_Malformed(t *testing.T) {
	for name, data := range map[string]string{
		"not json":     "hello",
		"missing type": `{"id":"x","payload":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(data))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	evt := &Event{Type: TypeMessageCreated, Payload: json.RawMessage(`[1,2]`)}
	var payload MessageCreated
	assert.ErrorIs(t, evt.Decode(&payload), ErrMalformedEvent)
}
