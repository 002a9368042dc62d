// services/events_test.go
package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvents(t *testing.T) {
	logs := []string{
		`Program log: Deposit: {"user":"abc","amount":5}`,
		"unrelated diagnostic line",
		`Program log: BadEvent: {not json`,
	}

	events := ParseEvents(logs)
	require.Len(t, events, 1)

	assert.Equal(t, "Deposit", events[0].Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	assert.Equal(t, "abc", payload["user"])
	assert.Equal(t, float64(5), payload["amount"])
}

func TestParseEventsIgnoresNonObjectPayloads(t *testing.T) {
	logs := []string{
		`Program log: Deposit: 42`,
		`Program log: Deposit: "just a string"`,
		`Program log: PlayerJoined: {"player":"p1","game_id":"g1","entry_slot":0}`,
	}

	events := ParseEvents(logs)
	require.Len(t, events, 1)
	assert.Equal(t, "PlayerJoined", events[0].Type)
}

func TestParseEventsEmptyLogs(t *testing.T) {
	assert.Empty(t, ParseEvents(nil))
	assert.Empty(t, ParseEvents([]string{"Program consumed 1234 compute units"}))
}

func TestDecodeDeposit(t *testing.T) {
	ev, ok := DecodeDeposit(json.RawMessage(`{"user":"W1","amount":1000}`))
	require.True(t, ok)
	assert.Equal(t, "W1", ev.User)
	assert.Equal(t, uint64(1000), *ev.Amount)

	_, ok = DecodeDeposit(json.RawMessage(`{"amount":1000}`))
	assert.False(t, ok, "missing user must reject")

	_, ok = DecodeDeposit(json.RawMessage(`{"user":"W1"}`))
	assert.False(t, ok, "missing amount must reject")
}

func TestDecodePlayerJoinedZeroEntrySlot(t *testing.T) {
	// Slot zero is a valid value; only absence rejects.
	ev, ok := DecodePlayerJoined(json.RawMessage(`{"player":"p1","game_id":"g1","entry_slot":0}`))
	require.True(t, ok)
	assert.Equal(t, uint64(0), *ev.EntrySlot)

	_, ok = DecodePlayerJoined(json.RawMessage(`{"player":"p1","game_id":"g1"}`))
	assert.False(t, ok)
}

func TestDecodePredictionSubmitted(t *testing.T) {
	raw := json.RawMessage(`{"player":"p1","game_id":"g1","round":1,"choice":{"direction":"UP"},"response_time":250}`)
	ev, ok := DecodePredictionSubmitted(raw)
	require.True(t, ok)
	assert.Equal(t, uint32(1), *ev.Round)
	assert.JSONEq(t, `{"direction":"UP"}`, string(ev.Choice))
	assert.Equal(t, uint32(250), *ev.ResponseTime)

	// response_time is optional, round is not.
	ev, ok = DecodePredictionSubmitted(json.RawMessage(`{"player":"p1","game_id":"g1","round":0}`))
	require.True(t, ok)
	assert.Nil(t, ev.ResponseTime)

	_, ok = DecodePredictionSubmitted(json.RawMessage(`{"player":"p1","game_id":"g1"}`))
	assert.False(t, ok)
}
