// services/events.go
package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Program names used as the BlockchainEvent.ProgramID discriminator and as the
// first half of the (program, eventKind) dispatch key.
const (
	ProgramVault  = "VAULT"
	ProgramGame   = "GAME"
	ProgramPrize  = "PRIZE"
	ProgramOracle = "ORACLE"
)

// Event kinds emitted by the on-chain programs.
const (
	EventDeposit             = "Deposit"
	EventPlayerJoined        = "PlayerJoined"
	EventPredictionSubmitted = "PredictionSubmitted"
)

// ChainEvent is one structured event parsed out of a program's log output.
// Data is the raw JSON payload; the per-kind Decode* functions own field
// validation.
type ChainEvent struct {
	Type string
	Data json.RawMessage
}

// Lines look like "Program log: EventName: {json}". Anything the program
// prints that doesn't match this shape is unrelated diagnostics.
var eventLinePattern = regexp.MustCompile(`Program log: (\w+): (.+)`)

// ParseEvents extracts structured events from one invocation's raw log lines.
// Non-matching lines and lines whose payload is not a JSON object are dropped
// silently; logs routinely contain diagnostic text we don't own.
func ParseEvents(logs []string) []ChainEvent {
	var events []ChainEvent

	for _, line := range logs {
		if !strings.Contains(line, "Program log:") {
			continue
		}
		m := eventLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		payload := json.RawMessage(m[2])
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(payload, &probe); err != nil {
			continue
		}

		events = append(events, ChainEvent{Type: m[1], Data: payload})
	}

	return events
}

// DepositEvent is emitted by the vault program on a confirmed deposit.
type DepositEvent struct {
	User   string  `json:"user"`
	Amount *uint64 `json:"amount"`
}

// DecodeDeposit returns ok=false when the payload is missing a required
// field; the caller treats that as a no-op, not an error.
func DecodeDeposit(data json.RawMessage) (DepositEvent, bool) {
	var ev DepositEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, false
	}
	if ev.User == "" || ev.Amount == nil {
		return ev, false
	}
	return ev, true
}

// PlayerJoinedEvent is emitted by the game program when a player buys in.
// EntrySlot is a pointer: slot 0 is a valid value, only absence rejects.
type PlayerJoinedEvent struct {
	Player    string  `json:"player"`
	GameID    string  `json:"game_id"`
	EntrySlot *uint64 `json:"entry_slot"`
}

func DecodePlayerJoined(data json.RawMessage) (PlayerJoinedEvent, bool) {
	var ev PlayerJoinedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, false
	}
	if ev.Player == "" || ev.GameID == "" || ev.EntrySlot == nil {
		return ev, false
	}
	return ev, true
}

// PredictionSubmittedEvent is emitted by the game program when a player
// submits a round prediction. Choice stays raw JSON; it is stored serialized,
// not interpreted here. ResponseTime defaults to 0 when absent.
type PredictionSubmittedEvent struct {
	Player       string          `json:"player"`
	GameID       string          `json:"game_id"`
	Round        *uint32         `json:"round"`
	Choice       json.RawMessage `json:"choice"`
	ResponseTime *uint32         `json:"response_time"`
}

func DecodePredictionSubmitted(data json.RawMessage) (PredictionSubmittedEvent, bool) {
	var ev PredictionSubmittedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, false
	}
	if ev.Player == "" || ev.GameID == "" || ev.Round == nil {
		return ev, false
	}
	return ev, true
}
