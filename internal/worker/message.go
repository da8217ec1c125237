package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itsmostafa/gorepl/internal/workspace"
)

// MessageType names a request from the host.
type MessageType string

const (
	MessageInitialize      MessageType = "initialize"
	MessageRun             MessageType = "run"
	MessageReplInput       MessageType = "replInput"
	MessageReplClear       MessageType = "replClear"
	MessageInterrupt       MessageType = "interrupt"
	MessageRestart         MessageType = "restart"
	MessageHistoryPrevious MessageType = "historyPrevious"
	MessageHistoryNext     MessageType = "historyNext"
)

// ErrUnknownMessage is returned by Dispatch for a message type it does not handle.
var ErrUnknownMessage = errors.New("unknown message type")

// Message is one request from the host.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RunPayload carries code to evaluate and the files to export beforehand.
type RunPayload struct {
	Code    string           `json:"code"`
	Exports []workspace.File `json:"exports,omitempty"`
}

// ParseMessage decodes a JSON-encoded message.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to parse message: %w", err)
	}
	return msg, nil
}

func (m Message) runPayload() (RunPayload, error) {
	var p RunPayload
	if len(m.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to parse %s payload: %w", m.Type, err)
	}
	return p, nil
}

// Dispatch handles msg. History messages return the selected command, or nil
// when there is none; every other message returns nil.
func (w *Worker) Dispatch(msg Message) (any, error) {
	switch msg.Type {
	case MessageInitialize:
		return nil, w.Initialize()
	case MessageRun:
		p, err := msg.runPayload()
		if err != nil {
			return nil, err
		}
		return nil, w.Run(p)
	case MessageReplInput:
		p, err := msg.runPayload()
		if err != nil {
			return nil, err
		}
		return nil, w.ReplInput(p)
	case MessageReplClear:
		return nil, w.ReplClear()
	case MessageInterrupt:
		w.Interrupt()
		return nil, nil
	case MessageRestart:
		return nil, w.Restart()
	case MessageHistoryPrevious:
		if entry, ok := w.history.Previous(); ok {
			return entry, nil
		}
		return nil, nil
	case MessageHistoryNext:
		if entry, ok := w.history.Next(); ok {
			return entry, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}
