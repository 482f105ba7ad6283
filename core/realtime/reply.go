package realtime

import (
	"encoding/json"
	"strings"
)

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// replyType is the outbound discriminant: the inbound one, lower-cased.
var replyType = strings.ToLower(MessageType)

// ReplyError carries the failure surfaced to the client.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reply is the outbound envelope. Exactly one is produced per handled
// message; it is built fresh and discarded after the single send.
type Reply struct {
	Status string
	Data   any
	Meta   any
	Error  *ReplyError
}

// OK builds a success reply wrapping the authoritative result.
func OK(data any) Reply {
	return Reply{Status: StatusOK, Data: data}
}

// OKWithMeta builds a success reply carrying aggregate metadata.
func OKWithMeta(data, meta any) Reply {
	return Reply{Status: StatusOK, Data: data, Meta: meta}
}

// Err builds an error reply with a stable code and message.
func Err(code, message string) Reply {
	return Reply{Status: StatusError, Error: &ReplyError{Code: code, Message: message}}
}

type successEnvelope struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Data   any    `json:"data"`
	Meta   any    `json:"meta,omitempty"`
}

type errorEnvelope struct {
	Type   string      `json:"type"`
	Status string      `json:"status"`
	Error  *ReplyError `json:"error"`
}

// Encode serializes the reply to its wire form.
func (r Reply) Encode() (string, error) {
	var payload any
	if r.Error != nil {
		payload = errorEnvelope{Type: replyType, Status: r.Status, Error: r.Error}
	} else {
		payload = successEnvelope{Type: replyType, Status: r.Status, Data: r.Data, Meta: r.Meta}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
