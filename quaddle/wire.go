package quaddle

import (
	"encoding/json"
	"fmt"
)

// Client -> server ops.
const (
	OpIdentify  = "identify"
	OpSubscribe = "subscribe"
	OpPing      = "ping"
)

// Server -> client event tags.
const (
	EventReady         = "ready"
	EventMessageCreate = "message_create"
	EventError         = "error"
)

// Command is the envelope for client-sent gateway frames, tagged by Op.
type Command struct {
	Op        string     `json:"op"`
	Token     string     `json:"token,omitempty"`
	ChannelID *ChannelID `json:"channel_id,omitempty"`
}

// IdentifyCommand authenticates the connection. Sent once, first.
func IdentifyCommand(token string) Command {
	return Command{Op: OpIdentify, Token: token}
}

// SubscribeCommand asks the server to push events for a channel.
func SubscribeCommand(id ChannelID) Command {
	return Command{Op: OpSubscribe, ChannelID: &id}
}

// PingCommand is the optional client keepalive frame.
func PingCommand() Command {
	return Command{Op: OpPing}
}

// EncodeCommand serializes a command frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd.Op == "" {
		return nil, NewError(KindValidation, "command has no op")
	}
	return json.Marshal(cmd)
}

// DecodeCommand is the inverse of EncodeCommand.
func DecodeCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, WrapError(KindProtocol, "malformed command frame", err)
	}
	if cmd.Op == "" {
		return Command{}, NewError(KindProtocol, "command frame has no op")
	}
	return cmd, nil
}

// GatewayEvent is one item of the gateway's push stream. It is a closed set:
// ReadyEvent, MessageCreateEvent, ErrorEvent, or UnknownEvent for tags this
// codec does not know yet.
type GatewayEvent interface {
	eventTag() string
}

// ReadyEvent acknowledges identification. It is the first event of every
// successful connection and carries the authenticated identity.
type ReadyEvent struct {
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
}

func (ReadyEvent) eventTag() string { return EventReady }

// MessageCreateEvent announces a newly posted message.
type MessageCreateEvent struct {
	Message Message `json:"message"`
}

func (MessageCreateEvent) eventTag() string { return EventMessageCreate }

// ErrorEvent is a protocol-level error pushed by the server. Fatal errors
// terminate the connection after the event is surfaced.
type ErrorEvent struct {
	Reason string `json:"reason"`
	Fatal  bool   `json:"fatal,omitempty"`
}

func (ErrorEvent) eventTag() string { return EventError }

// UnknownEvent carries an event tag this codec does not recognize, together
// with the raw frame, so newer server events pass through instead of
// breaking the stream.
type UnknownEvent struct {
	Tag     string
	Payload json.RawMessage
}

func (e UnknownEvent) eventTag() string { return e.Tag }

// DecodeEvent reads the discriminating tag of a server frame and decodes the
// matching variant. Unrecognized tags yield UnknownEvent; only a frame with
// no usable tag at all is an error.
func DecodeEvent(raw []byte) (GatewayEvent, error) {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, WrapError(KindProtocol, "malformed event frame", err)
	}
	if env.Event == "" {
		return nil, NewError(KindProtocol, "event frame has no tag")
	}
	switch env.Event {
	case EventReady:
		var ev ReadyEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, WrapError(KindProtocol, "malformed ready event", err)
		}
		return ev, nil
	case EventMessageCreate:
		var ev MessageCreateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, WrapError(KindProtocol, "malformed message_create event", err)
		}
		return ev, nil
	case EventError:
		var ev ErrorEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, WrapError(KindProtocol, "malformed error event", err)
		}
		return ev, nil
	default:
		payload := make(json.RawMessage, len(raw))
		copy(payload, raw)
		return UnknownEvent{Tag: env.Event, Payload: payload}, nil
	}
}

// EncodeEvent serializes an event frame. It is the exact inverse of
// DecodeEvent for every field the codec defines.
func EncodeEvent(ev GatewayEvent) ([]byte, error) {
	switch e := ev.(type) {
	case ReadyEvent:
		return json.Marshal(struct {
			Event string `json:"event"`
			ReadyEvent
		}{EventReady, e})
	case MessageCreateEvent:
		return json.Marshal(struct {
			Event string `json:"event"`
			MessageCreateEvent
		}{EventMessageCreate, e})
	case ErrorEvent:
		return json.Marshal(struct {
			Event string `json:"event"`
			ErrorEvent
		}{EventError, e})
	case UnknownEvent:
		if len(e.Payload) == 0 {
			return nil, NewError(KindValidation, "unknown event has no payload")
		}
		out := make([]byte, len(e.Payload))
		copy(out, e.Payload)
		return out, nil
	default:
		return nil, NewError(KindValidation, fmt.Sprintf("unsupported event type %T", ev))
	}
}
