package kuma

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Engine.IO v4 packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketAck          byte = '3'
	socketConnectError byte = '4'
)

type packet struct {
	Type  byte
	ID    int
	HasID bool
	Data  json.RawMessage
}

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
	MaxPayload   int    `json:"maxPayload"`
}

// encodeEvent builds a "42<id>[name,args...]" frame. An id below zero omits
// the ack id.
func encodeEvent(id int, name string, args ...any) ([]byte, error) {
	payload := make([]any, 0, len(args)+1)
	payload = append(payload, name)
	payload = append(payload, args...)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", name, err)
	}

	var buf bytes.Buffer
	buf.WriteByte(engineMessage)
	buf.WriteByte(socketEvent)
	if id >= 0 {
		buf.WriteString(strconv.Itoa(id))
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

// decodeSocketPacket parses the Socket.IO part of an Engine.IO message, with
// the leading '4' already stripped.
func decodeSocketPacket(msg []byte) (packet, error) {
	if len(msg) == 0 {
		return packet{}, fmt.Errorf("empty socket.io packet")
	}

	p := packet{Type: msg[0]}
	rest := msg[1:]

	if len(rest) > 0 && rest[0] == '/' {
		i := bytes.IndexByte(rest, ',')
		if i < 0 {
			rest = nil
		} else {
			rest = rest[i+1:]
		}
	}

	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n > 0 {
		id, err := strconv.Atoi(string(rest[:n]))
		if err != nil {
			return packet{}, fmt.Errorf("invalid packet id: %w", err)
		}
		p.ID = id
		p.HasID = true
		rest = rest[n:]
	}

	if len(rest) > 0 {
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// splitEvent returns the event name and its arguments from an event payload.
func splitEvent(data json.RawMessage) (string, []json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return "", nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if len(items) == 0 {
		return "", nil, fmt.Errorf("event payload has no name")
	}

	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, fmt.Errorf("invalid event name: %w", err)
	}
	return name, items[1:], nil
}

func splitArgs(data json.RawMessage) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid ack payload: %w", err)
	}
	return items, nil
}
