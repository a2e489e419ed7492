package transport

import (
	"encoding/json"
	"fmt"
)

// Wire frames for the websocket channel. The broker speaks a small
// JSON control protocol: the client opens with CONNECT carrying the
// bearer token, the server answers CONNECTED (or ERROR), after which
// SUBSCRIBE/UNSUBSCRIBE/SEND flow client->server and MESSAGE frames
// flow server->client.
const (
	FrameConnect     = "CONNECT"
	FrameConnected   = "CONNECTED"
	FrameError       = "ERROR"
	FrameSubscribe   = "SUBSCRIBE"
	FrameUnsubscribe = "UNSUBSCRIBE"
	FrameSend        = "SEND"
	FrameMessage     = "MESSAGE"
	FramePing        = "PING"
	FramePong        = "PONG"
)

type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Token   string          `json:"token,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("frame without type")
	}
	return f, nil
}

func (f *Frame) Encode() []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// Frames are built from plain strings and pre-marshaled
		// payloads; marshal cannot fail on well-formed input.
		panic(fmt.Sprintf("encode frame: %v", err))
	}
	return b
}

func connectFrame(connID, token string) *Frame {
	return &Frame{Type: FrameConnect, ID: connID, Token: token}
}

func subscribeFrame(subID, topic string) *Frame {
	return &Frame{Type: FrameSubscribe, ID: subID, Topic: topic}
}

func unsubscribeFrame(subID, topic string) *Frame {
	return &Frame{Type: FrameUnsubscribe, ID: subID, Topic: topic}
}

func sendFrame(topic string, payload []byte) *Frame {
	return &Frame{Type: FrameSend, Topic: topic, Payload: payload}
}
