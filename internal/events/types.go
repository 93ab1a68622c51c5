package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic names an event stream.
type Topic string

const (
	TopicDownloadProgress Topic = "download-progress"
	TopicInstallProgress  Topic = "install-progress"
	TopicInstallComplete  Topic = "install-complete"
)

// Topics lists every topic the installer emits.
var Topics = []Topic{TopicDownloadProgress, TopicInstallProgress, TopicInstallComplete}

// DownloadProgress reports bytes received for one download.
type DownloadProgress struct {
	Candidate  string  `json:"candidate"`
	Version    string  `json:"version"`
	Percentage float64 `json:"percentage"`
	Downloaded int64   `json:"downloaded"`
	Total      int64   `json:"total"`
}

// InstallProgress reports an extraction step.
type InstallProgress struct {
	Candidate string `json:"candidate"`
	Version   string `json:"version"`
	Message   string `json:"message"`
}

// InstallComplete ends an install, successfully or not.
type InstallComplete struct {
	Candidate string `json:"candidate"`
	Version   string `json:"version"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Envelope wraps a payload with delivery metadata.
type Envelope struct {
	ID         uuid.UUID
	Topic      Topic
	OccurredAt time.Time
	Payload    any
}

// Handler processes one delivered event.
type Handler func(Envelope)

// Unsubscribe releases a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Decode parses a JSON payload for topic into its typed struct.
func Decode(topic Topic, data []byte) (any, error) {
	var (
		payload any
		err     error
	)
	switch topic {
	case TopicDownloadProgress:
		var p DownloadProgress
		err = json.Unmarshal(data, &p)
		payload = p
	case TopicInstallProgress:
		var p InstallProgress
		err = json.Unmarshal(data, &p)
		payload = p
	case TopicInstallComplete:
		var p InstallComplete
		err = json.Unmarshal(data, &p)
		payload = p
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", topic, err)
	}
	return payload, nil
}

// Line is one serialized event as written by `events replay` input files.
type Line struct {
	Topic   Topic           `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeLine parses a JSON line of the form {"topic": ..., "payload": {...}}.
func DecodeLine(data []byte) (Topic, any, error) {
	var l Line
	if err := json.Unmarshal(data, &l); err != nil {
		return "", nil, fmt.Errorf("decoding event line: %w", err)
	}
	payload, err := Decode(l.Topic, l.Payload)
	if err != nil {
		return "", nil, err
	}
	return l.Topic, payload, nil
}
