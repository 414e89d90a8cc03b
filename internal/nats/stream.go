package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/smartroom-ai/environment-router/internal/model"
)

const (
	// StreamName is the name of the environment event stream.
	StreamName = "SMARTENV"

	// SubjectPrefix is the prefix for all environment subjects.
	SubjectPrefix = "smartenv"
)

// EventStream publishes log rows and device commands to JetStream.
type EventStream struct {
	client *Client
}

// NewEventStream creates a new event stream publisher.
func NewEventStream(client *Client) *EventStream {
	return &EventStream{client: client}
}

// EnsureStream ensures the environment stream exists.
func (s *EventStream) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Conversation turns, environment changes and device commands",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a conversation turn.
func TurnSubject(sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.turn.%s", SubjectPrefix, token(sessionID), role)
}

// ChangeSubject returns the subject for an environment change.
func ChangeSubject(sessionID string, factor model.Factor) string {
	return fmt.Sprintf("%s.%s.change.%s", SubjectPrefix, token(sessionID), factor)
}

// CommandSubject returns the subject for commands queued to a device class.
func CommandSubject(class model.DeviceClass) string {
	return fmt.Sprintf("%s.commands.%s", SubjectPrefix, token(string(class)))
}

// token makes s safe to use as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// PublishTurn publishes a conversation turn.
func (s *EventStream) PublishTurn(ctx context.Context, turn model.ConversationTurn) error {
	return s.publish(ctx, TurnSubject(turn.SessionID, turn.Role), turn)
}

// PublishChange publishes an environment change.
func (s *EventStream) PublishChange(ctx context.Context, change model.EnvironmentChange) error {
	return s.publish(ctx, ChangeSubject(change.SessionID, change.Factor), change)
}

// PublishCommands publishes a batch of commands queued for a device class.
func (s *EventStream) PublishCommands(ctx context.Context, class model.DeviceClass, commands map[string]any) error {
	return s.publish(ctx, CommandSubject(class), commands)
}

func (s *EventStream) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", subject, err)
	}

	if _, err := s.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}
