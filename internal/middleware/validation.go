package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/smartroom-ai/environment-router/internal/model"
)

const (
	maxMessageLength   = 4000
	maxSessionIDLength = 128
	maxDisplayLength   = 64
)

// ValidateMessageContent validates a chat message.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: please provide a message", model.ErrInput)
	}
	if len(content) > maxMessageLength {
		return fmt.Errorf("%w: message exceeds maximum length", model.ErrInput)
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("%w: message must be valid UTF-8", model.ErrInput)
	}
	return nil
}

// ValidateSessionID validates an opaque session identifier. Empty is allowed.
func ValidateSessionID(id string) error {
	if len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: session ID exceeds maximum length", model.ErrInput)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: session ID must be valid UTF-8", model.ErrInput)
	}
	return nil
}

// ValidateDeviceClass checks that some command is routed to class.
func ValidateDeviceClass(class string) error {
	if !model.KnownDeviceClass(model.DeviceClass(class)) {
		return fmt.Errorf("%w: unknown device class %q", model.ErrNotFound, class)
	}
	return nil
}

// ValidateDisplayText validates text for the OLED display.
func ValidateDisplayText(text string) error {
	if utf8.RuneCountInString(text) > maxDisplayLength {
		return fmt.Errorf("%w: display text exceeds maximum length", model.ErrInput)
	}
	return nil
}
