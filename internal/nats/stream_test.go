package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartroom-ai/environment-router/internal/model"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "smartenv.s1.turn.user", TurnSubject("s1", model.RoleUser))
	assert.Equal(t, "smartenv.s1.change.fan_speed", ChangeSubject("s1", model.FactorFanSpeed))
	assert.Equal(t, "smartenv.commands.esp8266", CommandSubject(model.DeviceESP8266))
}

func TestSubjectTokenSanitized(t *testing.T) {
	assert.Equal(t, "smartenv.a_b_c_.turn.assistant", TurnSubject("a.b c>", model.RoleAssistant))
	assert.Equal(t, "smartenv._.turn.user", TurnSubject("", model.RoleUser))
}
