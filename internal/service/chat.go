package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/convlog"
	"github.com/smartroom-ai/environment-router/internal/intent"
	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/internal/prompt"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

// DefaultSessionID is used when a chat request carries no session.
const DefaultSessionID = "default"

const scanningMessage = "Scanning sensors for current environment data..."

// Classifier decides how a message is routed.
type Classifier interface {
	Classify(ctx context.Context, message, sessionID string) model.Classification
}

// HistoryReader runs history templates.
type HistoryReader interface {
	Execute(ctx context.Context, templates []model.QueryTemplate) query.Results
}

// Generator produces a reply for a prompt and never fails.
type Generator interface {
	GenerateOrApologize(ctx context.Context, prompt string) (string, bool)
}

// ChatService routes chat messages to the history path or the sensor path.
type ChatService struct {
	coord      *Coordinator
	classifier Classifier
	history    HistoryReader
	generator  Generator
	log        *convlog.Log
	logger     *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(
	coord *Coordinator,
	classifier Classifier,
	history HistoryReader,
	generator Generator,
	log *convlog.Log,
	lg *logger.Logger,
) *ChatService {
	return &ChatService{
		coord:      coord,
		classifier: classifier,
		history:    history,
		generator:  generator,
		log:        log,
		logger:     lg,
	}
}

// Chat logs the message, classifies it and either answers from history or
// registers a pending request for a sensor scan.
func (s *ChatService) Chat(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	message := strings.TrimSpace(req.UserActivity)
	if message == "" {
		return nil, fmt.Errorf("%w: please provide a message", model.ErrInput)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	s.log.RecordTurn(ctx, model.ConversationTurn{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   message,
	})

	cls := s.classifier.Classify(ctx, message, sessionID)
	lg := s.logger.WithSession(sessionID, "")

	if cls.NeedsSensorData {
		id := s.coord.CreatePending(message, sessionID, cls)
		lg.Info("action request waiting for sensors",
			zap.String("request_id", id),
			zap.String("message_type", string(cls.MessageType)),
		)
		return &model.ChatResponse{
			Status:          model.StatusWaitingForSensors,
			RequestID:       id,
			UserMessage:     message,
			Message:         scanningMessage,
			NeedsSensorData: true,
		}, nil
	}

	return s.answerFromHistory(ctx, lg, message, sessionID, cls), nil
}

func (s *ChatService) answerFromHistory(ctx context.Context, lg *logger.Logger, message, sessionID string, cls model.Classification) *model.ChatResponse {
	templates := cls.Queries
	if len(templates) == 0 {
		templates = query.Predefined(sessionID)
	}

	results := s.history.Execute(ctx, templates)
	if results.Err != nil {
		lg.Warn("answering without history", zap.Error(results.Err))
	}

	reply, _ := s.generator.GenerateOrApologize(ctx, prompt.BuildHistoryPrompt(message, cls, results))
	commands := s.applyCommands(ctx, intent.ExtractDeviceCommands(message, reply))

	s.log.RecordTurn(ctx, model.ConversationTurn{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		Metadata: map[string]any{
			"type":              "info_response",
			"classification":    cls,
			"hardware_commands": commands,
		},
	})

	lg.Info("info request completed",
		zap.String("message_type", string(cls.MessageType)),
		zap.Int("commands", len(commands)),
	)

	return &model.ChatResponse{
		Status:           model.StatusCompleted,
		Response:         reply,
		NeedsSensorData:  false,
		MessageType:      cls.MessageType,
		HardwareCommands: commands,
	}
}

// CompleteWithSensorData finishes a waiting request with fresh readings.
// Work continues even if the delivering client goes away, so a claimed
// request always reaches completed.
func (s *ChatService) CompleteWithSensorData(ctx context.Context, requestID string, snapshot model.SensorSnapshot) (*model.SensorDeliveryResponse, error) {
	if snapshot == nil {
		snapshot = model.SensorSnapshot{}
	}

	req, err := s.coord.Claim(requestID, snapshot)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	lg := s.logger.WithSession(req.SessionID, requestID)

	s.log.RecordTurn(ctx, model.ConversationTurn{
		SessionID:      req.SessionID,
		Role:           model.RoleUser,
		Content:        req.UserMessage,
		SensorSnapshot: snapshot,
		RequestID:      requestID,
	})

	activity := intent.ExtractActivityContext(req.UserMessage)
	reply, _ := s.generator.GenerateOrApologize(ctx, prompt.BuildOptimizationPrompt(req.UserMessage, activity, snapshot))
	commands := s.applyCommands(ctx, intent.ExtractDeviceCommands(req.UserMessage, reply))

	changes := intent.ExtractEnvironmentChanges(reply, snapshot, activity)
	for _, ch := range changes {
		s.log.RecordChange(ctx, model.EnvironmentChange{
			SessionID:       req.SessionID,
			RequestID:       requestID,
			Factor:          ch.Factor,
			PreviousValue:   ch.PreviousValue,
			NewValue:        ch.NewValue,
			Reasoning:       ch.Reasoning,
			ActivityContext: ch.ActivityContext,
		})
	}

	s.log.RecordTurn(ctx, model.ConversationTurn{
		SessionID: req.SessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		Metadata: map[string]any{
			"type":              "optimization_response",
			"hardware_commands": commands,
		},
		RequestID: requestID,
	})

	if err := s.coord.Complete(requestID, reply); err != nil {
		return nil, err
	}

	lg.Info("sensor request completed",
		zap.String("activity", activity),
		zap.Int("changes", len(changes)),
		zap.Int("commands", len(commands)),
	)

	return &model.SensorDeliveryResponse{
		Status:           model.StatusCompleted,
		RequestID:        requestID,
		Response:         reply,
		HardwareCommands: commands,
		Message:          "Scan completed successfully",
	}, nil
}

// ApplyCommands queues command fields and mirrors each routed batch.
func (s *ChatService) ApplyCommands(ctx context.Context, fields map[string]any) {
	for class, batch := range s.coord.ApplyCommands(fields) {
		s.log.RecordCommands(ctx, class, batch)
	}
}

func (s *ChatService) applyCommands(ctx context.Context, cmds []intent.Command) map[string]any {
	fields := intent.Flatten(cmds)
	s.ApplyCommands(ctx, fields)
	return fields
}

// Coordinator exposes the shared state for polling endpoints.
func (s *ChatService) Coordinator() *Coordinator {
	return s.coord
}
