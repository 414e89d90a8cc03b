// Package service holds the request lifecycle and chat orchestration.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/model"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/metrics"
)

// DefaultActivity is shown on the display until something else is set.
const DefaultActivity = "Ready"

type entry struct {
	req     model.PendingRequest
	claimed bool
}

// Coordinator owns every piece of shared mutable state: the pending-request
// table, the scan cooldown, queued device commands, the latest sensor
// snapshot and the current activity label. One mutex guards all of it and is
// only held for in-memory work.
type Coordinator struct {
	mu       sync.Mutex
	pending  map[string]*entry
	order    []string
	waiting  int
	lastScan time.Time
	commands map[model.DeviceClass]map[string]any
	sensors  model.SensorSnapshot
	activity string

	cooldown time.Duration
	now      func() time.Time
	newID    func() string
	logger   *logger.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(gen func() string) CoordinatorOption {
	return func(c *Coordinator) { c.newID = gen }
}

// NewCoordinator creates a coordinator with an empty pending table.
func NewCoordinator(cooldown time.Duration, log *logger.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		pending:  make(map[string]*entry),
		commands: make(map[model.DeviceClass]map[string]any),
		sensors: model.SensorSnapshot{
			"temperature": 0,
			"humidity":    0,
			"light":       0,
			"touch":       0,
		},
		activity: DefaultActivity,
		cooldown: cooldown,
		now:      time.Now,
		newID:    NewRequestID,
		logger:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRequestID returns a fresh "req_" prefixed identifier.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// CreatePending registers an action request waiting for a sensor scan.
func (c *Coordinator) CreatePending(message, sessionID string, cls model.Classification) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	c.pending[id] = &entry{req: model.PendingRequest{
		RequestID:      id,
		UserMessage:    message,
		SessionID:      sessionID,
		Classification: cls,
		Status:         model.StatusWaitingForSensors,
		CreatedAt:      c.now(),
	}}
	c.order = append(c.order, id)
	c.waiting++
	c.publishLocked()
	return id
}

// Claim reserves a waiting request for completion and merges snapshot into
// the current sensor readings. Only the first delivery for an id succeeds.
func (c *Coordinator) Claim(id string, snapshot model.SensorSnapshot) (model.PendingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if !ok {
		return model.PendingRequest{}, fmt.Errorf("%w: invalid request ID %q", model.ErrNotFound, id)
	}
	if e.claimed || e.req.Status == model.StatusCompleted {
		return model.PendingRequest{}, fmt.Errorf("%w: request %q already received sensor data", model.ErrAlreadyCompleted, id)
	}

	e.claimed = true
	e.req.SensorData = snapshot.Clone()
	c.mergeSensorsLocked(snapshot)
	return e.req, nil
}

// Complete stores the reply for a claimed request, flips it to completed and
// restarts the scan cooldown.
func (c *Coordinator) Complete(id, result string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if !ok {
		return fmt.Errorf("%w: invalid request ID %q", model.ErrNotFound, id)
	}
	if e.req.Status == model.StatusCompleted {
		return fmt.Errorf("%w: request %q", model.ErrAlreadyCompleted, id)
	}

	now := c.now()
	e.req.Status = model.StatusCompleted
	e.req.CompletedAt = &now
	e.req.Result = &result
	c.waiting--
	c.lastScan = now
	c.publishLocked()
	return nil
}

// Status reports the lifecycle state of a request.
func (c *Coordinator) Status(id string) (model.StatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if !ok {
		return model.StatusResponse{}, fmt.Errorf("%w: invalid request ID %q", model.ErrNotFound, id)
	}

	resp := model.StatusResponse{Status: e.req.Status, UserMessage: e.req.UserMessage}
	if e.req.Status == model.StatusCompleted && e.req.Result != nil {
		resp.Response = *e.req.Result
	} else {
		resp.Message = "Waiting for sensor data..."
	}
	return resp, nil
}

// Get returns a copy of a pending request.
func (c *Coordinator) Get(id string) (model.PendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if !ok {
		return model.PendingRequest{}, false
	}
	return e.req, true
}

// NextWaiting returns the oldest request that still needs a scan and has not
// been claimed by a delivery.
func (c *Coordinator) NextWaiting() (model.PendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.order {
		e := c.pending[id]
		if e.req.Status == model.StatusWaitingForSensors && !e.claimed {
			return e.req, true
		}
	}
	return model.PendingRequest{}, false
}

// CanScan reports whether the cooldown since the last completed scan elapsed.
func (c *Coordinator) CanScan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canScanLocked(c.now())
}

func (c *Coordinator) canScanLocked(now time.Time) bool {
	return c.lastScan.IsZero() || now.Sub(c.lastScan) >= c.cooldown
}

// MarkScanned restarts the cooldown.
func (c *Coordinator) MarkScanned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastScan = c.now()
}

// ForceScan clears the cooldown so the next scan request is honoured.
func (c *Coordinator) ForceScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastScan = time.Time{}
}

// ScanStatus describes the cooldown gate.
func (c *Coordinator) ScanStatus() model.ScanStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	since := c.cooldown
	var last float64
	if !c.lastScan.IsZero() {
		since = now.Sub(c.lastScan)
		last = float64(c.lastScan.UnixNano()) / float64(time.Second)
	}
	until := c.cooldown - since
	if until < 0 {
		until = 0
	}

	return model.ScanStatus{
		ScanReady:            c.canScanLocked(now),
		CooldownSeconds:      c.cooldown.Seconds(),
		SecondsSinceLastScan: int(since / time.Second),
		SecondsUntilNextScan: int(until / time.Second),
		LastScanTime:         last,
	}
}

// UpdateSensors merges readings into the current snapshot.
func (c *Coordinator) UpdateSensors(snapshot model.SensorSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeSensorsLocked(snapshot)
}

func (c *Coordinator) mergeSensorsLocked(snapshot model.SensorSnapshot) {
	for k, v := range snapshot {
		c.sensors[k] = v
	}
}

// Sensors returns a copy of the current snapshot.
func (c *Coordinator) Sensors() model.SensorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensors.Clone()
}

// ApplyCommands queues command fields for the device classes that consume
// them and returns what was queued per class. A display command also becomes
// the current activity.
func (c *Coordinator) ApplyCommands(fields map[string]any) map[model.DeviceClass]map[string]any {
	if len(fields) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	routed := make(map[model.DeviceClass]map[string]any)
	for name, value := range fields {
		class, ok := model.RouteCommand(name)
		if !ok {
			c.logger.Warn("dropping unroutable device command", zap.String("command", name))
			continue
		}
		if routed[class] == nil {
			routed[class] = make(map[string]any)
		}
		routed[class][name] = value

		queue := c.commands[class]
		if queue == nil {
			queue = make(map[string]any)
			c.commands[class] = queue
		}
		queue[name] = value
		metrics.DeviceCommandsTotal.WithLabelValues(string(class), name).Inc()

		if name == model.CommandOLEDDisplay {
			if text, ok := value.(string); ok && text != "" {
				c.activity = text
			}
		}
	}
	return routed
}

// TakeCommands returns and clears the commands queued for class.
func (c *Coordinator) TakeCommands(class model.DeviceClass) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.viewLocked(class)
	delete(c.commands, class)
	return out
}

// PeekCommands returns the commands queued for class without clearing them.
func (c *Coordinator) PeekCommands(class model.DeviceClass) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(class)
}

// ClearCommands drops everything queued for class.
func (c *Coordinator) ClearCommands(class model.DeviceClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.commands, class)
}

// viewLocked copies the queue for class. The display device always receives
// a label: the current activity stands in when nothing was queued.
func (c *Coordinator) viewLocked(class model.DeviceClass) map[string]any {
	out := make(map[string]any, len(c.commands[class])+1)
	for k, v := range c.commands[class] {
		out[k] = v
	}
	if displayClass, _ := model.RouteCommand(model.CommandOLEDDisplay); class == displayClass {
		if _, ok := out[model.CommandOLEDDisplay]; !ok {
			out[model.CommandOLEDDisplay] = c.activity
		}
	}
	return out
}

// SetActivity updates the current activity and queues it for the display.
func (c *Coordinator) SetActivity(text string) map[model.DeviceClass]map[string]any {
	return c.ApplyCommands(map[string]any{model.CommandOLEDDisplay: text})
}

// Activity returns the current activity label.
func (c *Coordinator) Activity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activity
}

// Shutdown logs requests that will never complete and returns their count.
func (c *Coordinator) Shutdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	abandoned := 0
	for _, id := range c.order {
		e := c.pending[id]
		if e.req.Status != model.StatusWaitingForSensors {
			continue
		}
		abandoned++
		c.logger.Warn("abandoning pending request",
			zap.String("request_id", id),
			zap.String("session_id", e.req.SessionID),
			zap.Bool("claimed", e.claimed),
			zap.Duration("age", c.now().Sub(e.req.CreatedAt)),
		)
	}
	return abandoned
}

func (c *Coordinator) publishLocked() {
	metrics.SetPending(c.waiting, len(c.pending)-c.waiting)
}
