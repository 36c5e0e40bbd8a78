package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/domain/event"
)

// AuditLogHandler writes every event to the generic audit log.
// Action is the event type and Details the JSON encoded payload.
func AuditLogHandler(repo port.AuditLogRepository) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		details := ""
		if len(evt.Payload) > 0 {
			raw, err := json.Marshal(evt.Payload)
			if err != nil {
				return fmt.Errorf("failed to encode event payload: %w", err)
			}
			details = string(raw)
		}

		return repo.Create(ctx, &entity.AuditLogEntry{
			TenantID:   evt.TenantID,
			ActorID:    evt.ActorID,
			Action:     evt.Type.String(),
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			Details:    details,
			CreatedAt:  evt.Timestamp,
		})
	}
}

// LogHandler mirrors events into the structured log
func LogHandler(logger Logger) Handler {
	return func(_ context.Context, evt *event.Event) error {
		kv := []interface{}{
			"event_type", evt.Type,
			"tenant_id", evt.TenantID,
			"entity_type", evt.EntityType,
			"entity_id", evt.EntityID,
			"correlation_id", evt.CorrelationID,
		}
		if evt.ActorID != nil {
			kv = append(kv, "actor_id", *evt.ActorID)
		}
		logger.Info("Payroll event", kv...)
		return nil
	}
}

// NotifiedTypes are the run events worth pushing to the approvers' chat
var NotifiedTypes = []event.Type{
	event.TypeRunSubmitted,
	event.TypeRunApproved,
	event.TypeRunRejected,
	event.TypeRunFinalized,
}

// NotificationHandler formats run transitions as a one-line chat message
func NotificationHandler(notifier port.Notifier) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		return notifier.Notify(ctx, FormatRunMessage(evt))
	}
}

// FormatRunMessage renders a run event for humans
func FormatRunMessage(evt *event.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Payroll %s %s",
		evt.TenantID,
		evt.GetPayloadString("period"),
		strings.ToLower(evt.GetPayloadString("status")),
	)
	if net := evt.GetPayloadString("total_net"); net != "" {
		fmt.Fprintf(&b, ", net %s for %d staff", net, evt.GetPayloadInt("staff_count"))
	}
	if comments := evt.GetPayloadString("comments"); comments != "" {
		fmt.Fprintf(&b, ": %s", comments)
	}
	return b.String()
}

// Sinks bundles the handlers wired by Register. Nil members are skipped.
type Sinks struct {
	AuditLog port.AuditLogRepository
	Logger   Logger
	Notifier port.Notifier
}

// Register subscribes the configured sinks on d
func Register(d Dispatcher, s Sinks) {
	if s.AuditLog != nil {
		d.SubscribeAll("audit-log", AuditLogHandler(s.AuditLog))
	}
	if s.Logger != nil {
		d.SubscribeAll("event-log", LogHandler(s.Logger))
	}
	if s.Notifier != nil {
		for _, t := range NotifiedTypes {
			d.SubscribeNamed(t, "chat-notify", NotificationHandler(s.Notifier))
		}
	}
}
