package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"groupmanager/internal/mail"
	"groupmanager/internal/metrics"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/pkg/logger"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Authorizer decides whether a principal may act on a resource.
// *policy.Evaluator satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, p policy.Principal, action policy.Action, res policy.Resource) error
}

// EventPublisher fans domain events out to live clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) {}

// Event names broadcast to websocket clients
const (
	EventUserDeleted    = "user.deleted"
	EventUserRestored   = "user.restored"
	EventGroupCreated   = "group.created"
	EventGroupUpdated   = "group.updated"
	EventGroupDeleted   = "group.deleted"
	EventMembersCreated = "members.created"
	EventMemberUpdated  = "member.updated"
	EventMemberDeleted  = "member.deleted"
)

// authorize asks the evaluator and records the outcome. Denials are logged
// with their internal reason; the caller only ever sees the opaque message.
func authorize(ctx context.Context, az Authorizer, p policy.Principal, action policy.Action, res policy.Resource) error {
	err := az.Authorize(ctx, p, action, res)

	result := "allow"
	var ue *policy.UnauthorizedError
	switch {
	case err == nil:
	case errors.As(err, &ue):
		result = "deny"
		log := logger.Get()
		log.Debug().
			Str("principal", ue.Principal().ID).
			Str("role", ue.Principal().Role.String()).
			Str("action", string(ue.Action())).
			Str("resource", string(ue.Resource().Type)).
			Str("resource_id", ue.Resource().ID).
			Str("reason", ue.Internal()).
			Msg("authorization denied")
	default:
		result = "error"
	}
	metrics.AuthorizationDecisionsTotal.WithLabelValues(string(res.Type), string(action), result).Inc()
	return err
}

// actorID converts the principal id to the nullable column stored in audit rows.
func actorID(p policy.Principal) *uuid.UUID {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil
	}
	return &id
}

// writeAudit stores one audit row; details is marshalled to JSON.
func writeAudit(ctx context.Context, repo repository.AuditRepository, p policy.Principal, action, entityID, entityName string, details interface{}) error {
	entry := &model.AuditLog{
		UserID:     actorID(p),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		entry.Details = string(raw)
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Invites sends registration e-mails after the surrounding transaction has
// committed. Delivery failures are logged and never fail the request.
type Invites struct {
	mailer mail.Mailer
	appURL string
}

func NewInvites(mailer mail.Mailer, appURL string) *Invites {
	return &Invites{mailer: mailer, appURL: appURL}
}

func (i *Invites) send(ctx context.Context, regs []mail.Registration) {
	if i == nil || i.mailer == nil {
		return
	}
	log := logger.Get()
	for _, r := range regs {
		r.AppURL = i.appURL
		msg, err := mail.RegistrationMessage(r)
		if err == nil {
			err = i.mailer.Send(ctx, msg)
		}
		if err != nil {
			metrics.MailsSentTotal.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("to", r.Email).Msg("registration mail failed")
			continue
		}
		metrics.MailsSentTotal.WithLabelValues("sent").Inc()
	}
}

// temporaryPassword returns a random password handed out in invite e-mails.
func temporaryPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
