// Package validation validates and normalizes request payloads before any
// policy or persistence logic runs.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
)

// Mode selects the rule set for a payload.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Field names accepted in a user payload
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldTypeUserID = "type_user_id"
	FieldPassword   = "password"
)

// EmailChecker answers the uniqueness question. excludeID, when non-empty,
// names a user whose own address does not count as taken.
type EmailChecker interface {
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
}

// UserValidator validates user payloads. It holds no per-request state.
type UserValidator struct {
	v      *validator.Validate
	emails EmailChecker
}

func NewUserValidator(emails EmailChecker) *UserValidator {
	return &UserValidator{v: validator.New(), emails: emails}
}

// Validate checks payload under mode and returns a map holding exactly the
// validated fields that were present. On rule failures it returns an
// *apperror.ValidationError; storage failures during the uniqueness check
// are returned as plain errors.
func (uv *UserValidator) Validate(ctx context.Context, payload map[string]any, mode Mode, excludeID string) (map[string]any, error) {
	out := make(map[string]any)
	verr := apperror.NewValidationError()

	if name, ok := uv.textField(payload, FieldName, mode == ModeCreate, verr); ok {
		if uv.v.Var(name, "min=4") != nil {
			verr.Add(FieldName, message(FieldName, "min"))
		} else {
			out[FieldName] = name
		}
	}

	if email, ok := uv.textField(payload, FieldEmail, mode == ModeCreate, verr); ok {
		email = strings.TrimSpace(email)
		if uv.v.Var(email, "email") != nil {
			verr.Add(FieldEmail, message(FieldEmail, "email"))
		} else {
			taken, err := uv.emails.EmailTaken(ctx, email, excludeID)
			if err != nil {
				return nil, fmt.Errorf("check e-mail uniqueness: %w", err)
			}
			if taken {
				verr.Add(FieldEmail, message(FieldEmail, "unique"))
			} else {
				out[FieldEmail] = email
			}
		}
	}

	if raw, present := payload[FieldTypeUserID]; mode == ModeUpdate {
		if present {
			verr.Add(FieldTypeUserID, message(FieldTypeUserID, "prohibited"))
		}
	} else if isEmpty(raw) {
		verr.Add(FieldTypeUserID, message(FieldTypeUserID, "required"))
	} else if key, ok := roleKey(raw); !ok || uv.v.Var(key, "oneof="+roleKeysParam()) != nil {
		verr.Add(FieldTypeUserID, message(FieldTypeUserID, "in"))
	} else {
		out[FieldTypeUserID] = key
	}

	if password, ok := uv.textField(payload, FieldPassword, false, verr); ok {
		if uv.v.Var(password, "min=6") != nil {
			verr.Add(FieldPassword, message(FieldPassword, "min"))
		} else {
			out[FieldPassword] = password
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

// textField applies the presence and type rules shared by every text field.
// It reports ok only when the value is a non-empty string.
func (uv *UserValidator) textField(payload map[string]any, field string, required bool, verr *apperror.ValidationError) (string, bool) {
	raw, present := payload[field]
	if !present {
		if required {
			verr.Add(field, message(field, "required"))
		}
		return "", false
	}
	if isEmpty(raw) {
		if required || field != FieldPassword {
			verr.Add(field, message(field, "required"))
		}
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		verr.Add(field, message(field, "string"))
		return "", false
	}
	return s, true
}

func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

// roleKey accepts the numeric shapes a JSON decoder or a form can produce.
func roleKey(raw any) (uint, bool) {
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, false
		}
		return uint(v), true
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 32)
		return uint(n), err == nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		return uint(n), err == nil
	case int:
		return uint(v), v >= 0
	case uint:
		return v, true
	default:
		return 0, false
	}
}

func roleKeysParam() string {
	keys := model.RoleKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strconv.FormatUint(uint64(k), 10))
	}
	return strings.Join(parts, " ")
}
