package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Grupo não encontrado", NotFound(EntityGroup).Error())

	wrapped := fmt.Errorf("load group: %w", NotFound(EntityGroup))
	var nf *NotFoundError
	assert.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, EntityGroup, nf.Entity)
}

func TestValidationErrorKeepsOrder(t *testing.T) {
	ve := NewValidationError()
	assert.True(t, ve.Empty())

	ve.Add("name", "first")
	ve.Add("name", "second")
	ve.Add("email", "bad")

	assert.False(t, ve.Empty())
	assert.True(t, ve.Has("name"))
	assert.False(t, ve.Has("type_user_id"))
	assert.Equal(t, []string{"first", "second"}, ve.Errors["name"])
	assert.Equal(t, "validation failed: email: bad; name: first, second", ve.Error())
}

