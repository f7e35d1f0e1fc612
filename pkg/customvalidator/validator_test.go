package customvalidator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Phone string `validate:"phone"`
	Plate string `validate:"plate"`
}

func TestCustomValidations(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.NoError(t, v.Struct(sample{Phone: "+7 912 345-67-89", Plate: "А123ВС777"}))
	assert.NoError(t, v.Struct(sample{}))
	assert.Error(t, v.Struct(sample{Phone: "12"}))
	assert.Error(t, v.Struct(sample{Plate: "ОЧЕНЬДЛИННЫЙНОМЕР123"}))
}
