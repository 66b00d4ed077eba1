package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrors_Taxonomy(t *testing.T) {
	paramErr := &domain.ParameterError{Name: domain.ParamConnectionName, Reason: "must be a string", Value: 42}
	assert.ErrorIs(t, paramErr, domain.ErrConfiguration)
	assert.Contains(t, paramErr.Error(), "(got int)")

	cause := errors.New("refused")
	regErr := &domain.RegistrationError{Op: "map", EventID: 3, Name: "ALTITUDE_SLOT_INDEX_SET", Err: cause}
	assert.ErrorIs(t, regErr, domain.ErrConnection)
	assert.ErrorIs(t, regErr, cause)
	assert.Contains(t, regErr.Error(), "ALTITUDE_SLOT_INDEX_SET")

	sigErr := &domain.SignalError{Index: 4}
	assert.ErrorIs(t, sigErr, domain.ErrSignalResolution)
	assert.NotErrorIs(t, sigErr, domain.ErrConnection)
}

func TestDeclaredPorts(t *testing.T) {
	ports := domain.DeclaredPorts()
	assert.Empty(t, ports.Inputs)
	assert.Len(t, ports.Outputs, domain.ChannelCount)
	for i, p := range ports.Outputs {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, 1, p.Size)
		assert.Equal(t, "double", p.DataType)
	}

	params := domain.DeclaredParameters()
	assert.Equal(t, domain.ParamConfigurationIndex, params[0].Name)
	assert.Equal(t, domain.ParameterString, params[1].Type)
}
