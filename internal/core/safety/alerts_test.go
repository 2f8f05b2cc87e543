package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBackendAlerts(t *testing.T) {
	alerts := []BackendAlert{
		{Restricao: "lactose", Status: "contem"},
		{Restricao: "gluten", Status: "seguro"},
		{Restricao: "Lactose", Status: "risco_potencial", Mensagem: "duplicado"},
		{Restricao: "soja", Status: "risco_potencial", Mensagem: " Pode conter soja "},
		{Restricao: "ovo", Status: "desconhecido"},
		{Restricao: "", Status: "contem"},
	}

	res := FromBackendAlerts(alerts, nil, LocalePT)
	require.True(t, res.HasConflict)
	assert.Equal(t, []string{"lactose", "soja"}, res.Conflicts)
	assert.Equal(t, []string{"Lactose", "Soja"}, res.Labels)
	assert.Equal(t, "Você tem intolerância a Lactose", res.ConflictDetails[0].Message)
	assert.Equal(t, "Pode conter soja", res.ConflictDetails[1].Message)
	assert.Equal(t, "Contém Lactose, Soja", *res.FullLabel)
}

func TestFromBackendAlertsAllSafe(t *testing.T) {
	res := FromBackendAlerts([]BackendAlert{{Restricao: "gluten", Status: "seguro"}}, ptLabels(), LocaleEN)
	assert.False(t, res.HasConflict)
	assert.Nil(t, res.FullLabel)

	res = FromBackendAlerts([]BackendAlert{{Restricao: "lactose", Status: "Contém"}}, ptLabels(), LocaleEN)
	assert.Equal(t, "Contains Leite", *res.FullLabel)
}
