package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

func TestCompany_FiscalConfigured(t *testing.T) {
	cases := []struct {
		name   string
		s      entity.FiscalSettings
		expect bool
	}{
		{"série 0 em homologação", entity.FiscalSettings{Environment: 2, Series: 0}, true},
		{"série 999 em produção", entity.FiscalSettings{Environment: 1, Series: 999}, true},
		{"sem ambiente", entity.FiscalSettings{Series: 1}, false},
		{"ambiente desconhecido", entity.FiscalSettings{Environment: 3, Series: 1}, false},
		{"série negativa", entity.FiscalSettings{Environment: 2, Series: -1}, false},
		{"série acima de 999", entity.FiscalSettings{Environment: 2, Series: 1000}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &entity.Company{Settings: tc.s}
			assert.Equal(t, tc.expect, c.FiscalConfigured())
		})
	}
}
