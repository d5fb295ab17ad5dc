package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{name: "recording", rule: Rule{Record: "sidekick:x:rate5m"}, want: "sidekick:x:rate5m"},
		{name: "alert", rule: Rule{Alert: "SidekickDown"}, want: "SidekickDown"},
		{name: "neither", rule: Rule{}, want: ""},
		{name: "both", rule: Rule{Record: "a", Alert: "B"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rule.Name())
		})
	}
}

func TestNewPrometheusRule(t *testing.T) {
	t.Parallel()

	cr := newPrometheusRule("res", "grp", Rule{Alert: "A", Expr: "up == 0"})

	assert.Equal(t, apiVersion, cr.APIVersion)
	assert.Equal(t, kind, cr.Kind)
	assert.Equal(t, "res", cr.Metadata.Name)
	assert.Equal(t, selectorLabel, cr.Metadata.Labels["prometheus"])
	if assert.Len(t, cr.Spec.Groups, 1) {
		assert.Equal(t, "grp", cr.Spec.Groups[0].Name)
		assert.Len(t, cr.Spec.Groups[0].Rules, 1)
	}
}
