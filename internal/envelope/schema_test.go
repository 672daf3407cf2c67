package envelope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_CompilesEmbeddedSchemas(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.Equal(t, []string{
		SchemaEnvelope,
		SchemaFoodAnalysis,
		SchemaReportDetail,
		SchemaWeightRecord,
	}, v.Names())
}

func TestValidator_Validate(t *testing.T) {
	v, err := DefaultValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		schema string
		body   string
		ok     bool
	}{
		{"envelope ok", SchemaEnvelope, `{"code":0,"message":"ok"}`, true},
		{"envelope status fallback", SchemaEnvelope, `{"status":200}`, true},
		{"envelope without code", SchemaEnvelope, `{"message":"hi"}`, false},
		{"food ok", SchemaFoodAnalysis, `{"code":0,"data":{"success":true,"food":{"name":"apple","calories":52}}}`, true},
		{"food success not bool", SchemaFoodAnalysis, `{"code":0,"data":{"success":"yes"}}`, false},
		{"report ok", SchemaReportDetail, `{"code":200,"data":{"reportPeriod":"WEEK","totalDays":7}}`, true},
		{"report missing period", SchemaReportDetail, `{"code":200,"data":{"totalDays":7}}`, false},
		{"weight null data", SchemaWeightRecord, `{"code":200,"data":null}`, true},
		{"weight bad type", SchemaWeightRecord, `{"code":200,"data":{"weight":true}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Parse(200, []byte(tt.body))
			require.NoError(t, err)
			err = v.Validate(tt.schema, env)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaMismatch))
		})
	}
}

func TestValidator_UnknownSchema(t *testing.T) {
	v, err := DefaultValidator()
	require.NoError(t, err)
	env, err := Parse(200, []byte(`{"code":0}`))
	require.NoError(t, err)
	assert.Error(t, v.Validate("nope", env))
}
