package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/openclub/clubgate/internal/types"
)

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		def     types.AttributeDefinition
		raw     string
		wantErr bool
	}{
		{
			"empty_optional_ok",
			types.AttributeDefinition{Name: "bio", Type: types.TypeTextarea},
			"", false,
		},
		{
			"empty_required_fails",
			types.AttributeDefinition{Name: "level", Type: types.TypeText, Required: true},
			"", true,
		},
		{
			"bad_date_fails",
			types.AttributeDefinition{Name: "joined", Type: types.TypeDate},
			"not-a-date", true,
		},
		{
			"good_date_ok",
			types.AttributeDefinition{Name: "joined", Type: types.TypeDate},
			"2026-03-15", false,
		},
		{
			"select_unknown_option",
			types.AttributeDefinition{Name: "level", Type: types.TypeSelect,
				Options: []types.Option{{Label: "N1", Value: "n1"}}},
			"n9", true,
		},
		{
			"select_known_option",
			types.AttributeDefinition{Name: "level", Type: types.TypeSelect,
				Options: []types.Option{{Label: "N1", Value: "n1"}}},
			"n1", false,
		},
		{
			"min_length_fails",
			types.AttributeDefinition{Name: "code", Type: types.TypeText,
				Validation: types.ValidationRules{"min_length": "4"}},
			"ab", true,
		},
		{
			"max_length_ok",
			types.AttributeDefinition{Name: "code", Type: types.TypeText,
				Validation: types.ValidationRules{"max_length": "4"}},
			"abcd", false,
		},
		{
			"min_value_fails",
			types.AttributeDefinition{Name: "dives", Type: types.TypeNumber,
				Validation: types.ValidationRules{"min_value": "10"}},
			"9", true,
		},
		{
			"max_value_ok",
			types.AttributeDefinition{Name: "dives", Type: types.TypeNumber,
				Validation: types.ValidationRules{"max_value": "100"}},
			"42", false,
		},
		{
			"pattern_fails",
			types.AttributeDefinition{Name: "license", Type: types.TypeText,
				Validation: types.ValidationRules{"pattern": "^[A-Z]{2}-\\d+$"}},
			"xx-1", true,
		},
		{
			"pattern_ok",
			types.AttributeDefinition{Name: "license", Type: types.TypeText,
				Validation: types.ValidationRules{"pattern": "^[A-Z]{2}-\\d+$"}},
			"AB-123", false,
		},
		{
			"allowed_extensions_fails",
			types.AttributeDefinition{Name: "certificate", Type: types.TypeFile,
				Validation: types.ValidationRules{"allowed_extensions": "jpg,png,pdf"}},
			"scan.exe", true,
		},
		{
			"allowed_extensions_ok",
			types.AttributeDefinition{Name: "certificate", Type: types.TypeFile,
				Validation: types.ValidationRules{"allowed_extensions": "jpg,png,pdf"}},
			"scan.PDF", false,
		},
		{
			"bad_rule_parameter_fails",
			types.AttributeDefinition{Name: "code", Type: types.TypeText,
				Validation: types.ValidationRules{"min_length": "four"}},
			"abcdef", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(&tt.def, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateValue(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrValidationFailed) && !errors.Is(err, types.ErrValueTooLong) {
				t.Errorf("error %v does not wrap a validation sentinel", err)
			}
		})
	}
}

func TestValidateValue_SizeCap(t *testing.T) {
	def := types.AttributeDefinition{Name: "bio", Type: types.TypeTextarea}
	raw := strings.Repeat("x", types.MaxStoredValueLength+1)
	if err := ValidateValue(&def, raw); !errors.Is(err, types.ErrValueTooLong) {
		t.Fatalf("ValidateValue() error = %v, want ErrValueTooLong", err)
	}
}
