package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		call    string
		kind    OpKind
		columns []string
		ok      bool
	}{
		{"SingleColumn", "FindByEmail", OpFindBy, []string{"email"}, true},
		{"SingleColumnCamel", "FindByUserName", OpFindBy, []string{"user_name"}, true},
		{"LowerCamelPrefix", "findByUserName", OpFindBy, []string{"user_name"}, true},
		{"TwoColumns", "FindByUserNameAndStatus", OpFindBy, []string{"user_name", "status"}, true},
		{"FirstSingle", "FindFirstByEmail", OpFindFirstBy, []string{"email"}, true},
		{"FirstTwoColumns", "findFirstByTeamIdAndRole", OpFindFirstBy, []string{"team_id", "role"}, true},
		{"NoPrefix", "DeleteByEmail", 0, nil, false},
		{"PrefixOnly", "FindBy", 0, nil, false},
		{"FirstPrefixOnly", "FindFirstBy", 0, nil, false},
		{"Unrelated", "Save", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := Resolve(tt.call)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, op.Kind)
				assert.Equal(t, tt.columns, op.Columns)
			}
		})
	}
}

// TestResolveAndTieBreak pins the documented tie-break: the two-column form
// is tried first, so a single column whose camel-case name contains the
// literal "And" separator parses as two columns.
func TestResolveAndTieBreak(t *testing.T) {
	op, ok := Resolve("FindByTrialAndErrorCount")
	assert.True(t, ok)
	assert.Equal(t, []string{"trial", "error_count"}, op.Columns)

	// A leading "And" cannot open the two-column form; the whole remainder
	// is one column token.
	op, ok = Resolve("FindByAndroidId")
	assert.True(t, ok)
	assert.Equal(t, []string{"android_id"}, op.Columns)

	// Lower-case "and" inside a word is not a separator.
	op, ok = Resolve("FindByBrandName")
	assert.True(t, ok)
	assert.Equal(t, []string{"brand_name"}, op.Columns)
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "FindBy", OpFindBy.String())
	assert.Equal(t, "FindFirstBy", OpFindFirstBy.String())
}

func BenchmarkResolve(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Resolve("FindByUserNameAndStatus")
	}
}
