package mmsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuality_String(t *testing.T) {
	cases := map[Quality]string{
		0: "Good",
		QUALITY_VALIDITY_INVALID | QUALITY_DETAIL_FAILURE:                          "Invalid|Failure",
		QUALITY_VALIDITY_QUESTIONABLE | QUALITY_SOURCE_SUBSTITUTED | QUALITY_TEST: "Questionable|Substituted|Test",
		QUALITY_OPERATOR_BLOCKED:                                                   "Good|OperatorBlocked",
	}
	for q, want := range cases {
		assert.Equal(t, want, q.String())
	}
	assert.Equal(t, QUALITY_VALIDITY_INVALID, (QUALITY_VALIDITY_INVALID | QUALITY_DERIVED).Validity())
}
