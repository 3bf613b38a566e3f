package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func AssertDecimalEqual(t *testing.T, actual decimal.Decimal, expectedStr string, msg string) {
	t.Helper()
	expected, err := decimal.NewFromString(expectedStr)
	assert.NoError(t, err, msg)
	assert.Truef(t, actual.Equal(expected), "%s: got %s, want %s", msg, actual, expected)
}
