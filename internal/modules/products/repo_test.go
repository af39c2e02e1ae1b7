package products

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestOptionsRoundTrip(t *testing.T) {
	raw := encodeOptions([]string{"Color", "Size"}, []string{"Red", "S"})

	assert.Equal(t, []string{"Red", "S"}, decodeOptions(raw))
	assert.Equal(t, map[string]string{"Color": "Red", "Size": "S"}, Variant{Options: raw}.OptionsByAxis())
}

func TestDecodeOptionsTolerance(t *testing.T) {
	assert.Nil(t, decodeOptions(nil))
	assert.Nil(t, decodeOptions([]byte("not json")))
	assert.Empty(t, Variant{}.OptionsByAxis())
}

func TestMySQLErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	deadlock := &mysql.MySQLError{Number: 1213}

	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(deadlock))
	assert.True(t, isRetryableMySQLError(deadlock))
	assert.True(t, isRetryableMySQLError(&mysql.MySQLError{Number: 1205}))
	assert.False(t, isRetryableMySQLError(dup))
	assert.False(t, isRetryableMySQLError(nil))
}
