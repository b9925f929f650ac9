// Package obstest provides loggers for tests.
package obstest

import (
	"testing"

	"github.com/rahul/outing/internal/observability"
	"go.uber.org/zap/zaptest"
)

// NewLogger writes through testing.TB.
func NewLogger(t testing.TB) observability.Logger {
	return observability.NewZapAdapter(zaptest.NewLogger(t))
}
