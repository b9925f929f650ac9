package obstest

import (
	"testing"

	"github.com/rahul/outing/internal/observability"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	log := NewLogger(t)
	assert.NotNil(t, log)
	log.Event(observability.EventPlan).With(observability.Fields{"agent": "movie"}).Info("visible in -v output", nil)
}
