package router

import (
	"context"
	"testing"

	"movement-hold-service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type namedHandler string

func (h namedHandler) CanHandle(resourceType string) bool { return string(h) == resourceType }

func (h namedHandler) Handle(context.Context, []byte) error { return nil }

func TestResourceRouter(t *testing.T) {
	r := NewResourceRouter(logger.NewNopLogger())
	r.Register(namedHandler("movement"))
	r.Register(namedHandler("pre-notification"))

	assert.Equal(t, namedHandler("pre-notification"), r.GetHandler("pre-notification"))
	assert.Equal(t, namedHandler("movement"), r.GetHandler("movement"))
	assert.Nil(t, r.GetHandler("customs-declaration"))
}
