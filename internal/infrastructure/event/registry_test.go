package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	r := NewHandlerRegistry()
	placed := newTestHandler()
	all := newTestHandler()

	r.Register(placed, "order.placed", "order.canceled")
	r.Register(all)

	handlers := r.GetHandlers("order.placed")
	assert.Len(t, handlers, 2)
	assert.Same(t, placed, handlers[0], "typed handlers come before wildcard handlers")
	assert.Len(t, r.GetHandlers("user.created"), 1)
	assert.Equal(t, 2, r.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()
	r.Register(a, "x")
	r.Register(b, "x")
	r.Register(a)

	r.Unregister(a)

	handlers := r.GetHandlers("x")
	assert.Len(t, handlers, 1)
	assert.Same(t, b, handlers[0])
	assert.Equal(t, 1, r.Len())

	r.Unregister(b)
	assert.Empty(t, r.GetHandlers("x"))
}
