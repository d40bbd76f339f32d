package handler

import (
	"strconv"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
)

// Counter is process-wide request state shared by the counter routes.
// It is created by the caller and injected, never held in a package variable.
type Counter struct {
	n atomic.Uint64
}

// Value returns the current count.
func (c *Counter) Value() uint64 { return c.n.Load() }

// Add increments the count and returns the new value.
func (c *Counter) Add() uint64 { return c.n.Add(1) }

// ShowCount renders "count: N".
func ShowCount(counter *Counter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("count: " + strconv.FormatUint(counter.Value(), 10))
	}
}

// AddOne increments the counter and renders the new value.
func AddOne(counter *Counter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("count: " + strconv.FormatUint(counter.Add(), 10))
	}
}
