package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIdLocalsKey = "request_id"

func LogHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestId := uuid.New().String()
		ctx.Locals(requestIdLocalsKey, requestId)
		ctx.Set("X-Request-Id", requestId)

		requestLog(ctx).Infoln("Handling request.")
		return ctx.Next()
	}
}
