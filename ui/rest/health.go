package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avelara/instagate/config"
	"github.com/avelara/instagate/pkg/msgworker"
	"github.com/avelara/instagate/pkg/utils"
)

type Health struct {
	Pool *msgworker.Pool
}

func InitRestHealth(app fiber.Router, pool *msgworker.Pool) Health {
	handler := Health{Pool: pool}
	app.Get("/health", handler.GetStatus)
	return handler
}

func (handler *Health) GetStatus(c *fiber.Ctx) error {
	results := map[string]any{
		"version": config.Global.App.Version,
	}
	if handler.Pool != nil {
		results["worker_pool"] = handler.Pool.Stats()
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service healthy",
		Results: results,
	})
}
