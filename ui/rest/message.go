package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avelara/instagate/botengine"
	domainChat "github.com/avelara/instagate/domains/chat"
	"github.com/avelara/instagate/pkg/utils"
)

type Message struct {
	Engine *botengine.Engine
}

func InitRestMessage(app fiber.Router, engine *botengine.Engine) Message {
	handler := Message{Engine: engine}
	app.Post("/webhook/message", handler.Receive)
	return handler
}

// Receive accepts one inbound chat message from the transport bridge
// and enqueues it for processing. Handling is asynchronous: the bridge
// gets a 202 as soon as the message is accepted, and a 429 when the
// chat's shard queue is full.
func (handler *Message) Receive(c *fiber.Ctx) error {
	var message domainChat.Message
	if err := c.BodyParser(&message); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "invalid message payload",
		})
	}
	if message.SenderID == 0 || message.ChatID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "sender_id and chat_id are required",
		})
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if !handler.Engine.Dispatch(message) {
		logrus.Warnf("[REST] Dropping message %s for chat %d, queue full", message.ID, message.ChatID)
		return c.Status(fiber.StatusTooManyRequests).JSON(utils.ResponseData{
			Status:  429,
			Code:    "QUEUE_FULL",
			Message: "message queue is full, retry later",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(utils.ResponseData{
		Status:  202,
		Code:    "ACCEPTED",
		Message: "Message accepted",
		Results: map[string]any{"message_id": message.ID},
	})
}
