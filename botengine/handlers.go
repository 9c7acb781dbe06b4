package botengine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	domainAccess "github.com/avelara/instagate/domains/access"
	domainChat "github.com/avelara/instagate/domains/chat"
	domainPermission "github.com/avelara/instagate/domains/permission"
	pkgError "github.com/avelara/instagate/pkg/error"
)

const (
	replyNotAllowed    = "You are not allowed to use this bot. Please /request_access to continue."
	replyCommandDenied = "You are not allowed to use this command."
	replyUsage         = "invalid number of arguments: usage: [username] ([number_to_scrape]=10)"
	replyBadCount      = "invalid number_to_scrape, using default (10)"
	replyNotFound      = "User not found"
	replyAllowUsage    = "usage: /allow <id_to_be_allowed>"
)

func (e *Engine) handleStatus(ctx context.Context, message domainChat.Message) error {
	response, err := e.access.Status(ctx, message.SenderID)
	if err != nil {
		return err
	}
	reply := fmt.Sprintf("You are user %d, your current state is %s", response.ID, response.Role)
	return e.reply(ctx, message, reply)
}

func (e *Engine) handleRequestAccess(ctx context.Context, message domainChat.Message) error {
	return e.access.RequestAccess(ctx, message.SenderID)
}

func (e *Engine) handleAllow(ctx context.Context, message domainChat.Message) error {
	args := strings.Fields(message.Text)[1:]
	if len(args) != 1 {
		return e.reply(ctx, message, replyAllowUsage)
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return e.reply(ctx, message, replyAllowUsage)
	}

	err = e.access.Grant(ctx, domainAccess.GrantRequest{
		CallerID: message.SenderID,
		TargetID: targetID,
	})

	var unauthorized pkgError.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return e.reply(ctx, message, replyCommandDenied)
	}
	var validationErr pkgError.ValidationError
	if errors.As(err, &validationErr) {
		return e.reply(ctx, message, replyAllowUsage)
	}
	return err
}

// handleDefault is the content-fetch gate: role check first, then at
// most two tokens (target, optional count), then one reply per fetched
// item, sequential and in order. A mid-sequence send failure aborts the
// remaining sends of this message only.
func (e *Engine) handleDefault(ctx context.Context, message domainChat.Message) error {
	role, err := e.permission.Resolve(ctx, message.SenderID)
	if err != nil {
		return err
	}
	if role == domainPermission.RoleNotAllowed {
		return e.reply(ctx, message, replyNotAllowed)
	}

	words := strings.Fields(message.Text)
	if len(words) > 2 {
		return e.reply(ctx, message, replyUsage)
	}
	if len(words) == 0 {
		return e.reply(ctx, message, replyUsage)
	}

	target := words[0]
	count := e.defaultFetchCount
	if len(words) == 2 {
		parsed, err := strconv.Atoi(words[1])
		if err != nil || parsed < 0 {
			// Soft recovery: warn and fall back to the default count.
			if err := e.reply(ctx, message, replyBadCount); err != nil {
				return err
			}
		} else {
			count = parsed
		}
	}

	posts, err := e.fetcher.Fetch(ctx, target, count)
	if err != nil {
		var notFound pkgError.NotFoundError
		if errors.As(err, &notFound) {
			return e.reply(ctx, message, replyNotFound)
		}
		return err
	}

	for _, post := range posts {
		if err := e.reply(ctx, message, post.DisplayURL); err != nil {
			logrus.WithError(err).Warnf("[ENGINE] Delivery stopped mid-sequence for chat %d", message.ChatID)
			return err
		}
	}
	return nil
}

func (e *Engine) reply(ctx context.Context, message domainChat.Message, text string) error {
	if err := e.transport.SendMessage(ctx, message.ChatID, text); err != nil {
		return pkgError.TransportError(fmt.Sprintf("reply to chat %d: %v", message.ChatID, err))
	}
	return nil
}
