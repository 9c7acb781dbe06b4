package botengine

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	domainAccess "github.com/avelara/instagate/domains/access"
	domainChat "github.com/avelara/instagate/domains/chat"
	domainContent "github.com/avelara/instagate/domains/content"
	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/pkg/msgworker"
)

// HandlerFunc processes one inbound message. Authorization is each
// handler's own responsibility, enforced before any side effect.
type HandlerFunc func(ctx context.Context, message domainChat.Message) error

// Engine routes inbound messages to command handlers by exact match on
// the first whitespace-delimited token. Anything that is not a
// registered trigger falls through to the default content-gate handler.
// Routing itself is purely syntactic.
type Engine struct {
	transport  domainChat.ITransport
	permission domainPermission.IPermissionUsecase
	access     domainAccess.IAccessUsecase
	fetcher    domainContent.IFetcher
	pool       *msgworker.Pool

	commands          map[string]HandlerFunc
	defaultFetchCount int
}

func NewEngine(
	transport domainChat.ITransport,
	permission domainPermission.IPermissionUsecase,
	access domainAccess.IAccessUsecase,
	fetcher domainContent.IFetcher,
	pool *msgworker.Pool,
	defaultFetchCount int,
) *Engine {
	if defaultFetchCount <= 0 {
		defaultFetchCount = 10
	}

	engine := &Engine{
		transport:         transport,
		permission:        permission,
		access:            access,
		fetcher:           fetcher,
		pool:              pool,
		commands:          make(map[string]HandlerFunc),
		defaultFetchCount: defaultFetchCount,
	}

	engine.RegisterCommand("/status", engine.handleStatus)
	engine.RegisterCommand("/request_access", engine.handleRequestAccess)
	engine.RegisterCommand("/allow", engine.handleAllow)

	return engine
}

func (e *Engine) RegisterCommand(trigger string, handler HandlerFunc) {
	e.commands[trigger] = handler
}

// Dispatch enqueues the message onto the worker pool keyed by its chat,
// so one slow fetch never blocks other chats. It reports whether the
// message was accepted.
func (e *Engine) Dispatch(message domainChat.Message) bool {
	if e.pool == nil {
		go func() {
			if err := e.Handle(context.Background(), message); err != nil {
				logrus.WithError(err).Errorf("[ENGINE] Handler failed for chat %d", message.ChatID)
			}
		}()
		return true
	}
	return e.pool.TryDispatch(msgworker.Job{
		ChatID: message.ChatID,
		Handler: func(ctx context.Context) error {
			return e.Handle(ctx, message)
		},
	})
}

// Handle routes one message to its handler and runs it to completion.
func (e *Engine) Handle(ctx context.Context, message domainChat.Message) error {
	logrus.Debugf("[ENGINE] Message %s from %d in chat %d", message.ID, message.SenderID, message.ChatID)

	trigger, _, _ := strings.Cut(strings.TrimSpace(message.Text), " ")
	if handler, ok := e.commands[trigger]; ok {
		return handler(ctx, message)
	}
	return e.handleDefault(ctx, message)
}
