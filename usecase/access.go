package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/avelara/instagate/config"
	domainAccess "github.com/avelara/instagate/domains/access"
	domainChat "github.com/avelara/instagate/domains/chat"
	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/infrastructure/auditlog"
	pkgError "github.com/avelara/instagate/pkg/error"
	"github.com/avelara/instagate/pkg/permstore"
	"github.com/avelara/instagate/validations"
)

type serviceAccess struct {
	store     *permstore.Store
	transport domainChat.ITransport
	audit     auditlog.IAuditRepository
	cfg       config.AccessConfig
}

func NewAccessService(store *permstore.Store, transport domainChat.ITransport, audit auditlog.IAuditRepository, cfg config.AccessConfig) domainAccess.IAccessUsecase {
	return &serviceAccess{
		store:     store,
		transport: transport,
		audit:     audit,
		cfg:       cfg,
	}
}

// RequestAccess is open to any caller, including already-allowed ones.
// It produces notifications only; the admin later references the
// caller's identity in /allow. Nothing durable is recorded.
func (service serviceAccess) RequestAccess(ctx context.Context, callerID int64) error {
	snapshot, err := service.store.Load()
	if err != nil {
		return err
	}

	profile, err := service.transport.GetProfile(ctx, callerID)
	if err != nil {
		// Profile metadata is best effort; the identity alone is enough
		// for the admin to act on.
		logrus.WithError(err).Warnf("[ACCESS] Could not fetch profile for %d", callerID)
		profile = domainChat.Profile{}
	}

	if snapshot.Configured() {
		notification := fmt.Sprintf("User %s %s (%s) [%d] wants to get access",
			profile.FirstName, profile.LastName, profile.Username, callerID)
		if err := service.transport.SendMessage(ctx, snapshot.AdminID, notification); err != nil {
			return pkgError.TransportError(fmt.Sprintf("notify admin of access request: %v", err))
		}
	} else {
		logrus.Warnf("[ACCESS] Access request from %d with no admin configured, nobody to notify", callerID)
	}

	ack := fmt.Sprintf("You are user %d, request has been submitted", callerID)
	if err := service.transport.SendMessage(ctx, callerID, ack); err != nil {
		return pkgError.TransportError(fmt.Sprintf("acknowledge access request: %v", err))
	}
	return nil
}

// Grant adds the target to the allow-list. The persisted record is
// committed before any notification goes out: losing a notification is
// acceptable, losing a grant is not.
func (service serviceAccess) Grant(ctx context.Context, request domainAccess.GrantRequest) error {
	if err := validations.ValidateGrant(ctx, request); err != nil {
		return err
	}

	snapshot, err := service.store.Load()
	if err != nil {
		return err
	}
	if domainPermission.Resolve(request.CallerID, snapshot) != domainPermission.RoleAdmin {
		return pkgError.UnauthorizedError("You are not allowed to use this command.")
	}

	// Liveness check: the transport must know the target before we
	// allow-list it, otherwise a typoed identity gets durably granted.
	if _, err := service.transport.GetProfile(ctx, request.TargetID); err != nil {
		service.notifyAdmin(ctx, snapshot.AdminID,
			fmt.Sprintf("An error occurred trying to add user %d to the allowlist: %v", request.TargetID, err))
		return pkgError.TransportError(fmt.Sprintf("verify target %d: %v", request.TargetID, err))
	}

	updated, err := service.store.Update(func(s *domainPermission.Snapshot) error {
		s.Allow(request.TargetID)
		return nil
	})
	if err != nil {
		service.notifyAdmin(ctx, snapshot.AdminID,
			fmt.Sprintf("An error occurred trying to add user %d to the allowlist: %v", request.TargetID, err))
		return err
	}

	if service.audit != nil {
		if err := service.audit.RecordGrant(ctx, auditlog.GrantEntry{
			GrantedBy: request.CallerID,
			GrantedTo: request.TargetID,
		}); err != nil {
			logrus.WithError(err).Error("[ACCESS] Failed to record grant in audit log")
		}
	}

	service.notifyAdmin(ctx, updated.AdminID,
		fmt.Sprintf("User %d added to the allowlist", request.TargetID))
	if err := service.transport.SendMessage(ctx, request.TargetID, "You are now allowed. Have fun!🎉"); err != nil {
		logrus.WithError(err).Warnf("[ACCESS] Could not notify %d of their grant", request.TargetID)
	}
	return nil
}

// Status is read-only unless StatusLegacyGrant reproduces the upstream
// behavior of appending the caller to the allow-list on every check.
// The reported role is resolved before any legacy mutation, matching
// the original ordering.
func (service serviceAccess) Status(ctx context.Context, callerID int64) (domainAccess.StatusResponse, error) {
	var role domainPermission.Role

	if service.cfg.StatusLegacyGrant {
		_, err := service.store.Update(func(s *domainPermission.Snapshot) error {
			role = domainPermission.Resolve(callerID, *s)
			s.Allow(callerID)
			return nil
		})
		if err != nil {
			return domainAccess.StatusResponse{}, err
		}
	} else {
		snapshot, err := service.store.Load()
		if err != nil {
			return domainAccess.StatusResponse{}, err
		}
		role = domainPermission.Resolve(callerID, snapshot)
	}

	return domainAccess.StatusResponse{ID: callerID, Role: role}, nil
}

func (service serviceAccess) notifyAdmin(ctx context.Context, adminID int64, text string) {
	if adminID == 0 {
		return
	}
	if err := service.transport.SendMessage(ctx, adminID, text); err != nil {
		logrus.WithError(err).Error("[ACCESS] Failed to notify admin")
	}
}
