package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/instagate/config"
	domainAccess "github.com/avelara/instagate/domains/access"
	domainChat "github.com/avelara/instagate/domains/chat"
	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/infrastructure/auditlog"
	pkgError "github.com/avelara/instagate/pkg/error"
	"github.com/avelara/instagate/pkg/permstore"
)

type sentMessage struct {
	To   int64
	Text string
}

type fakeTransport struct {
	mu         sync.Mutex
	sent       []sentMessage
	profiles   map[int64]domainChat.Profile
	profileErr error
	sendErr    error
	onSend     func(to int64, text string)
}

func (f *fakeTransport) SendMessage(ctx context.Context, to int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend(to, text)
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: text})
	return nil
}

func (f *fakeTransport) GetProfile(ctx context.Context, id int64) (domainChat.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return domainChat.Profile{}, f.profileErr
	}
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return domainChat.Profile{}, nil
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditlog.GrantEntry
}

func (f *fakeAudit) Init(ctx context.Context) error { return nil }
func (f *fakeAudit) RecordGrant(ctx context.Context, entry auditlog.GrantEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}
func (f *fakeAudit) RecentGrants(ctx context.Context, limit int) ([]auditlog.GrantEntry, error) {
	return nil, nil
}
func (f *fakeAudit) Close() error { return nil }

const testAdminID int64 = 1

// storeFile holds the backing file of the most recent fixture so tests
// can compare the persisted record byte-for-byte.
var storeFile string

func newAccessFixture(t *testing.T, cfg config.AccessConfig) (domainAccess.IAccessUsecase, *permstore.Store, *fakeTransport) {
	t.Helper()
	storeFile = filepath.Join(t.TempDir(), "permissions.json")
	store := permstore.New(storeFile, testAdminID)
	transport := &fakeTransport{profiles: map[int64]domainChat.Profile{}}
	return NewAccessService(store, transport, &fakeAudit{}, cfg), store, transport
}

func TestGrant_AdminAddsTarget(t *testing.T) {
	svc, store, transport := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	err := svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 42})
	require.NoError(t, err)

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.True(t, snapshot.IsAllowed(42))

	msgs := transport.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, sentMessage{To: testAdminID, Text: "User 42 added to the allowlist"}, msgs[0])
	assert.Equal(t, int64(42), msgs[1].To)
	assert.Contains(t, msgs[1].Text, "You are now allowed")
}

func TestGrant_Idempotent(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 42}))
	once, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 42}))
	twice, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, once.AllowedIDs, twice.AllowedIDs)
}

func TestGrant_NonAdminNeverMutates(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	// Seed a known record so there is a file to compare byte-for-byte.
	_, err := store.Update(func(s *domainPermission.Snapshot) error {
		s.Allow(7)
		return nil
	})
	require.NoError(t, err)
	before, err := os.ReadFile(storeFile)
	require.NoError(t, err)

	err = svc.Grant(ctx, domainAccess.GrantRequest{CallerID: 7, TargetID: 42})
	require.Error(t, err)
	var unauthorized pkgError.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)

	after, err := os.ReadFile(storeFile)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a denied grant must leave the record untouched")
}

func TestGrant_LivenessCheckFailureAborts(t *testing.T) {
	svc, store, transport := newAccessFixture(t, config.AccessConfig{})
	transport.profileErr = errors.New("chat not found")
	ctx := context.Background()

	err := svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 42})
	require.Error(t, err)
	var transportErr pkgError.TransportError
	assert.ErrorAs(t, err, &transportErr)

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.False(t, snapshot.IsAllowed(42))

	msgs := transport.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, testAdminID, msgs[0].To)
	assert.Contains(t, msgs[0].Text, "An error occurred")
}

func TestGrant_PersistsBeforeNotifying(t *testing.T) {
	svc, store, transport := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	var allowedAtFirstNotification bool
	var checked bool
	transport.onSend = func(to int64, text string) {
		if checked {
			return
		}
		checked = true
		snapshot, err := store.Load()
		if err == nil {
			allowedAtFirstNotification = snapshot.IsAllowed(42)
		}
	}

	require.NoError(t, svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 42}))
	assert.True(t, allowedAtFirstNotification,
		"the grant must be durable before the first notification is sent")
}

func TestGrant_ConcurrentDistinctTargetsBothDurable(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, target := range []int64{111, 222} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, svc.Grant(ctx, domainAccess.GrantRequest{CallerID: testAdminID, TargetID: id}))
		}(target)
	}
	wg.Wait()

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.True(t, snapshot.IsAllowed(111), "concurrent grant for 111 was lost")
	assert.True(t, snapshot.IsAllowed(222), "concurrent grant for 222 was lost")
}

func TestGrant_ValidationRejectsZeroTarget(t *testing.T) {
	svc, _, _ := newAccessFixture(t, config.AccessConfig{})

	err := svc.Grant(context.Background(), domainAccess.GrantRequest{CallerID: testAdminID, TargetID: 0})
	require.Error(t, err)
	var validationErr pkgError.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRequestAccess_NotifiesAdminAndAcksCaller(t *testing.T) {
	svc, _, transport := newAccessFixture(t, config.AccessConfig{})
	transport.profiles[55] = domainChat.Profile{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}
	ctx := context.Background()

	require.NoError(t, svc.RequestAccess(ctx, 55))

	msgs := transport.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, testAdminID, msgs[0].To)
	assert.Equal(t, "User Ada Lovelace (ada) [55] wants to get access", msgs[0].Text)
	assert.Equal(t, sentMessage{To: 55, Text: "You are user 55, request has been submitted"}, msgs[1])
}

func TestRequestAccess_DoesNotMutateStore(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	require.NoError(t, svc.RequestAccess(ctx, 55))

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.False(t, snapshot.IsAllowed(55))
	assert.False(t, fileExists(t, storeFile), "request access must not create a persisted record")
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}

func TestStatus_ReadOnlyByDefault(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{})
	ctx := context.Background()

	response, err := svc.Status(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domainAccess.StatusResponse{ID: 9, Role: domainPermission.RoleNotAllowed}, response)

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.False(t, snapshot.IsAllowed(9), "status must not grant access")
}

func TestStatus_LegacyGrantReplicatesUpstreamBehavior(t *testing.T) {
	svc, store, _ := newAccessFixture(t, config.AccessConfig{StatusLegacyGrant: true})
	ctx := context.Background()

	// Role is resolved before the legacy append, matching upstream.
	response, err := svc.Status(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domainPermission.RoleNotAllowed, response.Role)

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.True(t, snapshot.IsAllowed(9))

	response, err = svc.Status(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domainPermission.RoleAllowed, response.Role)
}

func TestStatus_ReportsAdmin(t *testing.T) {
	svc, _, _ := newAccessFixture(t, config.AccessConfig{})

	response, err := svc.Status(context.Background(), testAdminID)
	require.NoError(t, err)
	assert.Equal(t, domainPermission.RoleAdmin, response.Role)
	assert.Equal(t, testAdminID, response.ID)
}
