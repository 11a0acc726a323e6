package sightings_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	sightings "github.com/goliatone/go-sightings"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockPosts implements sightings.Posts. The embedded repository interface
// covers the generic CRUD surface; methods the tests exercise are shadowed
// with testify expectations.
type MockPosts struct {
	mock.Mock
	repository.Repository[*sightings.Post]
}

func (m *MockPosts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*sightings.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*sightings.Post)
	return post, args.Error(1)
}

func (m *MockPosts) GetWithRelations(ctx context.Context, id uuid.UUID) (*sightings.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*sightings.Post)
	return post, args.Error(1)
}

func (m *MockPosts) GetWithRelationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*sightings.Post, error) {
	args := m.Called(ctx, tx, id)
	post, _ := args.Get(0).(*sightings.Post)
	return post, args.Error(1)
}

func (m *MockPosts) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to sightings.PostStatus) (int64, error) {
	args := m.Called(ctx, id, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPosts) UpdateStatusGuardedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, from, to sightings.PostStatus) (int64, error) {
	args := m.Called(ctx, tx, id, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPosts) UpdateContent(ctx context.Context, post *sightings.Post) (*sightings.Post, error) {
	args := m.Called(ctx, post)
	updated, _ := args.Get(0).(*sightings.Post)
	return updated, args.Error(1)
}

func (m *MockPosts) UpdateContentTx(ctx context.Context, tx bun.IDB, post *sightings.Post) (*sightings.Post, error) {
	args := m.Called(ctx, tx, post)
	updated, _ := args.Get(0).(*sightings.Post)
	return updated, args.Error(1)
}

func (m *MockPosts) ListByStatus(ctx context.Context, status sightings.PostStatus, limit, offset int) ([]*sightings.Post, error) {
	args := m.Called(ctx, status, limit, offset)
	posts, _ := args.Get(0).([]*sightings.Post)
	return posts, args.Error(1)
}

func (m *MockPosts) ListByStatusTx(ctx context.Context, tx bun.IDB, status sightings.PostStatus, limit, offset int) ([]*sightings.Post, error) {
	args := m.Called(ctx, tx, status, limit, offset)
	posts, _ := args.Get(0).([]*sightings.Post)
	return posts, args.Error(1)
}

func (m *MockPosts) ListByUser(ctx context.Context, userID uuid.UUID) ([]*sightings.Post, error) {
	args := m.Called(ctx, userID)
	posts, _ := args.Get(0).([]*sightings.Post)
	return posts, args.Error(1)
}

func (m *MockPosts) ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*sightings.Post, error) {
	args := m.Called(ctx, tx, userID)
	posts, _ := args.Get(0).([]*sightings.Post)
	return posts, args.Error(1)
}

// MockUsers implements sightings.Users.
type MockUsers struct {
	mock.Mock
	repository.Repository[*sightings.User]
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*sightings.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*sightings.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByFirebaseUID(ctx context.Context, firebaseUID string) (*sightings.User, error) {
	args := m.Called(ctx, firebaseUID)
	user, _ := args.Get(0).(*sightings.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByFirebaseUIDTx(ctx context.Context, tx bun.IDB, firebaseUID string) (*sightings.User, error) {
	args := m.Called(ctx, tx, firebaseUID)
	user, _ := args.Get(0).(*sightings.User)
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *sightings.User, criteria ...repository.UpdateCriteria) (*sightings.User, error) {
	args := m.Called(ctx, record, criteria)
	updated, _ := args.Get(0).(*sightings.User)
	return updated, args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*sightings.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*sightings.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*sightings.User, error) {
	args := m.Called(ctx, tx, username)
	user, _ := args.Get(0).(*sightings.User)
	return user, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *sightings.User) (*sightings.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*sightings.User)
	return created, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *sightings.User) (*sightings.User, error) {
	args := m.Called(ctx, tx, user)
	created, _ := args.Get(0).(*sightings.User)
	return created, args.Error(1)
}

func (m *MockUsers) AddPoints(ctx context.Context, id uuid.UUID, points int) error {
	args := m.Called(ctx, id, points)
	return args.Error(0)
}

func (m *MockUsers) AddPointsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, points int) error {
	args := m.Called(ctx, tx, id, points)
	return args.Error(0)
}

func (m *MockUsers) ListByPoints(ctx context.Context, limit, offset int) ([]*sightings.User, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]*sightings.User)
	return users, args.Error(1)
}

func (m *MockUsers) ListByPointsTx(ctx context.Context, tx bun.IDB, limit, offset int) ([]*sightings.User, error) {
	args := m.Called(ctx, tx, limit, offset)
	users, _ := args.Get(0).([]*sightings.User)
	return users, args.Error(1)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *sightings.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *sightings.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

// MockAdmins implements sightings.Admins.
type MockAdmins struct {
	mock.Mock
	repository.Repository[*sightings.Admin]
}

func (m *MockAdmins) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*sightings.Admin, error) {
	args := m.Called(ctx, id)
	admin, _ := args.Get(0).(*sightings.Admin)
	return admin, args.Error(1)
}

func (m *MockAdmins) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*sightings.Admin, error) {
	args := m.Called(ctx, identifier)
	admin, _ := args.Get(0).(*sightings.Admin)
	return admin, args.Error(1)
}

func (m *MockAdmins) TrackSuccessfulLogin(ctx context.Context, admin *sightings.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdmins) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, admin *sightings.Admin) error {
	args := m.Called(ctx, tx, admin)
	return args.Error(0)
}

func (m *MockAdmins) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAdmins) CountActiveTx(ctx context.Context, tx bun.IDB) (int, error) {
	args := m.Called(ctx, tx)
	return args.Int(0), args.Error(1)
}

func (m *MockAdmins) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdmins) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// mockRepoManager bundles the mock repositories behind the manager
// interface. RunInTx executes the callback inline.
type mockRepoManager struct {
	admins     *MockAdmins
	users      *MockUsers
	posts      *MockPosts
	postImages repository.Repository[*sightings.PostImage]
	species    sightings.SpeciesCatalog
	userTypes  sightings.UserTypes
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		admins: &MockAdmins{},
		users:  &MockUsers{},
		posts:  &MockPosts{},
	}
}

func (m *mockRepoManager) Validate() error { return nil }
func (m *mockRepoManager) MustValidate()   {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) Admins() sightings.Admins { return m.admins }
func (m *mockRepoManager) Users() sightings.Users   { return m.users }
func (m *mockRepoManager) Posts() sightings.Posts   { return m.posts }
func (m *mockRepoManager) PostImages() repository.Repository[*sightings.PostImage] {
	return m.postImages
}
func (m *mockRepoManager) Species() sightings.SpeciesCatalog { return m.species }
func (m *mockRepoManager) UserTypes() sightings.UserTypes    { return m.userTypes }

// MockFirebaseVerifier implements sightings.FirebaseVerifier.
type MockFirebaseVerifier struct {
	mock.Mock
}

func (m *MockFirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*sightings.FirebaseIdentity, error) {
	args := m.Called(ctx, idToken)
	identity, _ := args.Get(0).(*sightings.FirebaseIdentity)
	return identity, args.Error(1)
}

// capturingSink records every activity event it sees.
type capturingSink struct {
	mu     sync.Mutex
	events []sightings.ActivityEvent
}

func (s *capturingSink) Record(ctx context.Context, event sightings.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []sightings.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sightings.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// capturingNotifier records approval broadcasts.
type capturingNotifier struct {
	mu            sync.Mutex
	notifications []sightings.SightingNotification
	err           error
}

func (n *capturingNotifier) NotifySightingApproved(notification sightings.SightingNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
	return n.err
}

func (n *capturingNotifier) Notifications() []sightings.SightingNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sightings.SightingNotification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// testConfig satisfies sightings.Config for token and session tests.
type testConfig struct {
	signingKey string
	accessMin  int
	refreshMin int
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key-0123456789",
		accessMin:  15,
		refreshMin: 7 * 24 * 60,
	}
}

func (c testConfig) GetSigningKey() string    { return c.signingKey }
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetIssuer() string        { return "sightings-test" }
func (c testConfig) GetAudience() []string    { return []string{"sightings-api"} }
func (c testConfig) GetAccessTokenDuration() int {
	return c.accessMin
}
func (c testConfig) GetRefreshTokenDuration() int {
	return c.refreshMin
}
func (c testConfig) GetAdminCookieName() string        { return "adminToken" }
func (c testConfig) GetAdminRefreshCookieName() string { return "adminRefreshToken" }
func (c testConfig) GetAuthScheme() string             { return "Bearer" }

var (
	_ sightings.Posts             = (*MockPosts)(nil)
	_ sightings.Users             = (*MockUsers)(nil)
	_ sightings.Admins            = (*MockAdmins)(nil)
	_ sightings.RepositoryManager = (*mockRepoManager)(nil)
	_ sightings.Config            = testConfig{}
	_ sightings.ActivitySink      = (*capturingSink)(nil)
	_ sightings.Notifier          = (*capturingNotifier)(nil)
	_ sightings.FirebaseVerifier  = (*MockFirebaseVerifier)(nil)
)

// MockContext mocks router.Context for session and controller tests.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
