package sightings

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FirebaseIdentity is the verified payload of a Firebase issued ID token.
type FirebaseIdentity struct {
	UID           string
	Email         string
	Name          string
	EmailVerified bool
}

// FirebaseVerifier validates Firebase ID tokens against Google's public keys.
type FirebaseVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseIdentity, error)
}

// ErrEmailNotVerified rejects Firebase identities with unverified emails.
var ErrEmailNotVerified = goerrors.New("account email is not verified", goerrors.CategoryAuth).
	WithTextCode("EMAIL_NOT_VERIFIED").
	WithCode(goerrors.CodeUnauthorized)

// AuthResolver turns raw credentials into principals. Admins authenticate
// with email and password and live in a cookie session, users exchange a
// Firebase ID token for the application's own bearer tokens. Both flavors
// share the refresh sub protocol.
type AuthResolver struct {
	repo         RepositoryManager
	tokens       TokenService
	firebase     FirebaseVerifier
	logger       Logger
	activitySink ActivitySink
}

// NewAuthResolver returns a new AuthResolver
func NewAuthResolver(repo RepositoryManager, tokens TokenService) *AuthResolver {
	return &AuthResolver{
		repo:         repo,
		tokens:       tokens,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *AuthResolver) WithLogger(logger Logger) *AuthResolver {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithFirebaseVerifier enables the Firebase login path.
func (s *AuthResolver) WithFirebaseVerifier(verifier FirebaseVerifier) *AuthResolver {
	s.firebase = verifier
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *AuthResolver) WithActivitySink(sink ActivitySink) *AuthResolver {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this resolver
func (s *AuthResolver) TokenService() TokenService {
	return s.tokens
}

// AdminLogin verifies admin credentials and mints a fresh token pair.
func (s *AuthResolver) AdminLogin(ctx context.Context, email, password string) (*Admin, *TokenPair, error) {
	admin, err := s.repo.Admins().GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventAdminLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": email,
			})
			return nil, nil, ErrIdentityNotFound
		}
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load admin account")
	}

	if err := ComparePasswordAndHash(password, admin.PasswordHash); err != nil {
		s.logger.Warn("AdminLogin credential mismatch for %s", email)
		s.emitAuthEvent(ctx, ActivityEventAdminLoginFailure, ActorRef{ID: admin.ID.String(), Type: string(KindAdmin)}, admin.ID.String(), map[string]any{
			"identifier": email,
		})
		return nil, nil, ErrMismatchedHashAndPassword
	}

	pair, err := s.tokens.IssuePair(KindAdmin, admin.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Admins().TrackSuccessfulLogin(ctx, admin); err != nil {
		s.logger.Warn("AdminLogin could not track login for %s: %v", admin.ID, err)
	}

	s.emitAuthEvent(ctx, ActivityEventAdminLoginSuccess, ActorRef{ID: admin.ID.String(), Type: string(KindAdmin)}, admin.ID.String(), nil)

	return admin, pair, nil
}

// UserLogin exchanges a verified Firebase ID token for the application's own
// token pair, creating the local account on first contact.
func (s *AuthResolver) UserLogin(ctx context.Context, idToken string) (*User, *TokenPair, error) {
	if s.firebase == nil {
		return nil, nil, goerrors.New("firebase verifier not configured", goerrors.CategoryInternal)
	}

	identity, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, nil, err
	}

	if !identity.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	user, err := s.getOrRegisterUser(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(KindUser, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("UserLogin could not track login for %s: %v", user.ID, err)
	}

	s.emitAuthEvent(ctx, ActivityEventUserLoginSuccess, ActorRef{ID: user.ID.String(), Type: string(KindUser)}, user.ID.String(), nil)

	return user, pair, nil
}

func (s *AuthResolver) getOrRegisterUser(ctx context.Context, identity *FirebaseIdentity) (*User, error) {
	user, err := s.repo.Users().GetByFirebaseUID(ctx, identity.UID)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user account")
	}

	record := &User{
		FirebaseUID: identity.UID,
		Name:        identity.Name,
		Email:       identity.Email,
	}

	// Deterministic id derived from the external identity so repeated
	// first-login races collapse on the unique constraint.
	if id, err := hashid.NewUUID(identity.UID); err == nil {
		record.ID = id
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().RegisterTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		record = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

// Refresh validates a refresh token and rotates the full pair. Expired
// refresh credentials surface as ErrRefreshTokenExpired so transports can
// emit the sub code clients key on.
func (s *AuthResolver) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	principal, err := s.loadPrincipal(ctx, claims)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(principal.Kind, principal.ID())
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, actorRef(principal), principal.ID().String(), nil)

	return pair, nil
}

// ResolveAccess validates an access token of the expected principal kind and
// loads the account behind it.
func (s *AuthResolver) ResolveAccess(ctx context.Context, tokenString string, expect PrincipalKind) (*Principal, error) {
	claims, err := s.tokens.Validate(tokenString, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	if claims.PrincipalType != expect {
		return nil, ErrTokenTypeMismatch
	}

	return s.loadPrincipal(ctx, claims)
}

// Resolve tries the admin credential first and falls back to the user one.
// Either may be empty; both failing yields the error of the last candidate
// or ErrUnauthenticated when no credential was present at all.
func (s *AuthResolver) Resolve(ctx context.Context, adminToken, userToken string) (*Principal, error) {
	var lastErr error

	if adminToken != "" {
		principal, err := s.ResolveAccess(ctx, adminToken, KindAdmin)
		if err == nil {
			return principal, nil
		}
		lastErr = err
	}

	if userToken != "" {
		principal, err := s.ResolveAccess(ctx, userToken, KindUser)
		if err == nil {
			return principal, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, ErrUnauthenticated
}

func (s *AuthResolver) loadPrincipal(ctx context.Context, claims *Claims) (*Principal, error) {
	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	switch claims.PrincipalType {
	case KindAdmin:
		admin, err := s.repo.Admins().GetByID(ctx, id.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, ErrIdentityNotFound
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load admin account")
		}
		return AdminPrincipal(admin), nil
	case KindUser:
		user, err := s.repo.Users().GetByID(ctx, id.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, ErrIdentityNotFound
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user account")
		}
		return UserPrincipal(user), nil
	}

	return nil, ErrTokenMalformed
}

func (s *AuthResolver) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, subjectID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		Metadata:  metadata,
	}

	if subjectID != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata["account_id"] = subjectID
	}

	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Warn("auth resolver activity sink error: %v", err)
	}
}
