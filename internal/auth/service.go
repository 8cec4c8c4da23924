package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storedash-backend/internal/stores"
	"github.com/angelmondragon/storedash-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storedash-backend/pkg/auth"
	"github.com/angelmondragon/storedash-backend/pkg/auth/session"
	"github.com/angelmondragon/storedash-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"github.com/angelmondragon/storedash-backend/pkg/metrics"
	"github.com/angelmondragon/storedash-backend/pkg/oauth/google"
	"github.com/angelmondragon/storedash-backend/pkg/security"
	"github.com/angelmondragon/storedash-backend/pkg/validation"
	redislib "github.com/redis/go-redis/v9"
)

const (
	stateBytes = 24

	invalidStateMessage = "invalid or expired sign-in state"
)

// Service defines the sign-in behaviour needed by the auth controller.
type Service interface {
	BeginSignIn(ctx context.Context) (*BeginSignInResponse, error)
	CompleteSignIn(ctx context.Context, req CompleteSignInRequest) (*SignInResponse, error)
}

type identityProvider interface {
	AuthURL(ctx context.Context, state, nonce string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*google.TokenResponse, error)
	VerifyIDToken(ctx context.Context, idToken, expectedNonce string) (*google.IDClaims, error)
}

type stateStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, error)
	OAuthStateKey(state string) string
}

type provisioner interface {
	Provision(ctx context.Context, profile Profile) (*ProvisionResult, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type signInMetrics interface {
	IncSignIn(result string)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Provider       identityProvider
	States         stateStore
	Provisioner    provisioner
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	StateTTL       time.Duration
	Metrics        signInMetrics
	Logger         *logger.Logger
}

type service struct {
	provider    identityProvider
	states      stateStore
	provisioner provisioner
	session     sessionManager
	jwtCfg      config.JWTConfig
	stateTTL    time.Duration
	metrics     signInMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs a sign-in service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if params.States == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if params.Provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.StateTTL <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}
	return &service{
		provider:    params.Provider,
		states:      params.States,
		provisioner: params.Provisioner,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		stateTTL:    params.StateTTL,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) BeginSignIn(ctx context.Context) (*BeginSignInResponse, error) {
	state, err := security.RandomToken(stateBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate state")
	}
	nonce, err := security.RandomToken(stateBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate nonce")
	}

	stored, err := s.states.SetNX(ctx, s.states.OAuthStateKey(state), nonce, s.stateTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store sign-in state")
	}
	if !stored {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sign-in state collision")
	}

	authURL, err := s.provider.AuthURL(ctx, state, nonce)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build authorization url")
	}
	return &BeginSignInResponse{AuthURL: authURL, State: state}, nil
}

func (s *service) CompleteSignIn(ctx context.Context, req CompleteSignInRequest) (*SignInResponse, error) {
	resp, err := s.completeSignIn(ctx, req)
	if s.metrics != nil {
		if err != nil {
			s.metrics.IncSignIn(metrics.SignInFailure)
		} else {
			s.metrics.IncSignIn(metrics.SignInSuccess)
		}
	}
	return resp, err
}

func (s *service) completeSignIn(ctx context.Context, req CompleteSignInRequest) (*SignInResponse, error) {
	req.State = strings.TrimSpace(req.State)
	req.Code = strings.TrimSpace(req.Code)
	if verr := validation.Struct(req); verr != nil {
		return nil, verr
	}

	nonce, err := s.states.GetDel(ctx, s.states.OAuthStateKey(req.State))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidStateMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume sign-in state")
	}

	tokens, err := s.provider.ExchangeCode(ctx, req.Code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "exchange authorization code")
	}
	claims, err := s.provider.VerifyIDToken(ctx, tokens.IDToken, nonce)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid id token")
	}
	if strings.TrimSpace(claims.Email) == "" || !claims.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "email not verified")
	}

	result, err := s.provisioner.Provision(ctx, Profile{
		Email: claims.Email,
		Name:  claims.Name,
		Image: claims.Picture,
	})
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID:  result.User.ID,
		Email:   result.User.Email,
		StoreID: result.User.StoreID,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":     result.User.ID.String(),
		"store_id":    result.Store.ID.String(),
		"first_login": result.Created,
	})
	s.logg.Info(logCtx, "auth.signin.completed")

	return &SignInResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(result.User),
		Store:        stores.FromModel(result.Store),
		FirstLogin:   result.Created,
	}, nil
}
