package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-blog-api/internal/model"
	"go-blog-api/pkg/apierror"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	usernameMaxLength = 150
	emailMaxLength    = 254
	// bcrypt ignores everything past 72 bytes.
	passwordMaxBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type AuthService struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	users      UserStore
	blacklist  TokenBlacklist
	now        func() time.Time
	// dummyHash keeps failed logins for unknown users as slow as a wrong
	// password for a known one.
	dummyHash []byte
}

func NewAuthService(jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration, bcryptCost int, users UserStore, blacklist TokenBlacklist) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if users == nil || blacklist == nil {
		return nil, errors.New("user store and token blacklist are required")
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}

	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
		users:      users,
		blacklist:  blacklist,
		now:        time.Now,
		dummyHash:  dummyHash,
	}, nil
}

// Register creates a regular user. Registration can never grant admin.
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (model.User, error) {
	return s.CreateUser(ctx, username, email, password, model.RoleUser)
}

// CreateUser is the privileged creation path; it is not reachable over HTTP.
func (s *AuthService) CreateUser(ctx context.Context, username string, email string, password string, role string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fields := map[string]string{}
	if reason := usernameProblem(username); reason != "" {
		fields["username"] = reason
	}
	if reason := emailProblem(email); reason != "" {
		fields["email"] = reason
	}
	if reason := passwordProblem(password); reason != "" {
		fields["password"] = reason
	}
	if !model.ValidRole(role) {
		fields["role"] = "must be user or admin"
	}
	if len(fields) > 0 {
		return model.User{}, apierror.Validation("invalid registration", fields)
	}

	if exists, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return model.User{}, err
	} else if exists {
		fields["username"] = "a user with that username already exists"
	}
	if exists, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return model.User{}, err
	} else if exists {
		fields["email"] = "a user with that email already exists"
	}
	if len(fields) > 0 {
		return model.User{}, apierror.Validation("invalid registration", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		return model.User{}, uniquenessError(err)
	}

	authEvents.WithLabelValues("register", "success").Inc()
	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates by username, or by email when username is empty.
func (s *AuthService) Login(ctx context.Context, username string, email string, password string) (model.TokenPair, error) {
	pair, err := s.login(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password)
	authEvents.WithLabelValues("login", outcome(err)).Inc()
	return pair, err
}

func (s *AuthService) login(ctx context.Context, username string, email string, password string) (model.TokenPair, error) {
	if (username == "" && email == "") || password == "" {
		fields := map[string]string{}
		if username == "" && email == "" {
			fields["username"] = "this field is required"
		}
		if password == "" {
			fields["password"] = "this field is required"
		}
		return model.TokenPair{}, apierror.Validation("invalid login request", fields)
	}

	var (
		user model.User
		err  error
	)
	if username != "" {
		user, err = s.users.FindByUsername(ctx, username)
	} else {
		user, err = s.users.FindByEmail(ctx, email)
	}
	if errors.Is(err, model.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return model.TokenPair{}, apierror.Authentication()
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, apierror.Authentication()
	}

	return s.issueTokenPair(user)
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.AccessToken, error) {
	token, err := s.refresh(ctx, refreshToken)
	authEvents.WithLabelValues("refresh", outcome(err)).Inc()
	return token, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (model.AccessToken, error) {
	claims, err := s.ValidateToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return model.AccessToken{}, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return model.AccessToken{}, err
	}
	if revoked {
		return model.AccessToken{}, apierror.Token("token is blacklisted")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AccessToken{}, apierror.Token("user no longer exists")
	}
	if err != nil {
		return model.AccessToken{}, err
	}

	access, err := s.signToken(user, tokenTypeAccess, s.now().UTC(), s.accessTTL)
	if err != nil {
		return model.AccessToken{}, err
	}

	return model.AccessToken{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout blacklists the refresh token until it would have expired anyway.
// Revoked or expired tokens are accepted; only tokens that cannot be parsed
// or were not signed by us fail.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.logout(ctx, refreshToken)
	authEvents.WithLabelValues("logout", outcome(err)).Inc()
	return err
}

func (s *AuthService) logout(ctx context.Context, refreshToken string) error {
	claims, expiresAt, err := s.parseToken(refreshToken, tokenTypeRefresh, jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	return s.blacklist.Revoke(ctx, claims.TokenID, ttl)
}

// ValidateToken verifies signature, expiry and type of a token.
func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	claims, _, err := s.parseToken(tokenString, expectedType, jwt.WithExpirationRequired())
	return claims, err
}

func (s *AuthService) parseToken(tokenString string, expectedType string, opts ...jwt.ParserOption) (*model.AuthClaims, time.Time, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	parsed, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, time.Time{}, apierror.Token("token has expired")
		}
		return nil, time.Time{}, apierror.Token("token is invalid")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, time.Time{}, apierror.Token("invalid token claims")
	}

	claims := &model.AuthClaims{}
	claims.Type, _ = claimsMap["typ"].(string)
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if expectedType != "" && claims.Type != expectedType {
		return nil, time.Time{}, apierror.Token("invalid token type")
	}
	if claims.UserID == "" || claims.TokenID == "" {
		return nil, time.Time{}, apierror.Token("invalid token subject")
	}

	exp, err := claimsMap.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, time.Time{}, apierror.Token("invalid token expiry")
	}

	return claims, exp.Time, nil
}

func (s *AuthService) issueTokenPair(user model.User) (model.TokenPair, error) {
	now := s.now().UTC()

	accessToken, err := s.signToken(user, tokenTypeAccess, now, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(user, tokenTypeRefresh, now, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.Summary(),
	}, nil
}

func (s *AuthService) signToken(user model.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      tokenType,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func usernameProblem(username string) string {
	switch {
	case username == "":
		return "this field is required"
	case len(username) > usernameMaxLength:
		return fmt.Sprintf("must be at most %d characters", usernameMaxLength)
	case !usernamePattern.MatchString(username):
		return "may contain only letters, numbers and @/./+/-/_ characters"
	default:
		return ""
	}
}

func emailProblem(email string) string {
	if email == "" {
		return "this field is required"
	}
	if len(email) > emailMaxLength {
		return fmt.Sprintf("must be at most %d characters", emailMaxLength)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "enter a valid email address"
	}
	return ""
}

func passwordProblem(password string) string {
	switch {
	case password == "":
		return "this field is required"
	case len(password) > passwordMaxBytes:
		return fmt.Sprintf("must be at most %d bytes", passwordMaxBytes)
	default:
		return ""
	}
}

func uniquenessError(err error) error {
	switch {
	case errors.Is(err, model.ErrUsernameTaken):
		return apierror.FieldError("username", "a user with that username already exists")
	case errors.Is(err, model.ErrEmailTaken):
		return apierror.FieldError("email", "a user with that email already exists")
	default:
		return err
	}
}

func requireActor(actor model.Actor) error {
	if actor.Anonymous() {
		return apierror.Token("authentication required")
	}
	return nil
}
