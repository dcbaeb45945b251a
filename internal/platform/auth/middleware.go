package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/internal/platform/apperr"
)

// Claims carried by access tokens. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
	// Skipper bypasses authentication for public paths.
	Skipper func(echo.Context) bool
}

// JWTMiddleware validates HS256 bearer tokens and puts the resolved Actor
// on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperr.Unauthenticated("Not authorized, no token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.Unauthenticated("invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apperr.Unauthenticated("Token has expired")
				}
				return apperr.Unauthenticated("Invalid token")
			}

			actor, aerr := actorFromClaims(claims)
			if aerr != nil {
				return aerr
			}

			c.SetRequest(c.Request().WithContext(WithActor(c.Request().Context(), actor)))
			return next(c)
		}
	}
}

func actorFromClaims(claims *Claims) (Actor, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, apperr.Unauthenticated("Invalid token subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Actor{}, apperr.Unauthenticated("Invalid token role")
	}
	return Actor{ID: id, Role: role}, nil
}

const (
	DevUserIDHeader = "X-Dev-User-ID"
	DevRoleHeader   = "X-Dev-Role"
)

// DevAuthMiddleware is a permissive middleware for development. The actor is
// taken from the X-Dev-User-ID and X-Dev-Role headers; requests without them
// run as a fixed admin. A bearer token, when present, is still validated.
func DevAuthMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	jwtMW := JWTMiddleware(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		validated := jwtMW(next)
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(echo.HeaderAuthorization) != "" {
				return validated(c)
			}

			actor := Actor{ID: devUserID, Role: RoleAdmin}
			if v := req.Header.Get(DevUserIDHeader); v != "" {
				id, err := uuid.Parse(v)
				if err != nil {
					return apperr.Unauthenticated("invalid " + DevUserIDHeader)
				}
				actor.ID = id
			}
			if v := req.Header.Get(DevRoleHeader); v != "" {
				role, err := ParseRole(v)
				if err != nil {
					return apperr.Unauthenticated("invalid " + DevRoleHeader)
				}
				actor.Role = role
			}

			c.SetRequest(req.WithContext(WithActor(req.Context(), actor)))
			return next(c)
		}
	}
}

var devUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// IssueToken signs an access token for actor. Token issuance belongs to the
// identity service; this exists for tooling and tests.
func IssueToken(cfg JWTConfig, actor Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = actor.ID.String()
	if cfg.Issuer != "" {
		claims.Issuer = cfg.Issuer
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims, Role: string(actor.Role)})
	return token.SignedString(cfg.SigningKey)
}
