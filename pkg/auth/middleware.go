package auth

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/sirupsen/logrus"
)

// Trusted headers set by the gateway after token verification.
const (
	HeaderUserID          = "X-User-Id"
	HeaderUserRole        = "X-User-Role"
	HeaderCityCorporation = "X-City-Corporation"
	HeaderZoneID          = "X-Zone-Id"
	HeaderWardID          = "X-Ward-Id"
)

// Authenticator builds an Identity from gateway headers
type Authenticator struct {
	log logrus.FieldLogger
}

// NewAuthenticator creates a new authentication middleware
func NewAuthenticator(log logrus.FieldLogger) *Authenticator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Authenticator{log: log}
}

// Handler wraps an HTTP handler with authentication
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromHeaders(r.Header)
		if err != nil {
			a.log.WithError(err).WithField("path", r.URL.Path).Debug("rejecting unauthenticated request")
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func identityFromHeaders(h http.Header) (*Identity, error) {
	rawID := h.Get(HeaderUserID)
	if rawID == "" {
		return nil, errMissingIdentity
	}
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, err
	}
	role, err := ParseRole(h.Get(HeaderUserRole))
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		UserID:              userID,
		Role:                role,
		CityCorporationCode: h.Get(HeaderCityCorporation),
	}
	if identity.ZoneID, err = optionalInt64(h.Get(HeaderZoneID)); err != nil {
		return nil, err
	}
	if identity.WardID, err = optionalInt64(h.Get(HeaderWardID)); err != nil {
		return nil, err
	}
	return identity, nil
}

func optionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var errMissingIdentity = errors.New("missing identity header")
