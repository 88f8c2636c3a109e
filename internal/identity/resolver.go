package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookie   = "bookstore_session"
	AnonymousCookie = "bookstore_anon"
)

type Mode string

const (
	ModeUser      Mode = "user"
	ModeAnonymous Mode = "anonymous"
)

type ResolverOptions struct {
	Mode          Mode
	Sessions      SessionStore
	Tokens        *AnonymousTokens
	CookieTTL     time.Duration
	SecureCookies bool
}

type Resolver struct {
	opts ResolverOptions
}

func NewResolver(opts ResolverOptions) (*Resolver, error) {
	switch opts.Mode {
	case ModeUser:
		if opts.Sessions == nil {
			return nil, errors.New("identity: user mode needs a session store")
		}
	case ModeAnonymous:
		if opts.Tokens == nil {
			return nil, errors.New("identity: anonymous mode needs a token signer")
		}
	default:
		return nil, fmt.Errorf("identity: unknown mode %q", opts.Mode)
	}
	return &Resolver{opts: opts}, nil
}

func (r *Resolver) Mode() Mode {
	return r.opts.Mode
}

// Resolve returns a context carrying the request identity. In user mode a missing
// or expired session leaves the context without one. In anonymous mode a fresh id
// is minted and its cookie written to w, so Resolve never leaves it empty.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) (context.Context, error) {
	ctx := req.Context()

	switch r.opts.Mode {
	case ModeUser:
		cookie, err := req.Cookie(SessionCookie)
		if err != nil {
			return ctx, nil
		}

		userID, err := r.opts.Sessions.Lookup(ctx, cookie.Value)
		if errors.Is(err, ErrSessionNotFound) {
			return ctx, nil
		}
		if err != nil {
			return ctx, fmt.Errorf("identity: failed to look up session: %w", err)
		}

		return WithIdentity(ctx, User(userID)), nil

	default:
		if cookie, err := req.Cookie(AnonymousCookie); err == nil {
			id, parseErr := r.opts.Tokens.Parse(cookie.Value)
			if parseErr == nil {
				return WithIdentity(ctx, Anonymous(id)), nil
			}
			log.Debug().Err(parseErr).Msg("identity: discarding invalid anonymous cookie")
		}

		id, err := uuid.NewV4()
		if err != nil {
			return ctx, fmt.Errorf("identity: failed to generate anonymous id: %w", err)
		}
		token, err := r.opts.Tokens.Issue(id)
		if err != nil {
			return ctx, err
		}
		http.SetCookie(w, r.cookie(AnonymousCookie, token))

		return WithIdentity(ctx, Anonymous(id)), nil
	}
}

// StartSession stores a session for the user and sets its cookie. A session the
// request already carries is revoked first.
func (r *Resolver) StartSession(w http.ResponseWriter, req *http.Request, userID uuid.UUID) error {
	if r.opts.Mode != ModeUser {
		return fmt.Errorf("identity: sessions are not used in %s mode", r.opts.Mode)
	}

	ctx := req.Context()
	if cookie, err := req.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := r.opts.Sessions.Delete(ctx, cookie.Value); err != nil {
			return err
		}
	}

	token, err := r.opts.Sessions.Create(ctx, userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, r.cookie(SessionCookie, token))
	return nil
}

// EndSession deletes the server-side session, if any, and expires the cookie.
func (r *Resolver) EndSession(w http.ResponseWriter, req *http.Request) error {
	cookie, err := req.Cookie(SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := r.opts.Sessions.Delete(req.Context(), cookie.Value); err != nil {
			return err
		}
	}

	expired := r.cookie(SessionCookie, "")
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	return nil
}

func (r *Resolver) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(r.opts.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
