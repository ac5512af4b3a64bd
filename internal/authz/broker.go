// Package authz assembles the three credential types a Selling Partner
// API call needs: the platform's own infrastructure identity, the
// application's LWA identity, and - for calls made on a seller's behalf -
// that seller's refresh token.
//
// The broker performs no network call against the API itself; it produces
// a fully populated session descriptor for the external authentication
// layer to consume. Identities are fetched fresh from the secret store on
// every BuildSession call because either secret may rotate between
// invocations.
package authz

import (
	"context"
	"encoding/json"

	"spapi-bridge/internal/common/errors"
	"spapi-bridge/internal/regions"
	"spapi-bridge/internal/secrets"
	"spapi-bridge/internal/spapi"
)

// Mode selects how a session is authorized
type Mode uint8

const (
	// ModeGrantless authorizes with the application's own identity and a
	// fixed scope set, not any seller's delegation
	ModeGrantless Mode = iota + 1
	// ModeAuthorized authorizes on behalf of a specific seller via that
	// seller's refresh token
	ModeAuthorized
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeGrantless:
		return "grantless"
	case ModeAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// AppIdentity is the LWA application identity, fetched per invocation
type AppIdentity struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// InfraIdentity is the platform's own cloud identity used against the
// API's infrastructure-auth layer
type InfraIdentity struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretKey       string `json:"secretKey"`
	AssumeRoleARN   string `json:"-"`
	RoleSessionName string `json:"-"`
}

// Session is the ephemeral descriptor handed to the external API's
// authentication layer. It is built fresh per call, never persisted, and
// carries exactly one of Scopes or RefreshToken.
type Session struct {
	Endpoint    string
	CloudRegion string
	LWAEndpoint string
	Infra       InfraIdentity
	App         AppIdentity
	Mode        Mode

	// Scopes is set only for grantless sessions
	Scopes []string
	// RefreshToken is set only for authorized sessions
	RefreshToken string
}

// TokenSource yields a seller's refresh token (the credential vault)
type TokenSource interface {
	Get(ctx context.Context, sellerID string) (string, error)
}

// Options configures a Broker
type Options struct {
	AppCredentialsSecretID     string
	IAMUserCredentialsSecretID string
	RoleARN                    string
	RoleSessionName            string
}

// Broker composes identities into ready-to-use API sessions
type Broker struct {
	secrets secrets.Store
	tokens  TokenSource
	opts    Options
}

// New creates a Broker
func New(store secrets.Store, tokens TokenSource, opts Options) *Broker {
	return &Broker{secrets: store, tokens: tokens, opts: opts}
}

// BuildSession resolves the region, fetches both identities fresh, and
// attaches either the grantless scope set or the seller's refresh token.
// Any lookup failure aborts construction; a partial session is never
// returned.
func (b *Broker) BuildSession(ctx context.Context, regionCode, sellerID string, mode Mode) (*Session, error) {
	region, err := regions.Resolve(regionCode)
	if err != nil {
		return nil, err
	}

	if mode != ModeGrantless && mode != ModeAuthorized {
		return nil, errors.InvalidArgumentError("unknown authorization mode")
	}
	if mode == ModeAuthorized && sellerID == "" {
		return nil, errors.InvalidArgumentError("sellerID is required for authorized sessions")
	}

	infra, err := b.fetchInfraIdentity(ctx)
	if err != nil {
		return nil, err
	}

	app, err := b.fetchAppIdentity(ctx)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Endpoint:    region.Endpoint,
		CloudRegion: region.CloudRegion,
		LWAEndpoint: spapi.LWAEndpoint,
		Infra:       infra,
		App:         app,
		Mode:        mode,
	}

	switch mode {
	case ModeGrantless:
		session.Scopes = []string{spapi.ScopeNotifications}
	case ModeAuthorized:
		token, err := b.tokens.Get(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		session.RefreshToken = token
	}

	return session, nil
}

// fetchInfraIdentity reads and decodes the IAM user credential secret
func (b *Broker) fetchInfraIdentity(ctx context.Context) (InfraIdentity, error) {
	raw, err := b.secrets.GetSecret(ctx, b.opts.IAMUserCredentialsSecretID)
	if err != nil {
		return InfraIdentity{}, err
	}

	var infra InfraIdentity
	if err := json.Unmarshal([]byte(raw), &infra); err != nil {
		return InfraIdentity{}, errors.UpstreamError("decoding IAM user credentials failed", err)
	}
	if infra.AccessKeyID == "" || infra.SecretKey == "" {
		return InfraIdentity{}, errors.UpstreamError("IAM user credential secret is incomplete", nil)
	}

	infra.AssumeRoleARN = b.opts.RoleARN
	infra.RoleSessionName = b.opts.RoleSessionName
	return infra, nil
}

// fetchAppIdentity reads and decodes the LWA application credential secret
func (b *Broker) fetchAppIdentity(ctx context.Context) (AppIdentity, error) {
	raw, err := b.secrets.GetSecret(ctx, b.opts.AppCredentialsSecretID)
	if err != nil {
		return AppIdentity{}, err
	}

	var app AppIdentity
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return AppIdentity{}, errors.UpstreamError("decoding app credentials failed", err)
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return AppIdentity{}, errors.UpstreamError("app credential secret is incomplete", nil)
	}

	return app, nil
}

// Wipe overwrites the session's secret material. Callers should defer
// this once the authentication layer no longer needs the session.
func (s *Session) Wipe() {
	s.App.ClientSecret = ""
	s.Infra.SecretKey = ""
	s.RefreshToken = ""
}
