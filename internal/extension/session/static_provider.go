package session

import (
	"context"
	"errors"
)

// StaticProvider wraps a token obtained out of band (for example pasted from
// the web sign-in flow). It cannot refresh; a forced refresh hands back the
// same token.
type StaticProvider struct {
	creds Credentials
}

func NewStaticProvider(creds Credentials) *StaticProvider {
	return &StaticProvider{creds: creds}
}

func (p *StaticProvider) SignIn(ctx context.Context) (*Credentials, error) {
	if p.creds.IDToken == "" {
		return nil, errors.New("no token supplied")
	}
	c := p.creds
	return &c, nil
}

func (p *StaticProvider) Refresh(ctx context.Context, current *Credentials) (*Credentials, error) {
	c := p.creds
	return &c, nil
}

func (p *StaticProvider) SignOut(ctx context.Context) error {
	return nil
}

var _ Provider = (*StaticProvider)(nil)
