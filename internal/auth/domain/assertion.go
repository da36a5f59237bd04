package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedAssertion reports an upstream identity assertion whose shape
// could not be decoded. The orchestrator turns this into an unauthenticated
// result, never a crash.
var ErrMalformedAssertion = errors.New("malformed identity assertion")

// Identity is what we actually need out of an upstream SSO assertion. The
// assertion itself is already validated by the identity provider layer.
type Identity struct {
	Subject      string
	Authorities  []string
	SessionIndex string
}

// Assertion is an opaque, already-verified identity assertion from the
// upstream SSO layer. The single capability is typed extraction: it either
// yields an Identity or fails with a wrapped ErrMalformedAssertion.
type Assertion interface {
	Extract() (Identity, error)
}

// StaticAssertion is an assertion whose fields are already decoded. Used by
// in-process callers and tests.
type StaticAssertion struct {
	Subject      string
	Authorities  []string
	SessionIndex string
}

func (a StaticAssertion) Extract() (Identity, error) {
	if a.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrMalformedAssertion)
	}
	return Identity{
		Subject:      a.Subject,
		Authorities:  a.Authorities,
		SessionIndex: a.SessionIndex,
	}, nil
}

// MapAssertion is the loosely-typed shape the HTTP adapter receives from the
// SSO gateway: a JSON object with "principal", "authorities" and an optional
// "session_index". Extraction type-checks every field and never panics.
type MapAssertion map[string]any

func (a MapAssertion) Extract() (Identity, error) {
	if a == nil {
		return Identity{}, fmt.Errorf("%w: empty assertion", ErrMalformedAssertion)
	}

	subject, ok := a["principal"].(string)
	if !ok || subject == "" {
		return Identity{}, fmt.Errorf("%w: missing or non-string principal", ErrMalformedAssertion)
	}

	var authorities []string
	switch raw := a["authorities"].(type) {
	case nil:
		// No authorities is a valid, if useless, assertion.
	case []string:
		authorities = raw
	case []any:
		for _, v := range raw {
			s, ok := v.(string)
			if !ok {
				return Identity{}, fmt.Errorf("%w: non-string authority %v", ErrMalformedAssertion, v)
			}
			authorities = append(authorities, s)
		}
	default:
		return Identity{}, fmt.Errorf("%w: authorities is not a list", ErrMalformedAssertion)
	}

	sessionIndex := ""
	if raw, present := a["session_index"]; present {
		s, ok := raw.(string)
		if !ok {
			return Identity{}, fmt.Errorf("%w: non-string session_index", ErrMalformedAssertion)
		}
		sessionIndex = s
	}

	return Identity{
		Subject:      subject,
		Authorities:  authorities,
		SessionIndex: sessionIndex,
	}, nil
}
