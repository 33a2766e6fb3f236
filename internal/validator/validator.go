// Package validator checks interactively entered passwords by logging in
// with them, keeping a password only once the portal accepted it.
package validator

import (
	"context"
	"errors"
	"fmt"

	"teepee-scraper/internal/components/assert"
	"teepee-scraper/internal/components/telemetry"
	"teepee-scraper/internal/credentials"
	"teepee-scraper/internal/teepee"
)

const (
	report_validator_validate = "validator.validate"
	report_validator_rollback = "validator.rollback"
)

// MaxTries is how many rejected passwords are tolerated in one session.
const MaxTries = 3

var ErrTooManyTries = errors.New("too many tries")

type State int

const (
	AwaitingInput State = iota
	Validating
	Valid
	Invalid
	Fatal
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting input"
	case Validating:
		return "validating"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Loginer is implemented by teepee.Client.
type Loginer interface {
	Login(ctx context.Context, cred credentials.Credential) error
}

// Prompt asks for the next candidate password. previous is the reason the
// last candidate was rejected, nil on the first call.
type Prompt func(ctx context.Context, previous error) (string, error)

// Validator is not safe for concurrent use, every attempt blocks until its
// login round trip is over.
type Validator struct {
	cred     credentials.Credential
	client   Loginer
	tel      telemetry.API
	state    State
	failures int
	err      error
}

func New(cred credentials.Credential, client Loginer, tel telemetry.API) *Validator {
	assert.NotNil(client)
	assert.NotNil(tel)
	assert.NotEmptyStr(cred.Username())

	return &Validator{
		cred:   cred,
		client: client,
		tel:    telemetry.NewScopedAPI("password_validator", tel),
		state:  AwaitingInput,
	}
}

func (v *Validator) State() State {
	return v.state
}

// Remaining is the number of candidates that may still be rejected before
// the validator gives up.
func (v *Validator) Remaining() int {
	return MaxTries - v.failures
}

// Err returns the error that made the validator fatal.
func (v *Validator) Err() error {
	return v.err
}

func (v *Validator) fatal(err error) (State, error) {
	v.state = Fatal
	v.err = err
	return v.state, err
}

// Validate stores candidate as the credential's password and logs in with
// it. The password is kept only when the result is Valid.
//
// A rejected password leaves the validator Invalid, ready for the next
// candidate, until the MaxTries-th rejection which is Fatal with
// ErrTooManyTries. Any other failure is Fatal immediately and returned as is.
// Valid and Fatal are final: later calls return them again without logging
// in.
func (v *Validator) Validate(ctx context.Context, candidate string) (State, error) {
	switch v.state {
	case Valid:
		return v.state, nil
	case Fatal:
		return v.state, v.err
	}

	v.state = Validating
	err := v.cred.SetPassword(candidate)
	if err != nil {
		v.tel.ReportBroken(report_validator_validate, fmt.Errorf("store password: %w", err), v.cred.Username())
		return v.fatal(fmt.Errorf("store password: %w", err))
	}

	loginErr := v.client.Login(ctx, v.cred)
	if loginErr == nil {
		v.state = Valid
		v.err = nil
		return v.state, nil
	}

	err = v.cred.DeletePassword()
	if err != nil {
		v.tel.ReportBroken(report_validator_rollback, err, v.cred.Username())
		return v.fatal(errors.Join(loginErr, fmt.Errorf("remove rejected password: %w", err)))
	}

	if !errors.Is(loginErr, teepee.ErrAuthenticationFailed) {
		return v.fatal(loginErr)
	}

	v.failures++
	v.tel.ReportWarning(report_validator_validate, loginErr, v.cred.Username(), v.Remaining())
	if v.failures >= MaxTries {
		return v.fatal(fmt.Errorf("%w: %w", ErrTooManyTries, loginErr))
	}
	v.state = Invalid
	v.err = loginErr
	return v.state, loginErr
}

// Run prompts for passwords until one is accepted or the validator turns
// Fatal. A prompt error ends the loop and is returned.
func (v *Validator) Run(ctx context.Context, prompt Prompt) error {
	var previous error
	for {
		switch v.state {
		case Valid:
			return nil
		case Fatal:
			return v.err
		}
		v.state = AwaitingInput

		candidate, err := prompt(ctx, previous)
		if err != nil {
			return err
		}
		state, err := v.Validate(ctx, candidate)
		if state == Invalid {
			previous = err
		}
	}
}
