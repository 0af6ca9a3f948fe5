package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voting-registrar/encryption"
	"voting-registrar/ledger"
	"voting-registrar/models"
	"voting-registrar/storage"
	"voting-registrar/voting"
)

// ErrNotAuthorized is the rejection for an unknown, expired or reused
// admission token.
var ErrNotAuthorized = errors.New("not authorized")

// FaultError reports a broken ledger invariant. It is never expected in
// correct operation and the registration that hit it is abandoned.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("registrar fault during %s: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// TokenStore admits registrations.
type TokenStore interface {
	Issue(ctx context.Context, ttl time.Duration, length int) (storage.AdmissionToken, error)
	Consume(ctx context.Context, token string) (bool, error)
}

// BallotLedger numbers and publishes ballot triplets.
type BallotLedger interface {
	NextNumber(ctx context.Context) (uint64, error)
	Put(ctx context.Context, n uint64, triplet models.SignedLoad) error
	Get(ctx context.Context, n uint64) (models.SignedLoad, bool, error)
	List(ctx context.Context) ([]uint64, error)
}

type statusReporter interface {
	Status() ledger.Status
}

type Config struct {
	Name        string
	TokenTTL    time.Duration
	TokenLength int
}

type Registrar struct {
	cfg       Config
	tokens    TokenStore
	ledger    BallotLedger
	signKey   models.Key
	publicKey models.JSONKey
	metrics   *MetricsCollector
	logger    zerolog.Logger
	now       func() time.Time
}

// RegistrationRequest is what a voter sends to register.
type RegistrationRequest struct {
	EntryPKey  models.JSONKey  `json:"entry_pkey"`
	VotingPKey models.JSONKey  `json:"voting_pkey"`
	VoterInfo  json.RawMessage `json:"voter_info"`
}

// Registration is a completed registration: the certificate and both
// signed artifacts.
type Registration struct {
	Cert   models.RegistrationCert
	Signed voting.SignedBallotInfo
}

// NewRegistrar checks that keyPair is a registrar key pair whose halves
// carry the same key id.
func NewRegistrar(cfg Config, keyPair models.KeyPairJSON, tokens TokenStore, ballots BallotLedger, logger zerolog.Logger) (*Registrar, error) {
	signKey, err := voting.SignKeyFrom(keyPair)
	if err != nil {
		return nil, fmt.Errorf("invalid registrar secret key: %w", err)
	}
	if _, err := encryption.ParsePublicKey(keyPair.PKey, models.RoleRegistrar); err != nil {
		return nil, fmt.Errorf("invalid registrar public key: %w", err)
	}
	if keyPair.PKey.Kid != signKey.Kid {
		return nil, fmt.Errorf("%w: registrar keys have kids %s and %s",
			encryption.ErrKeyIdentityMismatch, keyPair.PKey.Kid, signKey.Kid)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = 30
	}
	return &Registrar{
		cfg:       cfg,
		tokens:    tokens,
		ledger:    ballots,
		signKey:   signKey,
		publicKey: keyPair.PKey,
		metrics:   NewMetricsCollector(),
		logger:    logger.With().Str("component", "registrar").Logger(),
		now:       time.Now,
	}, nil
}

// RegistrarKey returns the public key that verifies everything this
// registrar signs.
func (r *Registrar) RegistrarKey() models.JSONKey {
	return r.publicKey
}

// MakeRegistrationOTT issues a fresh admission token.
func (r *Registrar) MakeRegistrationOTT(ctx context.Context) (storage.AdmissionToken, error) {
	tok, err := r.tokens.Issue(ctx, r.cfg.TokenTTL, r.cfg.TokenLength)
	if err != nil {
		return storage.AdmissionToken{}, fmt.Errorf("failed to issue admission token: %w", err)
	}
	r.metrics.RecordTokenIssued()
	r.logger.Debug().Int64("expiry", tok.Expiry).Msg("admission token issued")
	return tok, nil
}

// Register runs one registration. Keys are checked before the token is
// consumed; once the token is consumed, a failure leaves the assigned
// ballot number unused.
func (r *Registrar) Register(ctx context.Context, token string, req RegistrationRequest) (*Registration, error) {
	start := r.now()

	// 1. Validate the voter's keys
	if _, err := encryption.ParsePublicKey(req.EntryPKey, models.RoleEntry); err != nil {
		r.reject(err, "invalid entry key")
		return nil, fmt.Errorf("invalid entry key: %w", err)
	}
	if _, err := encryption.ParsePublicKey(req.VotingPKey, models.RoleVoting); err != nil {
		r.reject(err, "invalid voting key")
		return nil, fmt.Errorf("invalid voting key: %w", err)
	}
	voterInfo := json.RawMessage("null")
	if len(req.VoterInfo) > 0 {
		// the cert carries the bytes that get signed
		var compact bytes.Buffer
		if err := json.Compact(&compact, req.VoterInfo); err != nil {
			r.reject(encryption.ErrMalformedPayload, "invalid voter info")
			return nil, fmt.Errorf("%w: voter info is not JSON: %v", encryption.ErrMalformedPayload, err)
		}
		voterInfo = compact.Bytes()
	}

	// 2. Admission gate
	admitted, err := r.tokens.Consume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check admission token: %w", err)
	}
	if !admitted {
		r.reject(ErrNotAuthorized, "admission token rejected")
		return nil, ErrNotAuthorized
	}

	// 3. Numbering
	ballotNum, err := r.ledger.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assign ballot number: %w", err)
	}

	// 4. Assembly and signing
	cert := models.RegistrationCert{
		BallotNum:    ballotNum,
		EntryPKey:    req.EntryPKey,
		VotingPKey:   req.VotingPKey,
		VoterInfo:    voterInfo,
		Registrar:    r.cfg.Name,
		RegisteredAt: r.now().Unix(),
	}
	signed, err := voting.SignBallotInfo(&cert, r.signKey)
	if err != nil {
		return nil, r.fault("signing", ballotNum, err)
	}

	// 5. Publication
	if err := r.ledger.Put(ctx, ballotNum, signed.BallotTriplet); err != nil {
		if errors.Is(err, ledger.ErrDuplicateBallotNumber) || errors.Is(err, ledger.ErrUnassignedBallotNumber) {
			return nil, r.fault("publication", ballotNum, err)
		}
		return nil, fmt.Errorf("failed to publish ballot %d: %w", ballotNum, err)
	}

	r.metrics.RecordRegistration(r.now().Sub(start))
	r.logger.Info().Uint64("ballot_num", ballotNum).Msg("voter registered")
	return &Registration{Cert: cert, Signed: signed}, nil
}

func (r *Registrar) reject(err error, msg string) {
	r.metrics.RecordRejection()
	r.logger.Warn().Err(err).Msg(msg)
}

func (r *Registrar) fault(op string, ballotNum uint64, err error) error {
	r.metrics.RecordFault()
	r.logger.Error().Err(err).Uint64("ballot_num", ballotNum).Str("op", op).Msg("registration aborted")
	return &FaultError{Op: op, Err: err}
}

// GetBallot returns the published signed triplet of ballot n.
func (r *Registrar) GetBallot(ctx context.Context, n uint64) (models.SignedLoad, bool, error) {
	return r.ledger.Get(ctx, n)
}

func (r *Registrar) ListBallots(ctx context.Context) ([]uint64, error) {
	return r.ledger.List(ctx)
}

func (r *Registrar) Metrics() MetricsResponse {
	return r.metrics.GetMetrics()
}

// ResetMetrics zeroes all counters and timings.
func (r *Registrar) ResetMetrics() {
	r.metrics.Reset()
	r.logger.Info().Msg("metrics reset")
}

// LedgerStatus reports the chain status when the ledger can provide one.
func (r *Registrar) LedgerStatus() (ledger.Status, bool) {
	sr, ok := r.ledger.(statusReporter)
	if !ok {
		return ledger.Status{}, false
	}
	return sr.Status(), true
}
