package client

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"voting-registrar/api"
	"voting-registrar/encryption"
	"voting-registrar/ledger"
	"voting-registrar/models"
	"voting-registrar/service"
	"voting-registrar/storage"
	"voting-registrar/voting"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	pair, err := voting.GenerateRegistrarKeyPair(20, rand.Reader)
	require.NoError(t, err)
	l, err := ledger.Open(context.Background(), storage.NewMemStore())
	require.NoError(t, err)
	reg, err := service.NewRegistrar(service.Config{Name: "client test"}, pair,
		storage.NewTokenStore(rand.Reader, nil), l, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(api.NewServer(reg, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", ts.Client())
}

type voter struct {
	entry, vote models.KeyPairJSON
}

func newVoter(t *testing.T) voter {
	t.Helper()
	entry, err := voting.GenerateEntryKeyPair(20, rand.Reader)
	require.NoError(t, err)
	vote, err := voting.GenerateVotingKeyPair(20, rand.Reader)
	require.NoError(t, err)
	return voter{entry: entry, vote: vote}
}

func (v voter) request(info string) service.RegistrationRequest {
	return service.RegistrationRequest{
		EntryPKey:  v.entry.PKey,
		VotingPKey: v.vote.PKey,
		VoterInfo:  json.RawMessage(info),
	}
}

// TestElection registers two voters, then casts and opens a vote with the
// keys the registrar published.
func TestElection(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	regKey, err := c.RegistrarKey(ctx)
	require.NoError(t, err)
	require.Equal(t, models.UseRegistrarPublic, regKey.Use)

	mainPair, err := voting.GenerateMainVotingKeyPair(20, rand.Reader)
	require.NoError(t, err)

	voters := []voter{newVoter(t), newVoter(t)}
	for i, v := range voters {
		token, err := c.MakeOneToken(ctx)
		require.NoError(t, err)
		info, err := c.Register(ctx, token, v.request(`{"name":"voter"}`))
		require.NoError(t, err)

		cert, err := voting.VerifyRegistrarSignatureAndOpen[models.RegistrationCert](info.RegistrationCert, regKey)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), cert.BallotNum)
		require.Equal(t, "client test", cert.Registrar)
	}

	nums, err := c.ListBallots(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, nums)

	load, found, err := c.GetBallot(ctx, 2)
	require.NoError(t, err)
	require.True(t, found)
	triplet, err := voting.VerifyRegistrarSignatureAndOpen[models.BallotTriplet](load, regKey)
	require.NoError(t, err)
	require.Equal(t, voters[1].vote.PKey, triplet.VotingPKey)

	// The second voter votes; the tally opens the vote with the published key.
	cipher, err := voting.EncryptVote(triplet.BallotNum, "yes", voters[1].vote.SKey, mainPair.PKey, rand.Reader)
	require.NoError(t, err)
	vote, err := voting.DecryptVote[string](triplet.BallotNum, cipher, triplet.VotingPKey, mainPair.SKey)
	require.NoError(t, err)
	require.Equal(t, "yes", vote)

	_, err = voting.DecryptVote[string](1, cipher, triplet.VotingPKey, mainPair.SKey)
	require.ErrorIs(t, err, encryption.ErrBallotNumberMismatch)

	status, err := c.LedgerStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, status.Length)
	require.True(t, status.IsValid)

	m, err := c.Metrics(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, m.Registration.Count)
	require.Equal(t, 2, m.Tokens.Count)

	m, err = c.ResetMetrics(ctx)
	require.NoError(t, err)
	require.Zero(t, m.Registration.Count)
}

func TestRegisterReusedToken(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	token, err := c.MakeOneToken(ctx)
	require.NoError(t, err)
	v := newVoter(t)
	_, err = c.Register(ctx, token, v.request(`{}`))
	require.NoError(t, err)

	_, err = c.Register(ctx, token, v.request(`{}`))
	require.ErrorIs(t, err, service.ErrNotAuthorized)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, se.Code)
}

func TestRegisterBadKey(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	token, err := c.MakeOneToken(ctx)
	require.NoError(t, err)
	v := newVoter(t)
	req := v.request(`{}`)
	req.EntryPKey = v.entry.SKey

	_, err = c.Register(ctx, token, req)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)

	// the token survives the rejected request
	_, err = c.Register(ctx, token, v.request(`{}`))
	require.NoError(t, err)
}

func TestGetMissingBallot(t *testing.T) {
	c := newClient(t)
	_, found, err := c.GetBallot(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, found)
}
