package primus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testAppKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func sampleAttestation(t *testing.T) (*Attestation, string) {
	t.Helper()

	attestorKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	attestorAddr := ethcrypto.PubkeyToAddress(attestorKey.PublicKey)

	att := &Attestation{
		Recipient: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Request: NetworkRequest{
			URL:    "https://x.com/i/api/graphql/TweetDetail",
			Method: "GET",
		},
		ResponseResolve: []ResponseResolve{
			{KeyName: "favorited", ParseType: "string", ParsePath: "$.data.favorited"},
		},
		Data:      `{"favorited":"true"}`,
		Timestamp: time.Now().UnixMilli(),
	}

	digest, err := digestOf(attestationBody{
		Recipient:       att.Recipient,
		Request:         att.Request,
		ResponseResolve: att.ResponseResolve,
		Data:            att.Data,
		AttConditions:   att.AttConditions,
		Timestamp:       att.Timestamp,
		AdditionParams:  att.AdditionParams,
	})
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(digest, attestorKey)
	require.NoError(t, err)
	att.Signatures = []string{hexutil.Encode(signature)}

	return att, attestorAddr.Hex()
}

func Test_Client_Sign(t *testing.T) {
	client, err := NewClient("app-1", testAppKey, nil)
	require.NoError(t, err)

	req := &SignRequest{
		AttTemplateID: "tweet-like",
		UserAddress:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Timestamp:     time.Now().UnixMilli(),
	}

	hexSig, err := client.Sign(req)
	require.NoError(t, err)
	require.Equal(t, "app-1", req.AppID)

	// The signature must recover to the app signer address.
	digest, err := digestOf(req)
	require.NoError(t, err)
	signature, err := hexutil.Decode(hexSig)
	require.NoError(t, err)
	pub, err := ethcrypto.SigToPub(digest, signature)
	require.NoError(t, err)
	require.Equal(t, client.SignerAddress(), ethcrypto.PubkeyToAddress(*pub))
}

func Test_Client_VerifyAttestation(t *testing.T) {
	att, attestorAddr := sampleAttestation(t)

	client, err := NewClient("app-1", testAppKey, []string{attestorAddr})
	require.NoError(t, err)

	recipient, err := client.VerifyAttestation(att)
	require.NoError(t, err)
	require.Equal(t, att.Recipient, recipient.Hex())
}

func Test_Client_VerifyAttestation_UnknownAttestor(t *testing.T) {
	att, _ := sampleAttestation(t)

	client, err := NewClient("app-1", testAppKey,
		[]string{"0x0000000000000000000000000000000000000001"})
	require.NoError(t, err)

	_, err = client.VerifyAttestation(att)
	require.Error(t, err)
}

func Test_Client_VerifyAttestation_TamperedData(t *testing.T) {
	att, attestorAddr := sampleAttestation(t)
	att.Data = `{"favorited":"false"}`

	client, err := NewClient("app-1", testAppKey, []string{attestorAddr})
	require.NoError(t, err)

	_, err = client.VerifyAttestation(att)
	require.Error(t, err)
}

func Test_Client_VerifyAttestation_NoSignature(t *testing.T) {
	att, attestorAddr := sampleAttestation(t)
	att.Signatures = nil

	client, err := NewClient("app-1", testAppKey, []string{attestorAddr})
	require.NoError(t, err)

	_, err = client.VerifyAttestation(att)
	require.Error(t, err)
}

func Test_Attestation_JSONRoundTrip(t *testing.T) {
	att, _ := sampleAttestation(t)

	b, err := json.Marshal(att)
	require.NoError(t, err)

	var decoded Attestation
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, *att, decoded)
}
