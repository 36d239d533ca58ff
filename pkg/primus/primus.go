// Package primus wraps the Primus zkTLS attestation protocol: signing
// attestation requests with the application secret key and verifying
// attestor signatures over finished attestations.
package primus

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// NetworkRequest describes the TLS request the attestor replays against the
// data source.
type NetworkRequest struct {
	URL    string `json:"url"`
	Header string `json:"header"`
	Method string `json:"method"`
	Body   string `json:"body"`
}

// ResponseResolve selects the fields of the TLS response the attestation
// commits to.
type ResponseResolve struct {
	KeyName   string `json:"keyName"`
	ParseType string `json:"parseType"`
	ParsePath string `json:"parsePath"`
}

type Attestor struct {
	AttestorAddr string `json:"attestorAddr"`
	URL          string `json:"url"`
}

// Attestation is the result produced by the attestor network. Signatures
// sign the keccak digest of the attestation body.
type Attestation struct {
	Recipient       string            `json:"recipient"`
	Request         NetworkRequest    `json:"request"`
	ResponseResolve []ResponseResolve `json:"responseResolve"`
	Data            string            `json:"data"`
	AttConditions   string            `json:"attConditions"`
	Timestamp       int64             `json:"timestamp"`
	AdditionParams  string            `json:"additionParams"`
	Attestors       []Attestor        `json:"attestors"`
	Signatures      []string          `json:"signatures"`
}

// SignRequest is the application-side attestation request. The backend signs
// it so that attestors can verify the request originated from a registered
// app.
type SignRequest struct {
	AppID          string `json:"appId"`
	AttTemplateID  string `json:"attTemplateID"`
	UserAddress    string `json:"userAddress"`
	Timestamp      int64  `json:"timestamp"`
	AdditionParams string `json:"additionParams"`
}

type Client struct {
	appID     string
	key       *ecdsa.PrivateKey
	attestors map[ethcommon.Address]bool
}

func NewClient(appID, hexSecretKey string, attestorAddrs []string) (*Client, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(hexSecretKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid app secret key: %w", err)
	}

	attestors := map[ethcommon.Address]bool{}
	for _, addr := range attestorAddrs {
		if !ethcommon.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid attestor address %s", addr)
		}
		attestors[ethcommon.HexToAddress(addr)] = true
	}

	return &Client{appID: appID, key: key, attestors: attestors}, nil
}

func (c *Client) AppID() string {
	return c.appID
}

// SignerAddress returns the address of the app signing key. Attestors
// resolve the app id to this address.
func (c *Client) SignerAddress() ethcommon.Address {
	return ethcrypto.PubkeyToAddress(c.key.PublicKey)
}

// Sign canonically encodes the request, fills in the app id, and returns the
// hex signature over its keccak digest.
func (c *Client) Sign(req *SignRequest) (string, error) {
	req.AppID = c.appID

	digest, err := digestOf(req)
	if err != nil {
		return "", err
	}

	signature, err := ethcrypto.Sign(digest, c.key)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(signature), nil
}

// VerifyAttestation checks every signature of the attestation against the
// attestor allow-list and returns the recipient address. At least one
// signature is required, and all present signatures must be valid.
func (c *Client) VerifyAttestation(att *Attestation) (ethcommon.Address, error) {
	if len(att.Signatures) == 0 {
		return ethcommon.Address{}, fmt.Errorf("attestation carries no signature")
	}

	if !ethcommon.IsHexAddress(att.Recipient) {
		return ethcommon.Address{}, fmt.Errorf("invalid recipient address %s", att.Recipient)
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
	if err != nil {
		return ethcommon.Address{}, err
	}

	for _, hexSig := range att.Signatures {
		signature, err := hexutil.Decode(hexSig)
		if err != nil {
			return ethcommon.Address{}, fmt.Errorf("malformed signature: %w", err)
		}

		if len(signature) != ethcrypto.SignatureLength {
			return ethcommon.Address{}, fmt.Errorf("malformed signature length %d", len(signature))
		}

		if signature[ethcrypto.RecoveryIDOffset] == 27 || signature[ethcrypto.RecoveryIDOffset] == 28 {
			signature[ethcrypto.RecoveryIDOffset] -= 27
		}

		pub, err := ethcrypto.SigToPub(digest, signature)
		if err != nil {
			return ethcommon.Address{}, fmt.Errorf("cannot recover attestor: %w", err)
		}

		addr := ethcrypto.PubkeyToAddress(*pub)
		if !c.attestors[addr] {
			return ethcommon.Address{}, fmt.Errorf("unknown attestor %s", addr.Hex())
		}
	}

	return ethcommon.HexToAddress(att.Recipient), nil
}

// Digest returns the hex-encoded keccak digest of the signed attestation
// body. It uniquely identifies an attestation.
func Digest(att *Attestation) (string, error) {
	digest, err := digestOf(attestationBody{
		Recipient:       att.Recipient,
		Request:         att.Request,
		ResponseResolve: att.ResponseResolve,
		Data:            att.Data,
		AttConditions:   att.AttConditions,
		Timestamp:       att.Timestamp,
		AdditionParams:  att.AdditionParams,
	})
	if err != nil {
		return "", err
	}

	return hexutil.Encode(digest), nil
}

// attestationBody is the signed part of an attestation, without attestor
// metadata and signatures.
type attestationBody struct {
	Recipient       string            `json:"recipient"`
	Request         NetworkRequest    `json:"request"`
	ResponseResolve []ResponseResolve `json:"responseResolve"`
	Data            string            `json:"data"`
	AttConditions   string            `json:"attConditions"`
	Timestamp       int64             `json:"timestamp"`
	AdditionParams  string            `json:"additionParams"`
}

func digestOf(v any) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(encoded)
	return hasher.Sum(nil), nil
}
