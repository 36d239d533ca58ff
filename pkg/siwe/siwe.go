// Package siwe implements parsing, validation, and signature verification of
// Sign-In with Ethereum (EIP-4361) messages.
package siwe

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const headerSuffix = " wants you to sign in with your Ethereum account:"

type Message struct {
	Domain    string
	Address   string
	Statement string
	URI       string
	Version   string
	ChainID   int
	Nonce     string

	IssuedAt       time.Time
	ExpirationTime time.Time
	NotBefore      time.Time
}

// ParseMessage parses the plain-text EIP-4361 message layout:
//
//	<domain> wants you to sign in with your Ethereum account:
//	<address>
//
//	<statement>
//
//	URI: <uri>
//	Version: <version>
//	Chain ID: <chain-id>
//	Nonce: <nonce>
//	Issued At: <issued-at>
func ParseMessage(raw string) (*Message, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) < 2 || !strings.HasSuffix(lines[0], headerSuffix) {
		return nil, fmt.Errorf("invalid message header")
	}

	msg := &Message{
		Domain:  strings.TrimSuffix(lines[0], headerSuffix),
		Address: lines[1],
	}

	if !ethcommon.IsHexAddress(msg.Address) {
		return nil, fmt.Errorf("invalid address %s", msg.Address)
	}

	var fieldStart int
	for i := 2; i < len(lines); i++ {
		if strings.Contains(lines[i], ": ") {
			fieldStart = i
			break
		}

		if lines[i] != "" {
			msg.Statement = lines[i]
		}
	}

	if fieldStart == 0 {
		return nil, fmt.Errorf("message carries no fields")
	}

	for _, line := range lines[fieldStart:] {
		name, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}

		var err error
		switch name {
		case "URI":
			msg.URI = value
		case "Version":
			msg.Version = value
		case "Chain ID":
			msg.ChainID, err = strconv.Atoi(value)
		case "Nonce":
			msg.Nonce = value
		case "Issued At":
			msg.IssuedAt, err = time.Parse(time.RFC3339, value)
		case "Expiration Time":
			msg.ExpirationTime, err = time.Parse(time.RFC3339, value)
		case "Not Before":
			msg.NotBefore, err = time.Parse(time.RFC3339, value)
		}

		if err != nil {
			return nil, fmt.Errorf("invalid field %s: %w", name, err)
		}
	}

	if msg.Version != "1" {
		return nil, fmt.Errorf("unsupported version %q", msg.Version)
	}

	if msg.Nonce == "" {
		return nil, fmt.Errorf("message carries no nonce")
	}

	if msg.IssuedAt.IsZero() {
		return nil, fmt.Errorf("message carries no issued-at")
	}

	return msg, nil
}

func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n%s\n", m.Domain, headerSuffix, m.Address)

	if m.Statement != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Statement)
	}

	fmt.Fprintf(&b, "\nURI: %s", m.URI)
	fmt.Fprintf(&b, "\nVersion: %s", m.Version)
	fmt.Fprintf(&b, "\nChain ID: %d", m.ChainID)
	fmt.Fprintf(&b, "\nNonce: %s", m.Nonce)
	fmt.Fprintf(&b, "\nIssued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))

	if !m.ExpirationTime.IsZero() {
		fmt.Fprintf(&b, "\nExpiration Time: %s", m.ExpirationTime.UTC().Format(time.RFC3339))
	}

	if !m.NotBefore.IsZero() {
		fmt.Fprintf(&b, "\nNot Before: %s", m.NotBefore.UTC().Format(time.RFC3339))
	}

	return b.String()
}

// Validate checks the message binding: expected domain, time window, and
// issued-at freshness.
func (m *Message) Validate(domain string, now time.Time, timeout time.Duration) error {
	if domain != "" && m.Domain != domain {
		return fmt.Errorf("message is bound to domain %s", m.Domain)
	}

	if now.Before(m.IssuedAt.Add(-time.Minute)) {
		return fmt.Errorf("message is issued in the future")
	}

	if timeout > 0 && now.After(m.IssuedAt.Add(timeout)) {
		return fmt.Errorf("message expired")
	}

	if !m.ExpirationTime.IsZero() && now.After(m.ExpirationTime) {
		return fmt.Errorf("message expired")
	}

	if !m.NotBefore.IsZero() && now.Before(m.NotBefore) {
		return fmt.Errorf("message is not valid yet")
	}

	return nil
}

// Verify recovers the personal-sign signature over the raw message and
// checks it matches the address the message claims.
func Verify(raw, signature string) (*Message, error) {
	msg, err := ParseMessage(raw)
	if err != nil {
		return nil, err
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("cannot decode signature: %w", err)
	}

	if len(sig) != ethcrypto.SignatureLength {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}

	if sig[ethcrypto.RecoveryIDOffset] == 27 || sig[ethcrypto.RecoveryIDOffset] == 28 {
		sig[ethcrypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}

	hash := accounts.TextHash([]byte(raw))
	recovered, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return nil, fmt.Errorf("cannot recover signer: %w", err)
	}

	recoveredAddr := ethcrypto.PubkeyToAddress(*recovered)
	if !bytes.Equal(recoveredAddr.Bytes(), ethcommon.HexToAddress(msg.Address).Bytes()) {
		return nil, fmt.Errorf("mismatched address")
	}

	return msg, nil
}
