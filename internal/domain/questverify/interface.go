package questverify

import (
	"context"
	"fmt"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
)

type Result interface {
	Name() string
	Message() string
	Is(Result) bool
	WithMessage(m string, a ...any) Result
}

type result struct {
	name    string
	message string
}

func (r result) Name() string {
	return r.name
}

func (r result) Message() string {
	return r.message
}

func (r result) WithMessage(m string, args ...any) Result {
	r.message = fmt.Sprintf(m, args...)
	return r
}

func (r result) Is(another Result) bool {
	return r.Name() == another.Name()
}

var (
	Accepted = result{name: "accepted"}
	Rejected = result{name: "rejected"}
)

// Verifier reviews a verified attestation against the validation data of the
// quest. It helps us to determine whether the attested social action really
// fulfills the quest.
type Verifier interface {
	// Always return errorx in this method.
	VerifyAttestation(ctx context.Context, att primus.Attestation) (Result, error)
}
