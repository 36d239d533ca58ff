package model

// Attestation mirrors the wire shape the zkTLS SDK produces. It converts
// one-to-one into primus.Attestation for signature checks.
type Attestation struct {
	Recipient       string              `json:"recipient"`
	Request         AttestationRequest  `json:"request"`
	ResponseResolve []AttestationField  `json:"responseResolve"`
	Data            string              `json:"data"`
	AttConditions   string              `json:"attConditions"`
	Timestamp       int64               `json:"timestamp"`
	AdditionParams  string              `json:"additionParams"`
	Attestors       []AttestationSigner `json:"attestors"`
	Signatures      []string            `json:"signatures"`
}

type AttestationRequest struct {
	URL    string `json:"url"`
	Header string `json:"header"`
	Method string `json:"method"`
	Body   string `json:"body"`
}

type AttestationField struct {
	KeyName   string `json:"keyName"`
	ParseType string `json:"parseType"`
	ParsePath string `json:"parsePath"`
}

type AttestationSigner struct {
	AttestorAddr string `json:"attestorAddr"`
	URL          string `json:"url"`
}

type SignAttestationRequest struct {
	AttTemplateID  string `json:"attTemplateID"`
	UserAddress    string `json:"userAddress"`
	AdditionParams string `json:"additionParams"`
}

type SignAttestationResponse struct {
	AppID     string `json:"appId"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signParams"`
}

type ValidateAttestationRequest struct {
	Attestation Attestation `json:"attestation"`
}

type ValidateAttestationResponse struct {
	Valid    bool   `json:"valid"`
	Attestor string `json:"attestor"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
}
