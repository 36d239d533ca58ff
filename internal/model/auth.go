package model

// Access Token and Refresh Token
type AccessToken struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type RefreshToken struct {
	Family  string
	Counter uint64
}

type WalletLoginRequest struct {
	Address string `json:"address"`
}

type WalletLoginResponse struct {
	Message string `json:"message"`
	Nonce   string `json:"nonce"`

	Address string `json:"-"`
}

func (resp WalletLoginResponse) SessionInfo() map[string]any {
	return map[string]any{
		"nonce":   resp.Nonce,
		"address": resp.Address,
	}
}

type WalletVerifyRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`

	SessionNonce   string `session:"nonce,delete" json:"-"`
	SessionAddress string `session:"address,delete" json:"-"`
}

type WalletVerifyResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
