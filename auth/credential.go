package auth

import "encoding/json"

// Credential is a bearer access token plus the derived Atlassian
// cloud (tenant) id that scopes document API calls. Claims carry
// best-effort token metadata.
type Credential struct {
	Token   string
	CloudID string
	Claims  Claims
}

// Valid reports whether the credential carries both a token and a
// resolved cloud id.
func (c Credential) Valid() bool {
	return c.Token != "" && c.CloudID != ""
}

// String masks the token so credentials can be logged safely.
func (c Credential) String() string {
	if c.Token == "" {
		return "Credential{}"
	}
	return "Credential{Token:***, CloudID:" + c.CloudID + "}"
}

// MarshalJSON masks the token in JSON output.
func (c Credential) MarshalJSON() ([]byte, error) {
	type masked struct {
		Token   string `json:"token,omitempty"`
		CloudID string `json:"cloud_id,omitempty"`
		Claims  Claims `json:"claims,omitempty"`
	}
	out := masked{CloudID: c.CloudID, Claims: c.Claims}
	if c.Token != "" {
		out.Token = "***"
	}
	return json.Marshal(out)
}
