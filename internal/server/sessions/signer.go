package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
)

// Signer authenticates session ids stored in cookies with HMAC-SHA256.
// A signed value has the form "<id>.<base64url(mac)>".
type Signer struct {
	key []byte
}

func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	return &Signer{key: secret}, nil
}

func (s *Signer) Sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(s.mac(id))
}

// Verify checks the signature and returns the session id.
func (s *Signer) Verify(value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", fmt.Errorf("%w: malformed session cookie", common.ErrInvalidToken)
	}
	id, sig := value[:i], value[i+1:]

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", fmt.Errorf("%w: signature encoding: %w", common.ErrInvalidToken, err)
	}
	if !hmac.Equal(got, s.mac(id)) {
		return "", fmt.Errorf("%w: signature mismatch", common.ErrInvalidToken)
	}
	return id, nil
}

func (s *Signer) mac(id string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(id))
	return m.Sum(nil)
}
