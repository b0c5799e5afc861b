package artifacts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirsalvo/easyreceipts/internal/common"
)

// Signer issues and verifies time-limited artifact URLs. The signature
// covers method, key, content type and expiry, so a GET grant cannot be
// replayed as a PUT and a grant for one key cannot touch another.
type Signer struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewSigner creates a Signer. baseURL is the externally reachable server
// origin the signed URLs point at.
func NewSigner(secret, baseURL string) *Signer {
	return &Signer{secret: []byte(secret), baseURL: baseURL, now: time.Now}
}

func (s *Signer) sign(method, key, contentType string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%s\n%d", method, key, contentType, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// URL builds a signed URL for the given method and key.
func (s *Signer) URL(method, key, contentType string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", common.NewConfig("URL signing secret is not configured")
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(expires, 10))
	if contentType != "" {
		q.Set("ct", contentType)
	}
	q.Set("sig", s.sign(method, key, contentType, expires))
	return fmt.Sprintf("%s/artifacts/%s?%s", s.baseURL, key, q.Encode()), nil
}

// Verify checks the signature and expiry carried in query parameters.
func (s *Signer) Verify(method, key string, q url.Values) error {
	expires, err := strconv.ParseInt(q.Get("exp"), 10, 64)
	if err != nil {
		return common.NewUnauthorized("malformed url expiry")
	}
	if s.now().Unix() > expires {
		return common.NewUnauthorized("url expired")
	}
	want := s.sign(method, key, q.Get("ct"), expires)
	if !hmac.Equal([]byte(want), []byte(q.Get("sig"))) {
		return common.NewUnauthorized("bad url signature")
	}
	return nil
}
