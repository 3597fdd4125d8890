package client

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1" // nolint:gosec // the signing protocol mandates SHA-1
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Signer adds authentication headers to an outgoing request on behalf of a
// named requestor. The matcher layer never looks at these headers; signing
// exists purely so the server under test will attribute and authorize the
// request.
type Signer interface {
	SignRequest(req *http.Request, name string) error
}

// HeaderSigner signs requests with the server's signed-header scheme,
// protocol version 1.0: a canonical string of method, hashed path, content
// hash, timestamp and requestor name is RSA-signed with the requestor's
// private key, and the base64 signature is split across numbered
// X-Ops-Authorization-N headers.
type HeaderSigner struct {
	PrivateKey *rsa.PrivateKey
}

const signatureChunkSize = 60

func (s *HeaderSigner) SignRequest(req *http.Request, name string) error {
	var body []byte
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("sign: get body: %w", err)
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("sign: read body: %w", err)
		}
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	hashedPath := sha1Base64([]byte(req.URL.Path))
	hashedBody := sha1Base64(body)

	canonical := strings.Join([]string{
		"Method:" + req.Method,
		"Hashed Path:" + hashedPath,
		"X-Ops-Content-Hash:" + hashedBody,
		"X-Ops-Timestamp:" + timestamp,
		"X-Ops-UserId:" + name,
	}, "\n")

	// protocol 1.0 signs the canonical string directly rather than a digest
	// of it, hence crypto.Hash(0)
	sig, err := rsa.SignPKCS1v15(nil, s.PrivateKey, crypto.Hash(0), []byte(canonical))
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	req.Header.Set("X-Ops-Sign", "algorithm=sha1;version=1.0;")
	req.Header.Set("X-Ops-Userid", name)
	req.Header.Set("X-Ops-Timestamp", timestamp)
	req.Header.Set("X-Ops-Content-Hash", hashedBody)
	encoded := base64.StdEncoding.EncodeToString(sig)
	for i, chunk := range chunkString(encoded, signatureChunkSize) {
		req.Header.Set(fmt.Sprintf("X-Ops-Authorization-%d", i+1), chunk)
	}
	return nil
}

func sha1Base64(data []byte) string {
	sum := sha1.Sum(data) // nolint:gosec
	return base64.StdEncoding.EncodeToString(sum[:])
}

func chunkString(s string, size int) []string {
	var chunks []string
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	if len(s) > 0 {
		chunks = append(chunks, s)
	}
	return chunks
}
