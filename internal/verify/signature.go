package verify

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SignatureNamespace is the namespace checksum manifests must be signed
// under (ssh-keygen -Y sign -n file).
const SignatureNamespace = "file"

const (
	sigMagic     = "SSHSIG"
	sigBeginMark = "-----BEGIN SSH SIGNATURE-----"
	sigEndMark   = "-----END SSH SIGNATURE-----"
)

// sshSigBlob is the wire layout of an SSHSIG signature after the magic.
type sshSigBlob struct {
	Version       uint32
	PublicKey     []byte
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Signature     []byte
}

// signedData is what the signer actually signs.
type signedData struct {
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Hash          []byte
}

// ParseTrustedKeys parses authorized_keys style lines.
func ParseTrustedKeys(lines []string) ([]ssh.PublicKey, error) {
	keys := make([]ssh.PublicKey, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("trusted key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// VerifySignature checks an armored SSH signature over data against the
// trusted keys. The key embedded in the signature must be one of them.
func VerifySignature(data, armored []byte, trusted []ssh.PublicKey) error {
	blob, err := parseSignature(armored)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	if blob.Namespace != SignatureNamespace {
		return fmt.Errorf("%w: namespace %q", ErrSignatureInvalid, blob.Namespace)
	}

	var sig ssh.Signature
	if err := ssh.Unmarshal(blob.Signature, &sig); err != nil {
		return fmt.Errorf("%w: signature body: %w", ErrSignatureInvalid, err)
	}

	var hashed []byte
	switch blob.HashAlgorithm {
	case "sha256":
		h := sha256.Sum256(data)
		hashed = h[:]
	case "sha512":
		h := sha512.Sum512(data)
		hashed = h[:]
	default:
		return fmt.Errorf("%w: unsupported hash %q", ErrSignatureInvalid, blob.HashAlgorithm)
	}

	message := append([]byte(sigMagic), ssh.Marshal(signedData{
		Namespace:     blob.Namespace,
		HashAlgorithm: blob.HashAlgorithm,
		Hash:          hashed,
	})...)

	for _, key := range trusted {
		if !bytes.Equal(key.Marshal(), blob.PublicKey) {
			continue
		}
		if err := key.Verify(message, &sig); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
		return nil
	}

	return fmt.Errorf("%w: signed by an untrusted key", ErrSignatureInvalid)
}

func parseSignature(armored []byte) (*sshSigBlob, error) {
	text := string(armored)
	begin := strings.Index(text, sigBeginMark)
	end := strings.Index(text, sigEndMark)
	if begin == -1 || end < begin {
		return nil, fmt.Errorf("missing armor markers")
	}

	body := strings.Join(strings.Fields(text[begin+len(sigBeginMark):end]), "")
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode armor: %w", err)
	}

	rest, ok := bytes.CutPrefix(raw, []byte(sigMagic))
	if !ok {
		return nil, fmt.Errorf("bad magic")
	}

	var blob sshSigBlob
	if err := ssh.Unmarshal(rest, &blob); err != nil {
		return nil, fmt.Errorf("signature blob: %w", err)
	}
	if blob.Version != 1 {
		return nil, fmt.Errorf("unsupported signature version %d", blob.Version)
	}
	return &blob, nil
}
