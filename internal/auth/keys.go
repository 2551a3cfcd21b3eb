package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const signingAlgorithm = "RS256"

// SigningKey is one asymmetric keypair. Key material is never mutated
// after construction; rotation adds a new key rather than replacing bytes.
type SigningKey struct {
	Kid       string
	Algorithm string
	Private   *rsa.PrivateKey
	CreatedAt time.Time
}

// Public returns the verification half of the keypair.
func (k *SigningKey) Public() *rsa.PublicKey {
	return &k.Private.PublicKey
}

// GenerateSigningKey creates a fresh 2048-bit RSA keypair with a random kid.
func GenerateSigningKey() (*SigningKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &SigningKey{
		Kid:       uuid.NewString(),
		Algorithm: signingAlgorithm,
		Private:   priv,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// LoadSigningKey parses PEM private key material supplied by configuration.
// Literal \n sequences are accepted so keys can travel through environment
// variables.
func LoadSigningKey(kid, privatePEM string) (*SigningKey, error) {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		kid = uuid.NewString()
	}
	priv, err := parseRSAPrivateKey(strings.ReplaceAll(privatePEM, `\n`, "\n"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &SigningKey{
		Kid:       kid,
		Algorithm: signingAlgorithm,
		Private:   priv,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// KeyStore holds every retained signing key and designates one as current.
// Reads take the shared lock only; Rotate is the single writer and swaps
// the current pointer and the retained set in one critical section, so
// readers never observe a state with no current key.
type KeyStore struct {
	mu      sync.RWMutex
	current string
	keys    map[string]*SigningKey
	order   []string // kids in rotation order, oldest first
}

func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]*SigningKey)}
}

// Current returns the key used for new signatures.
func (ks *KeyStore) Current() (*SigningKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.keys[ks.current]
	if !ok {
		return nil, ErrNoKeyConfigured
	}
	return key, nil
}

// ByID returns the retained key with the given kid. Used during
// verification to select the key named in a token header.
func (ks *KeyStore) ByID(kid string) (*SigningKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.keys[kid]
	return key, ok
}

// Rotate installs key as current. Previous keys stay retained so tokens
// they signed keep verifying until their natural expiry.
func (ks *KeyStore) Rotate(key *SigningKey) error {
	if key == nil || key.Private == nil {
		return errors.New("auth: rotate requires a key")
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if _, exists := ks.keys[key.Kid]; !exists {
		ks.order = append(ks.order, key.Kid)
	}
	ks.keys[key.Kid] = key
	ks.current = key.Kid
	return nil
}

// JWK is one public key descriptor in the published key set.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the published key set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicKeySet returns public material for every retained key, current and
// retired, so verifiers holding tokens signed by a rotated-out key still
// succeed until those tokens expire.
func (ks *KeyStore) PublicKeySet() JWKS {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	set := JWKS{Keys: make([]JWK, 0, len(ks.order))}
	for _, kid := range ks.order {
		key, ok := ks.keys[kid]
		if !ok {
			continue
		}
		pub := key.Public()
		set.Keys = append(set.Keys, JWK{
			Kty: "RSA",
			Kid: key.Kid,
			Use: "sig",
			Alg: key.Algorithm,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return set
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("invalid PEM private key")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("unsupported private key type")
	default:
		return nil, fmt.Errorf("unsupported private key type %s", block.Type)
	}
}
