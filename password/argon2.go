package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// FederatedSentinel marks an account that has no local password. It is not
// a valid PHC string, so Verify against it always returns false.
const FederatedSentinel = "!federated-no-password"

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Config holds the Argon2id work factor. It is validated once at
// construction and fixed for the lifetime of the hasher.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the work factor used when the caller does not
// override it.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher derives and verifies Argon2id password hashes.
type Hasher struct {
	config Config
}

// New validates cfg and returns a Hasher.
func New(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password: memory must be >= 8192 KiB")
	case cfg.Time < minTimeCost:
		return nil, errors.New("password: time cost must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password: parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password: salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password: key length must be >= 16")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a salted Argon2id hash of plaintext and returns it in PHC
// format. A fresh random salt is drawn for every call.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash of plaintext with the parameters and salt
// embedded in encoded and compares in constant time. A wrong password
// yields (false, nil); an error is returned only for an undecodable hash.
// The federated sentinel is reported as (false, nil) so callers can treat
// password logins against federated accounts as plain credential failures.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	if encoded == FederatedSentinel {
		return false, nil
	}

	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

type phcParts struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phcParts, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, errors.New("password: malformed PHC string")
	}
	if fields[1] != algorithmID {
		return nil, errors.New("password: unsupported algorithm")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(fields[2], "v="))
	if err != nil || !strings.HasPrefix(fields[2], "v=") {
		return nil, errors.New("password: malformed argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("password: unsupported argon2 version")
	}

	var parts phcParts
	var seen int
	for _, pair := range strings.Split(fields[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("password: malformed parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, errors.New("password: bad memory parameter")
			}
			parts.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, errors.New("password: bad time parameter")
			}
			parts.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, errors.New("password: bad parallelism parameter")
			}
			parts.parallelism = uint8(v)
		default:
			return nil, errors.New("password: unknown parameter")
		}
		seen++
	}
	if seen != 3 || parts.memory == 0 || parts.time == 0 || parts.parallelism == 0 {
		return nil, errors.New("password: missing parameters")
	}

	if parts.salt, err = base64.StdEncoding.DecodeString(fields[4]); err != nil {
		return nil, errors.New("password: bad salt encoding")
	}
	if len(parts.salt) < int(minSaltLength) {
		return nil, errors.New("password: salt too short")
	}
	if parts.key, err = base64.StdEncoding.DecodeString(fields[5]); err != nil {
		return nil, errors.New("password: bad key encoding")
	}
	if len(parts.key) == 0 {
		return nil, errors.New("password: empty key")
	}

	return &parts, nil
}
