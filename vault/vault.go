// Package vault hashes and verifies passwords with argon2id.
package vault

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Params are the argon2id work factors. They are fixed configuration,
// not per-request knobs; the values used at hash time are embedded in
// the encoded hash so verification survives later parameter changes.
type Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
	KeyLen   uint32
	SaltLen  int
}

// DefaultParams returns the production work factors.
func DefaultParams() Params {
	return Params{
		Time:     3,
		MemoryKB: 64 * 1024,
		Threads:  2,
		KeyLen:   32,
		SaltLen:  16,
	}
}

var errInvalidHash = errors.New("invalid password hash")

// Vault computes and compares password hashes. Hashing is deliberately
// expensive, so a weighted semaphore bounds how many derivations run
// at once; waiters respect context cancellation and abandon the call
// without side effects.
type Vault struct {
	params Params
	sem    *semaphore.Weighted
}

// New creates a vault. maxConcurrent bounds simultaneous key
// derivations; values below one fall back to one.
func New(params Params, maxConcurrent int64) *Vault {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Vault{
		params: params,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

// Hash derives an encoded argon2id hash with a fresh random salt.
func (v *Vault) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, v.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return v.HashWithSalt(ctx, password, salt)
}

// HashWithSalt derives an encoded hash with the caller's salt. The
// result is deterministic for a given (password, salt) pair.
func (v *Vault) HashWithSalt(ctx context.Context, password string, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", errInvalidHash
	}
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer v.sem.Release(1)

	sum := argon2.IDKey([]byte(password), salt, v.params.Time, v.params.MemoryKB, v.params.Threads, v.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		v.params.MemoryKB,
		v.params.Time,
		v.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify reports whether password matches the encoded hash. The
// comparison is constant time. A malformed encoding verifies as
// false, so a corrupt credential record is indistinguishable from a
// wrong password.
func (v *Vault) Verify(ctx context.Context, password, encoded string) bool {
	salt, expected, timeCost, memoryKB, threads, err := decode(encoded)
	if err != nil {
		return false
	}
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer v.sem.Release(1)

	actual := argon2.IDKey([]byte(password), salt, timeCost, memoryKB, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

func decode(encoded string) (salt, sum []byte, timeCost, memoryKB uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errInvalidHash
	}

	version, err := parseIntParam(parts[2], "v=")
	if err != nil || int(version) != argon2.Version {
		return nil, nil, 0, 0, 0, errInvalidHash
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return nil, nil, 0, 0, 0, errInvalidHash
	}
	memoryKB, err = parseIntParam(params[0], "m=")
	if err != nil {
		return nil, nil, 0, 0, 0, errInvalidHash
	}
	timeCost, err = parseIntParam(params[1], "t=")
	if err != nil {
		return nil, nil, 0, 0, 0, errInvalidHash
	}
	threadsVal, err := parseIntParam(params[2], "p=")
	if err != nil || threadsVal > 255 {
		return nil, nil, 0, 0, 0, errInvalidHash
	}
	threads = uint8(threadsVal)

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, 0, 0, 0, errInvalidHash
	}
	sum, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return nil, nil, 0, 0, 0, errInvalidHash
	}

	return salt, sum, timeCost, memoryKB, threads, nil
}

func parseIntParam(value, prefix string) (uint32, error) {
	if !strings.HasPrefix(value, prefix) {
		return 0, errInvalidHash
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(value, prefix), 10, 32)
	if err != nil {
		return 0, errInvalidHash
	}
	return uint32(parsed), nil
}
