package vault_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storelane/authcore/vault"
)

func testVault() *vault.Vault {
	// Cheap work factors keep the suite fast; the algorithm is the
	// same as production.
	return vault.New(vault.Params{
		Time:     1,
		MemoryKB: 8 * 1024,
		Threads:  1,
		KeyLen:   32,
		SaltLen:  16,
	}, 2)
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	v := testVault()
	ctx := context.Background()

	encoded, err := v.Hash(ctx, "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	require.True(t, v.Verify(ctx, "correct horse battery staple", encoded))
	require.False(t, v.Verify(ctx, "correct horse battery stapler", encoded))
	require.False(t, v.Verify(ctx, "", encoded))
}

func TestHashWithSaltIsDeterministic(t *testing.T) {
	v := testVault()
	ctx := context.Background()
	salt := []byte("0123456789abcdef")

	first, err := v.HashWithSalt(ctx, "password", salt)
	require.NoError(t, err)
	second, err := v.HashWithSalt(ctx, "password", salt)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := v.HashWithSalt(ctx, "password", []byte("fedcba9876543210"))
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestRandomSaltProducesDistinctHashes(t *testing.T) {
	v := testVault()
	ctx := context.Background()

	first, err := v.Hash(ctx, "password")
	require.NoError(t, err)
	second, err := v.Hash(ctx, "password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.True(t, v.Verify(ctx, "password", first))
	require.True(t, v.Verify(ctx, "password", second))
}

func TestVerifyMalformedHashFailsClosed(t *testing.T) {
	v := testVault()
	ctx := context.Background()

	malformed := []string{
		"",
		"not a hash at all",
		"$argon2id$v=19$m=8192,t=1,p=1$truncated",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=999$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$!!!",
	}
	for _, encoded := range malformed {
		require.False(t, v.Verify(ctx, "password", encoded), "encoding %q must verify false", encoded)
	}
}

func TestVerifyHonorsEmbeddedParams(t *testing.T) {
	// A hash minted under different work factors still verifies,
	// because the parameters ride along in the encoding.
	old := vault.New(vault.Params{Time: 2, MemoryKB: 16 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, 1)
	current := testVault()
	ctx := context.Background()

	encoded, err := old.Hash(ctx, "password")
	require.NoError(t, err)
	require.True(t, current.Verify(ctx, "password", encoded))
}

func TestCancelledContextAbandonsHash(t *testing.T) {
	v := testVault()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Hash(ctx, "password")
	require.Error(t, err)
	require.False(t, v.Verify(ctx, "password", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"))
}
