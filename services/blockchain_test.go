// services/blockchain_test.go
package services

import (
	"bytes"
	"encoding/binary"
	"testing"

	"degen-survivor-backend/config"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *ChainClient {
	t.Helper()

	return &ChainClient{
		signer: solana.NewWallet().PrivateKey,
		Programs: ProgramIDs{
			Vault:  solana.PublicKeyFromBytes(bytes.Repeat([]byte{2}, 32)),
			Game:   solana.PublicKeyFromBytes(bytes.Repeat([]byte{3}, 32)),
			Prize:  solana.PublicKeyFromBytes(bytes.Repeat([]byte{4}, 32)),
			Oracle: solana.PublicKeyFromBytes(bytes.Repeat([]byte{5}, 32)),
		},
	}
}

func TestDeriveGameAddress(t *testing.T) {
	chain := newTestChain(t)

	got, err := chain.DeriveGameAddress("GAME_1756713600000_deadbeef")
	require.NoError(t, err)

	// The on-chain program derives the same account from ["game", gameID];
	// any drift in the seed layout breaks every game instruction.
	want, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("game"), []byte("GAME_1756713600000_deadbeef")},
		chain.Programs.Game,
	)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := chain.DeriveGameAddress("GAME_1756713600000_cafef00d")
	require.NoError(t, err)
	assert.NotEqual(t, got, other)
}

func TestDerivePriceAddress(t *testing.T) {
	chain := newTestChain(t)

	seen := map[solana.PublicKey]bool{}
	for _, tc := range []struct {
		round uint8
		kind  string
	}{
		{1, "start"},
		{1, "end"},
		{2, "start"},
		{2, "end"},
	} {
		got, err := chain.DerivePriceAddress("GAME_1", tc.round, tc.kind)
		require.NoError(t, err)

		want, _, err := solana.FindProgramAddress(
			[][]byte{[]byte("price"), []byte("GAME_1"), {tc.round}, []byte(tc.kind)},
			chain.Programs.Oracle,
		)
		require.NoError(t, err)
		assert.Equal(t, want, got, "round %d %s", tc.round, tc.kind)

		assert.False(t, seen[got], "round %d %s collides with another sample", tc.round, tc.kind)
		seen[got] = true
	}
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, IsConfigured(solana.MustPublicKeyFromBase58(config.UnsetProgramID)))

	chain := newTestChain(t)
	assert.True(t, IsConfigured(chain.Programs.Game))
	assert.True(t, IsConfigured(chain.Authority()))
}

func TestBuildCreateGameInstruction(t *testing.T) {
	chain := newTestChain(t)

	instr, err := chain.BuildCreateGameInstruction("GAME_1")
	require.NoError(t, err)
	assert.Equal(t, chain.Programs.Game, instr.ProgramID())

	data, err := instr.Data()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, byte(0), data[0], "create-game discriminator")
	assert.Equal(t, []byte("GAME_1"), data[1:])

	accounts := instr.Accounts()
	require.Len(t, accounts, 3)

	gamePDA, err := chain.DeriveGameAddress("GAME_1")
	require.NoError(t, err)
	assert.Equal(t, gamePDA, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.False(t, accounts[0].IsSigner)

	assert.Equal(t, chain.Authority(), accounts[1].PublicKey)
	assert.True(t, accounts[1].IsSigner)

	assert.Equal(t, solana.SystemProgramID, accounts[2].PublicKey)
}

func TestBuildStorePriceInstruction(t *testing.T) {
	chain := newTestChain(t)

	instr, err := chain.BuildStorePriceInstruction("GAME_1", 1, "start", 65000.5)
	require.NoError(t, err)
	assert.Equal(t, chain.Programs.Oracle, instr.ProgramID())

	pricePDA, err := chain.DerivePriceAddress("GAME_1", 1, "start")
	require.NoError(t, err)
	accounts := instr.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, pricePDA, accounts[0].PublicKey)

	data, err := instr.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	assert.Equal(t, uint64(6500050000000), binary.LittleEndian.Uint64(data[:8]))
	assert.Equal(t, make([]byte, 8), data[8:])
}
