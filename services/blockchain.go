// services/blockchain.go
package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"time"

	"degen-survivor-backend/config"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ProgramIDs holds the four on-chain programs the backend talks to. An id equal
// to the all-ones sentinel means the program is not deployed in this
// environment and every interaction with it is skipped.
type ProgramIDs struct {
	Vault  solana.PublicKey
	Game   solana.PublicKey
	Prize  solana.PublicKey
	Oracle solana.PublicKey
}

// ChainClient is the ledger gateway: it owns the RPC connection and the one
// process signing key, loaded once at construction and never replaced.
type ChainClient struct {
	rpc    *rpc.Client
	wsURL  string
	signer solana.PrivateKey

	Programs ProgramIDs
}

func NewChainClient(cfg *config.Config) (*ChainClient, error) {
	signer, err := solana.PrivateKeyFromBase58(cfg.BackendPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_PRIVATE_KEY: %w", err)
	}

	programs, err := parsePrograms(cfg)
	if err != nil {
		return nil, err
	}

	client := &ChainClient{
		rpc:      rpc.New(cfg.RPCURL),
		wsURL:    cfg.WSURL,
		signer:   signer,
		Programs: programs,
	}

	log.Println("✅ Connected to Solana:", cfg.RPCURL)
	log.Println("✅ Backend keypair loaded:", signer.PublicKey().String())

	return client, nil
}

func parsePrograms(cfg *config.Config) (ProgramIDs, error) {
	var out ProgramIDs
	for _, p := range []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"VAULT_PROGRAM_ID", cfg.VaultProgramID, &out.Vault},
		{"GAME_PROGRAM_ID", cfg.GameProgramID, &out.Game},
		{"PRIZE_PROGRAM_ID", cfg.PrizeProgramID, &out.Prize},
		{"ORACLE_PROGRAM_ID", cfg.OracleProgramID, &out.Oracle},
	} {
		pk, err := solana.PublicKeyFromBase58(p.raw)
		if err != nil {
			return out, fmt.Errorf("invalid %s %q: %w", p.name, p.raw, err)
		}
		*p.dst = pk
	}
	return out, nil
}

// Authority is the public key of the process signing keypair.
func (c *ChainClient) Authority() solana.PublicKey {
	return c.signer.PublicKey()
}

func (c *ChainClient) WSEndpoint() string {
	return c.wsURL
}

// ProgramSet returns the named program ids the event listener subscribes to.
func (c *ChainClient) ProgramSet() map[string]solana.PublicKey {
	return map[string]solana.PublicKey{
		ProgramVault:  c.Programs.Vault,
		ProgramGame:   c.Programs.Game,
		ProgramPrize:  c.Programs.Prize,
		ProgramOracle: c.Programs.Oracle,
	}
}

// IsConfigured reports whether a program id is a real deployment rather than
// the unset sentinel.
func IsConfigured(pk solana.PublicKey) bool {
	return pk.String() != config.UnsetProgramID
}

// SendTransaction signs the given instructions with the process key, submits
// the transaction, and polls until confirmed commitment. This blocks the
// caller for up to the confirmation window; it is the dominant latency source.
func (c *ChainClient) SendTransaction(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(c.signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.signer.PublicKey()) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return solana.Signature{}, err
	}

	log.Println("✅ Transaction sent:", sig.String())
	return sig, nil
}

func (c *ChainClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.Now().Add(90 * time.Second)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
				status := out.Value[0]
				if status.Err != nil {
					return fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
				}
				if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
					status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
					return nil
				}
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("transaction %s not confirmed after 90s", sig)
			}
		}
	}
}

// DeriveGameAddress derives the game PDA from seeds ["game", gameID] under the
// game program. The seed layout must match the on-chain program exactly.
func (c *ChainClient) DeriveGameAddress(gameID string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("game"), []byte(gameID)},
		c.Programs.Game,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive game address for %s: %w", gameID, err)
	}
	return addr, nil
}

// DerivePriceAddress derives the price PDA from seeds
// ["price", gameID, [round], "start"|"end"] under the oracle program.
func (c *ChainClient) DerivePriceAddress(gameID string, round uint8, kind string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("price"), []byte(gameID), {round}, []byte(kind)},
		c.Programs.Oracle,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive price address for %s round %d %s: %w", gameID, round, kind, err)
	}
	return addr, nil
}

// BuildCreateGameInstruction builds the create-game instruction addressed to
// the game PDA. Payload: discriminator 0 followed by the raw gameID bytes.
func (c *ChainClient) BuildCreateGameInstruction(gameID string) (solana.Instruction, error) {
	gamePDA, err := c.DeriveGameAddress(gameID)
	if err != nil {
		return nil, err
	}

	data := append([]byte{0}, []byte(gameID)...)

	return solana.NewInstruction(
		c.Programs.Game,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(gamePDA, true, false),
			solana.NewAccountMeta(c.signer.PublicKey(), true, true),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		data,
	), nil
}

// BuildStorePriceInstruction builds the oracle price-commit instruction for
// one (game, round, start|end) sample.
func (c *ChainClient) BuildStorePriceInstruction(gameID string, round uint8, kind string, price float64) (solana.Instruction, error) {
	pricePDA, err := c.DerivePriceAddress(gameID, round, kind)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		c.Programs.Oracle,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(pricePDA, true, false),
			solana.NewAccountMeta(c.signer.PublicKey(), true, true),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		encodePriceData(price),
	), nil
}

// encodePriceData packs the price into the on-chain wire format: a 16-byte
// buffer whose first 8 bytes are the little-endian price scaled by 1e8.
func encodePriceData(price float64) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf, uint64(math.Floor(price*1e8)))
	return buf
}
