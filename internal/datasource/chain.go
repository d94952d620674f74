package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"github.com/aman-zulfiqar/sol-safety-check/internal/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrNotTokenMint means the address has no account or is not owned by an SPL token program.
var ErrNotTokenMint = errors.New("not an SPL token mint")

// TokenRPC is the subset of the Solana RPC client the chain provider needs.
type TokenRPC interface {
	GetAccountInfo(ctx context.Context, address string) (*rpc.AccountInfo, error)
	GetTokenSupply(ctx context.Context, mint string) (*rpc.TokenAmount, error)
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]rpc.LargestAccount, error)
}

// SolanaChain reads supply and the largest holders straight from RPC.
// Mint and freeze authorities stay unknown: the mint account is not decoded.
type SolanaChain struct {
	rpc        TokenRPC
	maxHolders int
	logger     *logrus.Logger
}

func NewSolanaChain(client TokenRPC, logger *logrus.Logger) *SolanaChain {
	if logger == nil {
		logger = logrus.New()
	}
	return &SolanaChain{
		rpc:        client,
		maxHolders: constants.MaxTopHolders,
		logger:     logger,
	}
}

func (s *SolanaChain) Name() string { return constants.ProviderSolanaChain }

func (s *SolanaChain) Fetch(ctx context.Context, mint string) (*Result, error) {
	// A lookup failure is not fatal; supply and holders may still answer.
	account, err := s.rpc.GetAccountInfo(ctx, mint)
	switch {
	case err != nil:
		s.logger.WithError(err).WithField("mint", mint).Warn("getAccountInfo failed")
	case account == nil:
		return nil, fmt.Errorf("%w: account does not exist", ErrNotTokenMint)
	case account.Owner != constants.TokenProgramID && account.Owner != constants.Token2022ProgramID:
		return nil, fmt.Errorf("%w: owned by %s", ErrNotTokenMint, account.Owner)
	}

	supply, supplyErr := s.rpc.GetTokenSupply(ctx, mint)
	if supplyErr != nil {
		s.logger.WithError(supplyErr).WithField("mint", mint).Warn("getTokenSupply failed")
	}

	accounts, holdersErr := s.rpc.GetTokenLargestAccounts(ctx, mint)
	if holdersErr != nil {
		s.logger.WithError(holdersErr).WithField("mint", mint).Warn("getTokenLargestAccounts failed")
	}

	if supplyErr != nil && holdersErr != nil {
		return nil, errors.Join(
			fmt.Errorf("token supply: %w", supplyErr),
			fmt.Errorf("largest accounts: %w", holdersErr),
		)
	}

	var total *decimal.Decimal
	res := &Result{}

	if supply != nil {
		meta := &models.TokenMeta{Address: mint}
		if amount, err := decimal.NewFromString(supply.Amount); err == nil {
			total = &amount
			meta.Supply = &amount
		}
		decimals := supply.Decimals
		meta.Decimals = &decimals
		if sym, ok := constants.TokenSymbols[mint]; ok {
			meta.Symbol = sym
		}
		res.TokenMeta = meta
	}

	res.Holders = s.holders(accounts, total)

	if res.Empty() {
		return nil, nil
	}
	return res, nil
}

func (s *SolanaChain) holders(accounts []rpc.LargestAccount, total *decimal.Decimal) []models.HolderStat {
	hundred := decimal.NewFromInt(100)

	holders := make([]models.HolderStat, 0, len(accounts))
	for _, acc := range accounts {
		balance, err := decimal.NewFromString(acc.Amount)
		if err != nil || !balance.IsPositive() {
			continue
		}
		h := models.HolderStat{Address: acc.Address, Balance: balance}
		if total != nil && total.IsPositive() {
			h.Percentage = balance.Div(*total).Mul(hundred)
		}
		holders = append(holders, h)
	}

	holders = risk.SortHoldersByBalance(holders)
	if len(holders) > s.maxHolders {
		holders = holders[:s.maxHolders]
	}
	if len(holders) == 0 {
		return nil
	}
	return holders
}
