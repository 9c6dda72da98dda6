package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/anyong/tangleclient/internal/log"
	"github.com/anyong/tangleclient/pkg/types"
)

// ErrInvalidGapLimit marks a zero gap limit, which would never terminate.
var ErrInvalidGapLimit = errors.New("gap limit must be positive")

// NodeBalancer is the node client surface the scanner consumes.
type NodeBalancer interface {
	// Balance queries the confirmed balance of an address.
	Balance(ctx context.Context, addr types.Address) (uint64, error)
}

// ScanResult is the outcome of a balance scan: every observed address
// with non-zero balance, and the highest index consulted per branch so
// the transaction builder knows the next unused change address.
type ScanResult struct {
	Balances map[types.Address]uint64
	Total    uint64

	// Highest address index consulted on each branch.
	LastExternal uint32
	LastInternal uint32
}

// Scanner discovers funded addresses by walking the derived address
// sequence of an account and querying balances through a node client.
type Scanner struct {
	node        NodeBalancer
	concurrency int
	logger      zerolog.Logger
}

// NewScanner creates a scanner issuing at most concurrency parallel
// balance queries. A non-positive concurrency means sequential queries.
func NewScanner(node NodeBalancer, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{
		node:        node,
		concurrency: concurrency,
		logger:      log.Scanner,
	}
}

// Scan walks both the external and internal branch of the account
// starting at startIndex, stopping a branch once gapLimit consecutive
// addresses held zero balance. The gap limit is a stopping heuristic, not
// proof of non-existence of funds at higher indices.
//
// Node errors propagate untouched; retry policy belongs to the node
// client.
func (s *Scanner) Scan(ctx context.Context, seed []byte, account, startIndex, gapLimit uint32) (*ScanResult, error) {
	if gapLimit == 0 {
		return nil, ErrInvalidGapLimit
	}

	result := &ScanResult{Balances: make(map[types.Address]uint64)}
	for _, change := range []uint32{ChangeExternal, ChangeInternal} {
		last, err := s.scanBranch(ctx, seed, account, change, startIndex, gapLimit, result)
		if err != nil {
			return nil, err
		}
		if change == ChangeExternal {
			result.LastExternal = last
		} else {
			result.LastInternal = last
		}
	}

	s.logger.Debug().
		Uint32("account", account).
		Int("funded", len(result.Balances)).
		Uint64("total", result.Total).
		Msg("scan complete")
	return result, nil
}

// scanBranch walks one change branch. The zero-run counter is per branch:
// external and internal addresses are disjoint subspaces. Queries inside a
// batch run concurrently, but the counter is updated in generation order
// after the whole batch returns, since the stopping rule counts
// consecutive zeros in that order.
func (s *Scanner) scanBranch(ctx context.Context, seed []byte, account, change, startIndex, gapLimit uint32, result *ScanResult) (uint32, error) {
	index := startIndex
	last := startIndex
	zeroRun := uint32(0)

	for {
		addrs, err := DeriveAddresses(seed, account, change, index, gapLimit)
		if err != nil {
			return 0, err
		}

		balances := make([]uint64, len(addrs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, addr := range addrs {
			i, addr := i, addr
			g.Go(func() error {
				bal, err := s.node.Balance(gctx, addr)
				if err != nil {
					return fmt.Errorf("balance of %s: %w", addr, err)
				}
				balances[i] = bal
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}

		for i, bal := range balances {
			last = index + uint32(i)
			if bal == 0 {
				zeroRun++
				if zeroRun >= gapLimit {
					return last, nil
				}
				continue
			}
			result.Balances[addrs[i]] = bal
			result.Total += bal
			zeroRun = 0
		}

		index += gapLimit
	}
}
