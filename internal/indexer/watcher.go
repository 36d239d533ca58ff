package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/puzpuzpuz/xsync"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/contract/questfactory"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

const (
	// maxBatchesPerScan caps how much of a backlog one scan round works
	// through.
	maxBatchesPerScan = 10

	fetchConcurrency = 4
)

type Watcher struct {
	client EthClient

	questRepo         repository.QuestRepository
	participationRepo repository.ParticipationRepository
	userRepo          repository.UserRepository
	indexerStateRepo  repository.IndexerStateRepository

	// seenLogs dedupes logs across overlapping scan rounds.
	seenLogs *xsync.MapOf[string, struct{}]
}

func NewWatcher(
	client EthClient,
	questRepo repository.QuestRepository,
	participationRepo repository.ParticipationRepository,
	userRepo repository.UserRepository,
	indexerStateRepo repository.IndexerStateRepository,
) *Watcher {
	return &Watcher{
		client:            client,
		questRepo:         questRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
		indexerStateRepo:  indexerStateRepo,
		seenLogs:          xsync.NewMapOf[struct{}](),
	}
}

func (w *Watcher) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Starting watcher on chain %s...",
		xcontext.Configs(ctx).Blockchain.Chain)

	ticker := time.NewTicker(xcontext.Configs(ctx).Blockchain.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := w.scanOnce(ctx); err != nil {
				xcontext.Logger(ctx).Errorf("Scan round failed: %v", err)
			}
		}
	}
}

type blockRange struct {
	from uint64
	to   uint64
}

func (w *Watcher) scanOnce(ctx context.Context) error {
	cfg := xcontext.Configs(ctx).Blockchain

	head, err := w.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("cannot get chain head: %w", err)
	}

	if head < cfg.Confirmations {
		return nil
	}

	safeHead := head - cfg.Confirmations
	state, err := w.loadState(ctx)
	if err != nil {
		return err
	}

	from := cfg.StartBlock
	if state.LastIndexedBlock >= from {
		from = state.LastIndexedBlock + 1
	}

	if from > safeHead {
		return nil
	}

	ranges := splitRanges(from, safeHead, cfg.BatchSize, maxBatchesPerScan)
	logsPerRange := make([][]ethtypes.Log, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			logs, err := w.client.FilterLogs(gctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(r.from),
				ToBlock:   new(big.Int).SetUint64(r.to),
				Addresses: []ethcommon.Address{ethcommon.HexToAddress(cfg.QuestFactoryAddress)},
				Topics: [][]ethcommon.Hash{{
					questfactory.QuestCreatedTopic,
					questfactory.RewardClaimedTopic,
				}},
			})
			if err != nil {
				return fmt.Errorf("cannot filter logs of [%d, %d]: %w", r.from, r.to, err)
			}

			logsPerRange[i] = logs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Logs and the progress mark must land atomically. A crash in between
	// would otherwise double-apply or skip events.
	txCtx := xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(txCtx)

	for _, logs := range logsPerRange {
		for i := range logs {
			w.handleLog(txCtx, logs[i])
		}
	}

	state.LastIndexedBlock = ranges[len(ranges)-1].to
	state.UpdatedAt = time.Now()
	if err := w.indexerStateRepo.Upsert(txCtx, state); err != nil {
		return fmt.Errorf("cannot save indexer state: %w", err)
	}

	xcontext.WithCommitDBTransaction(txCtx)
	return nil
}

func (w *Watcher) loadState(ctx context.Context) (*entity.IndexerState, error) {
	cfg := xcontext.Configs(ctx).Blockchain
	contractAddress := ethcommon.HexToAddress(cfg.QuestFactoryAddress).Hex()

	state, err := w.indexerStateRepo.Get(ctx, contractAddress)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cannot load indexer state: %w", err)
		}

		state = &entity.IndexerState{ContractAddress: contractAddress}
	}

	return state, nil
}

func (w *Watcher) handleLog(ctx context.Context, log ethtypes.Log) {
	key := fmt.Sprintf("%s:%d", log.TxHash.Hex(), log.Index)
	if _, loaded := w.seenLogs.LoadOrStore(key, struct{}{}); loaded {
		return
	}

	switch log.Topics[0] {
	case questfactory.QuestCreatedTopic:
		ev, err := questfactory.ParseQuestCreated(log)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot parse QuestCreated log: %v", err)
			return
		}

		w.handleQuestCreated(ctx, ev)

	case questfactory.RewardClaimedTopic:
		ev, err := questfactory.ParseRewardClaimed(log)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot parse RewardClaimed log: %v", err)
			return
		}

		w.handleRewardClaimed(ctx, ev)
	}
}

func splitRanges(from, to, batchSize uint64, maxBatches int) []blockRange {
	if batchSize == 0 {
		batchSize = 1
	}

	var ranges []blockRange
	for from <= to && len(ranges) < maxBatches {
		end := from + batchSize - 1
		if end > to {
			end = to
		}

		ranges = append(ranges, blockRange{from: from, to: end})
		from = end + 1
	}

	return ranges
}
