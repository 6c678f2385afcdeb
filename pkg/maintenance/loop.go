// Package maintenance runs the dual-orderbook cycle: pulling event windows
// from the chain reader, folding them into confirmed and latest orderbook
// state, rerunning the clearing engine, and tracking readiness.
package maintenance

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/gnosis-builders/batchauction-orderbook/pkg/chain"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/checkpoint"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/clearing"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/model"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/oracle"
	"github.com/gnosis-builders/batchauction-orderbook/pkg/orderbook"
	"github.com/gnosis-builders/batchauction-orderbook/params"
)

// Loop drives the confirmed/latest dual-orderbook cycle on an interval.
type Loop struct {
	reader   *chain.Reader
	oracle   *oracle.Client
	confirmed *orderbook.State
	latest    *orderbook.State

	chainID  uint64
	interval time.Duration

	wConf   uint64
	wLatest uint64

	checkpoint *checkpoint.Store

	ready atomic.Bool
	log   *zap.SugaredLogger

	// OnCycle, if set, runs at the end of every runCycle that advanced the
	// confirmed watermark, whether or not latest advanced too; a cycle that
	// returns early (empty window or error) skips it. Used to push a fresh snapshot to
	// websocket subscribers without the maintenance package depending on api.
	OnCycle func()
}

// New builds a Loop, seeding W_conf from a checkpoint if one is available
// for chainID, falling back to the chain's deployment-block table. cp may
// be nil, in which case the loop always starts from the deployment block
// and never persists a warm-start checkpoint.
func New(reader *chain.Reader, oracleClient *oracle.Client, confirmed, latest *orderbook.State, chainID uint64, interval time.Duration, cp *checkpoint.Store, log *zap.SugaredLogger) *Loop {
	wConf := uint64(0)
	if info, ok := params.LookupDeployment(chainID); ok {
		wConf = info.DeploymentBlock
	} else {
		log.Warnw("maintenance: no deployment info for chain, starting from block 0", "chainId", chainID)
	}

	if cp != nil {
		if block, ok, err := cp.LoadWatermark(chainID); err != nil {
			log.Warnw("maintenance: checkpoint watermark load failed, starting from deployment block", "chainId", chainID, "err", err)
		} else if ok && block > wConf {
			wConf = block
			if auctions, err := cp.LoadAuctions(chainID); err != nil {
				log.Warnw("maintenance: checkpoint auction load failed", "chainId", chainID, "err", err)
			} else {
				for _, d := range auctions {
					confirmed.SetAuctionDetails(d)
				}
				confirmed.CloneInto(latest)
				log.Infow("maintenance: resumed from checkpoint", "chainId", chainID, "block", block, "auctions", len(auctions))
			}
		}
	}

	return &Loop{
		reader:     reader,
		oracle:     oracleClient,
		confirmed:  confirmed,
		latest:     latest,
		chainID:    chainID,
		interval:   interval,
		wConf:      wConf,
		wLatest:    wConf,
		checkpoint: cp,
		log:        log,
	}
}

// Ready reports whether the loop has reached head at least once.
func (l *Loop) Ready() bool {
	return l.ready.Load()
}

// Run drives cycles on l.interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runCycle executes one maintenance cycle: advance confirmed, clone it into
// latest, advance latest if within reach of head, flip readiness once latest
// catches up. Any single failing RPC call is logged and the cycle returns
// early without mutating further state.
func (l *Loop) runCycle(ctx context.Context) {
	if err := l.advanceConfirmed(ctx); err != nil {
		if err != chain.ErrBenignEmptyWindow {
			l.log.Errorw("maintenance: advance confirmed failed", "err", err)
		}
		return
	}

	l.confirmed.CloneInto(l.latest)
	l.wLatest = l.wConf

	head, err := l.headBlock(ctx)
	if err != nil {
		l.log.Errorw("maintenance: head lookup failed", "err", err)
		return
	}

	span := l.reader.BlockSpanCap()
	if l.wConf+2*span >= head {
		if err := l.advanceLatest(ctx); err != nil {
			if err != chain.ErrBenignEmptyWindow {
				l.log.Errorw("maintenance: advance latest failed", "err", err)
			}
		}
	}

	if l.wLatest == head {
		l.ready.Store(true)
	}

	if l.OnCycle != nil {
		l.OnCycle()
	}
}

func (l *Loop) headBlock(ctx context.Context) (uint64, error) {
	return l.reader.Head(ctx)
}

func (l *Loop) advanceConfirmed(ctx context.Context) error {
	from, to, err := l.reader.GetToBlock(ctx, l.wConf, true)
	if err != nil {
		return err
	}

	if err := l.applyWindow(ctx, l.confirmed, from, to); err != nil {
		return err
	}
	l.wConf = to
	l.saveCheckpoint()
	return nil
}

// saveCheckpoint persists the confirmed view's watermark and auction
// snapshot. Failures are logged, never fatal: the checkpoint is a warm-start
// cache, not the source of truth.
func (l *Loop) saveCheckpoint() {
	if l.checkpoint == nil {
		return
	}
	if err := l.checkpoint.SaveWatermark(l.chainID, l.wConf); err != nil {
		l.log.Warnw("maintenance: checkpoint save watermark failed", "err", err)
		return
	}
	for _, details := range l.confirmed.GetAllAuctionWithDetails() {
		if err := l.checkpoint.SaveAuction(l.chainID, details); err != nil {
			l.log.Warnw("maintenance: checkpoint save auction failed", "auctionId", details.AuctionID, "err", err)
		}
	}
}

func (l *Loop) advanceLatest(ctx context.Context) error {
	from, to, err := l.reader.GetToBlock(ctx, l.wLatest, false)
	if err != nil {
		return err
	}
	if err := l.applyWindow(ctx, l.latest, from, to); err != nil {
		return err
	}
	l.wLatest = to
	return nil
}

// applyWindow fetches every event kind over [from, to], folds each kind
// into state in order (auctions -> orders -> cancellations -> claims ->
// users), sorts the touched views, and reruns the clearing engine over
// every known auction.
func (l *Loop) applyWindow(ctx context.Context, state *orderbook.State, from, to uint64) error {
	auctions, err := l.reader.FilterNewAuctions(ctx, from, to)
	if err != nil {
		return err
	}
	orders, err := l.reader.FilterNewSellOrders(ctx, from, to)
	if err != nil {
		return err
	}
	cancellations, err := l.reader.FilterCancellations(ctx, from, to)
	if err != nil {
		return err
	}
	claims, err := l.reader.FilterClaims(ctx, from, to)
	if err != nil {
		return err
	}
	users, err := l.reader.FilterNewUsers(ctx, from, to)
	if err != nil {
		return err
	}

	for _, ev := range auctions {
		state.SetAuctionDetails(auctionDetailsFromEvent(ev, l.chainID))
	}
	for _, ev := range orders {
		state.InsertOrders(ev.AuctionID, []model.Order{orderFromEvent(ev)})
	}
	for _, ev := range cancellations {
		state.RemoveOrders(ev.AuctionID, []model.Order{orderFromEvent(ev)})
	}
	for _, ev := range claims {
		state.RemoveClaimedOrders(ev.AuctionID, []model.Order{orderFromEvent(ev)})
	}
	modelUsers := make([]model.User, 0, len(users))
	for _, ev := range users {
		modelUsers = append(modelUsers, model.User{Address: ev.Address, UserID: ev.UserID})
	}
	state.InsertUsers(modelUsers)

	l.resortAndReclear(ctx, state)
	return nil
}

func (l *Loop) resortAndReclear(ctx context.Context, state *orderbook.State) {
	maxID, ok := state.MaxAuctionID()
	if !ok {
		return
	}

	for id := uint64(1); id <= maxID; id++ {
		state.SortOrders(id)
		state.SortOrdersDisplay(id)
		state.SortOrdersWithoutClaimed(id)

		details, err := state.GetAuctionWithDetails(id)
		if err != nil {
			continue
		}
		l.reclear(ctx, state, details)
	}
}

func (l *Loop) reclear(ctx context.Context, state *orderbook.State, details model.AuctionDetails) {
	bids := state.UnclaimedOrders(details.AuctionID)
	res, err := clearing.Clear(details.InitialAuctionOrder.Sell, details.InitialAuctionOrder.Buy, bids)
	if err != nil {
		l.log.Warnw("maintenance: clearing failed", "auctionId", details.AuctionID, "err", err)
		return
	}

	currentBiddingAmount := model.Uint256ToFloat(res.TotalBidSum)
	state.UpdateCurrentBiddingAmountOfDetails(details.AuctionID, currentBiddingAmount)

	point := res.ClearingOrder.ToPricePoint(details.AuctioningTokenDec, details.BiddingTokenDec)
	state.UpdateCurrentPriceOfDetails(details.AuctionID, point)

	interestScore := currentBiddingAmount / pow10(details.BiddingTokenDec)
	state.UpdateInterestScore(details.AuctionID, interestScore)

	usd := l.usdAmountTraded(ctx, details, currentBiddingAmount, point)
	state.UpdateUsdAmountTradedOfDetails(details.AuctionID, usd)
}

func pow10(n uint8) float64 {
	v := 1.0
	for i := uint8(0); i < n; i++ {
		v *= 10
	}
	return v
}

// usdAmountTraded converts the bidding amount to USD using whichever side of
// the pair is a recognised stablecoin or native asset; unrecognised pairs
// report zero rather than guessing.
func (l *Loop) usdAmountTraded(ctx context.Context, details model.AuctionDetails, biddingAmount float64, price model.PricePoint) float64 {
	switch {
	case params.IsStablecoin(l.chainID, details.BiddingToken):
		return biddingAmount
	case params.IsStablecoin(l.chainID, details.AuctioningToken):
		if price.Price == 0 {
			return 0
		}
		return biddingAmount / price.Price
	case params.IsNativeAsset(l.chainID, details.BiddingToken):
		if l.oracle == nil {
			return 0
		}
		usdPrice, err := l.oracle.GetNativeUSDPrice(ctx, details.EndTimestamp)
		if err != nil {
			l.log.Warnw("maintenance: native/usd price unavailable", "auctionId", details.AuctionID, "err", err)
			return 0
		}
		return biddingAmount * usdPrice
	default:
		return 0
	}
}

func auctionDetailsFromEvent(ev chain.NewAuctionEvent, chainID uint64) model.AuctionDetails {
	initialOrder := model.Order{
		Sell:   uint256.MustFromBig(ev.AuctionedSellAmount),
		Buy:    uint256.MustFromBig(ev.MinBuyAmount),
		UserID: 0,
	}
	minBid := model.Order{
		Sell:   uint256.NewInt(0),
		Buy:    uint256.MustFromBig(ev.MinimumBiddingAmountPerOrder),
		UserID: 0,
	}

	return model.AuctionDetails{
		AuctionID:                    ev.AuctionID,
		AuctioningToken:              ev.AuctioningToken,
		AuctioningTokenSymbol:        ev.AuctioningTokenSymbol,
		AuctioningTokenDec:           ev.AuctioningTokenDecimals,
		BiddingToken:                 ev.BiddingToken,
		BiddingTokenSymbol:           ev.BiddingTokenSymbol,
		BiddingTokenDec:              ev.BiddingTokenDecimals,
		InitialAuctionOrder:          initialOrder,
		InitialAuctionOrderPoint:     initialOrder.ToPricePoint(ev.BiddingTokenDecimals, ev.AuctioningTokenDecimals),
		StartingTimestamp:            ev.BlockTimestamp,
		EndTimestamp:                 ev.AuctionEndDate,
		OrderCancellationEndDate:     ev.OrderCancellationEndDate,
		MinimumBiddingAmountPerOrder: minBid,
		MinFundingThreshold:          ev.MinFundingThreshold.String(),
		AllowListManager:             ev.AccessManagerContract,
		AllowListSigner:              ev.AllowListSigner,
		IsAtomicClosureAllowed:       ev.IsAtomicClosureAllowed,
		IsPrivateAuction:             ev.AccessManagerContract != common.Address{},
		ChainID:                      chainID,
	}
}

func orderFromEvent(ev chain.NewSellOrderEvent) model.Order {
	return model.Order{
		Sell:   uint256.MustFromBig(ev.SellAmount),
		Buy:    uint256.MustFromBig(ev.BuyAmount),
		UserID: ev.UserID,
	}
}
