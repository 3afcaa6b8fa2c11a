package submission

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/fadedpez/tucoroulette/internal/types"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
	mock_ledger "github.com/fadedpez/tucoroulette/pkg/ledger/mock"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
	"github.com/fadedpez/tucoroulette/pkg/services/betslip"
)

const (
	account = "0x00000000000000000000000000000000000000a1"
	spender = "0x00000000000000000000000000000000000000b2"
)

type PipelineTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	ledger   *mock_ledger.MockLedger
	pipeline *Pipeline
	slip     *betslip.Slip
	sleeps   int
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (s *PipelineTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mock_ledger.NewMockLedger(s.ctrl)
	s.ledger.EXPECT().Spender().Return(spender).AnyTimes()
	s.ledger.EXPECT().Capabilities().Return(ledger.CapabilitiesFor(ledger.InterfaceCurrent)).AnyTimes()

	s.pipeline = NewPipeline(s.ledger, Config{ConfirmTimeout: time.Second}, nil)
	s.sleeps = 0
	s.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		s.Equal(2*time.Second, d)
		s.sleeps++
		return nil
	}

	s.slip = betslip.New(entities.Tokens(5))
	_, err := s.slip.Select(roulette.Straight, []int{17})
	s.Require().NoError(err)
	_, err = s.slip.SelectAmount(roulette.Red, roulette.CoveredNumbers(roulette.Red), entities.Tokens(10))
	s.Require().NoError(err)
}

func (s *PipelineTestSuite) expectFunding(balance, allowance int64) {
	s.ledger.EXPECT().Balance(gomock.Any(), account).Return(entities.Tokens(balance), nil)
	s.ledger.EXPECT().Allowance(gomock.Any(), account, spender).Return(entities.Tokens(allowance), nil)
}

func quote() ledger.GasQuote {
	return ledger.GasQuote{Limit: 100_000, Price: big.NewInt(10_000_000_000)}
}

func (s *PipelineTestSuite) TestSubmitSuccess() {
	// Setup
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, call ledger.Call) (ledger.GasQuote, error) {
			s.Equal(ledger.CallPlaceBets, call.Kind)
			s.Len(call.Wagers, 2)
			return quote(), nil
		})
	s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, wagers []ledger.Wager, q ledger.GasQuote) (ledger.TxHandle, error) {
			s.Equal(uint64(120_000), q.Limit)
			s.Equal(int64(12_000_000_000), q.Price.Int64())
			s.Equal(uint8(17), wagers[0].Number)
			s.Equal(uint8(roulette.Red), wagers[1].BetTypeID)
			s.Equal(uint8(0), wagers[1].Number)
			return ledger.TxHandle{Hash: "0xabc"}, nil
		})
	s.ledger.EXPECT().WaitMined(gomock.Any(), ledger.TxHandle{Hash: "0xabc"}).
		Return(ledger.Receipt{TxHash: "0xabc", Succeeded: true, BlockNumber: 10, RequestID: "77"}, nil)

	var notified []uint64
	s.pipeline.OnEpoch(func(acct string, epoch uint64) {
		s.Equal(account, acct)
		notified = append(notified, epoch)
	})

	// Execute
	result, err := s.pipeline.Submit(context.Background(), s.slip, account)

	// Assert
	s.Require().NoError(err)
	s.Equal("0xabc", result.TxHash)
	s.Equal("77", result.RequestID)
	s.Equal(1, result.Attempts)
	s.Equal(0, result.Total.Cmp(entities.Tokens(15)))
	s.NotEmpty(result.ID)
	s.Equal(0, s.slip.Len())
	s.Equal(uint64(1), s.pipeline.Epoch())
	s.Equal([]uint64{1}, notified)

	marker, ok := s.pipeline.Awaiting().Get(account)
	s.True(ok)
	s.Equal("77", marker.RequestID)
}

func (s *PipelineTestSuite) TestSubmitInsufficientAllowanceSendsNothing() {
	// Setup: no QuoteGas or PlaceBets expectations, so any send fails the test
	s.expectFunding(100, 14)
	before := s.slip.Wagers()

	// Execute
	result, err := s.pipeline.Submit(context.Background(), s.slip, account)

	// Assert
	s.Nil(result)
	s.True(types.IsGameError(err, types.ErrInsufficientAllowance))
	s.Equal(before, s.slip.Wagers())
	s.Equal(uint64(0), s.pipeline.Epoch())
}

func (s *PipelineTestSuite) TestSubmitInsufficientFunds() {
	s.expectFunding(1, 100)

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrInsufficientFunds))
	s.Equal(2, s.slip.Len())
}

func (s *PipelineTestSuite) TestSubmitEmptySlipNeverTouchesLedger() {
	s.slip.Clear()

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrValidation))
	s.Equal(types.ReasonEmptyBatch, types.ReasonOf(err))
}

func (s *PipelineTestSuite) TestSubmitFundingReadFailure() {
	s.ledger.EXPECT().Balance(gomock.Any(), account).Return(nil, errors.New("dial tcp: connection refused"))
	s.ledger.EXPECT().Allowance(gomock.Any(), account, spender).Return(entities.Tokens(100), nil).AnyTimes()

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrNetworkError))
	s.Equal(2, s.slip.Len())
}

func (s *PipelineTestSuite) TestSubmitRetriesUnderpricedThenSucceeds() {
	// Setup
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil).Times(3)
	gomock.InOrder(
		s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
			Return(ledger.TxHandle{}, errors.New("replacement transaction underpriced")),
		s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
			Return(ledger.TxHandle{}, errors.New("txpool is full")),
		s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
			Return(ledger.TxHandle{Hash: "0xdef"}, nil),
	)
	s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).Return(ledger.Receipt{TxHash: "0xdef", Succeeded: true}, nil)

	// Execute
	result, err := s.pipeline.Submit(context.Background(), s.slip, account)

	// Assert
	s.Require().NoError(err)
	s.Equal(3, result.Attempts)
	s.Equal(2, s.sleeps)
	_, waiting := s.pipeline.Awaiting().Get(account)
	s.False(waiting, "no request id, no marker")
}

func (s *PipelineTestSuite) TestSubmitGivesUpAfterThreeAttemptsAndRollsBack() {
	s.expectFunding(100, 100)
	before := s.slip.Wagers()
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil).Times(3)
	s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
		Return(ledger.TxHandle{}, errors.New("429 Too Many Requests")).Times(3)

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrNetworkCongestion))
	s.Equal(before, s.slip.Wagers())
	s.Equal(2, s.sleeps)
}

func (s *PipelineTestSuite) TestSubmitUserRejectedIsNotRetried() {
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil)
	s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).
		Return(ledger.TxHandle{}, ledger.ErrUserRejected)

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrUserRejected))
	s.Equal(0, s.sleeps)
	s.Equal(2, s.slip.Len())
}

func (s *PipelineTestSuite) TestSubmitEstimateRevertIsNotRetried() {
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).
		Return(ledger.GasQuote{}, errors.New("estimate placeBets: execution reverted: game active"))

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrContractReverted))
	s.Contains(err.Error(), "spin in progress")
	s.Equal(2, s.slip.Len())
}

func (s *PipelineTestSuite) TestSubmitRevertedReceiptRollsBack() {
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil)
	s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).Return(ledger.TxHandle{Hash: "0x1"}, nil)
	s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).
		Return(ledger.Receipt{TxHash: "0x1", Succeeded: false, RevertReason: "Max payout exceeded"}, nil)

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrContractReverted))
	s.Contains(err.Error(), "potential payout")
	s.Equal(2, s.slip.Len())
	s.Equal(uint64(0), s.pipeline.Epoch())
}

func (s *PipelineTestSuite) TestSubmitKeepsSelectionsMadeDuringTheWait() {
	tests := []struct {
		name    string
		receipt ledger.Receipt
		want    int
	}{
		{name: "reverted", receipt: ledger.Receipt{TxHash: "0x5", Succeeded: false}, want: 3},
		{name: "confirmed", receipt: ledger.Receipt{TxHash: "0x5", Succeeded: true}, want: 1},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// Setup
			s.SetupTest()
			s.expectFunding(100, 100)
			s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil)
			s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).Return(ledger.TxHandle{Hash: "0x5"}, nil)
			s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).
				DoAndReturn(func(context.Context, ledger.TxHandle) (ledger.Receipt, error) {
					s.Equal(2, s.slip.Len(), "the slip is only cleared once the spin is confirmed")
					_, err := s.slip.Select(roulette.Black, roulette.CoveredNumbers(roulette.Black))
					s.Require().NoError(err)
					return tt.receipt, nil
				})

			// Execute
			_, _ = s.pipeline.Submit(context.Background(), s.slip, account)

			// Assert
			wagers := s.slip.Wagers()
			s.Require().Len(wagers, tt.want)
			s.Equal(roulette.Black, wagers[len(wagers)-1].BetTypeID)
		})
	}
}

func (s *PipelineTestSuite) TestSubmitConfirmationTimeoutKeepsSlipEmpty() {
	s.pipeline.cfg.ConfirmTimeout = 20 * time.Millisecond
	s.expectFunding(100, 100)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, gomock.Any()).Return(quote(), nil)
	s.ledger.EXPECT().PlaceBets(gomock.Any(), account, gomock.Any(), gomock.Any()).Return(ledger.TxHandle{Hash: "0x2"}, nil)
	s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ ledger.TxHandle) (ledger.Receipt, error) {
			<-ctx.Done()
			return ledger.Receipt{}, ctx.Err()
		})

	_, err := s.pipeline.Submit(context.Background(), s.slip, account)

	s.True(types.IsGameError(err, types.ErrTimeout))
	s.Contains(err.Error(), "still pending")
	s.Equal(0, s.slip.Len())
}

func (s *PipelineTestSuite) TestApproveExactAmount() {
	amount := entities.Tokens(250)
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, ledger.ApproveCall(spender, amount)).Return(quote(), nil)
	s.ledger.EXPECT().Approve(gomock.Any(), account, spender, amount, gomock.Any()).Return(ledger.TxHandle{Hash: "0x3"}, nil)
	s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).Return(ledger.Receipt{TxHash: "0x3", Succeeded: true}, nil)

	result, err := s.pipeline.Approve(context.Background(), account, amount)

	s.Require().NoError(err)
	s.Equal(0, result.Total.Cmp(amount))
	s.Equal(uint64(1), s.pipeline.Epoch())
}

func (s *PipelineTestSuite) TestApproveRejectsNonPositive() {
	_, err := s.pipeline.Approve(context.Background(), account, big.NewInt(0))
	s.True(types.IsGameError(err, types.ErrValidation))
}

func (s *PipelineTestSuite) TestRecoverClearsAwaitingMarker() {
	s.pipeline.Awaiting().Mark(account, "9")
	s.ledger.EXPECT().QuoteGas(gomock.Any(), account, ledger.RecoverCall()).Return(quote(), nil)
	s.ledger.EXPECT().RecoverOwnStuckGame(gomock.Any(), account, gomock.Any()).Return(ledger.TxHandle{Hash: "0x4"}, nil)
	s.ledger.EXPECT().WaitMined(gomock.Any(), gomock.Any()).Return(ledger.Receipt{TxHash: "0x4", Succeeded: true}, nil)

	_, err := s.pipeline.Recover(context.Background(), account)

	s.Require().NoError(err)
	_, waiting := s.pipeline.Awaiting().Get(account)
	s.False(waiting)
}

func TestRecoverUnsupportedOnLegacy(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := mock_ledger.NewMockLedger(ctrl)
	l.EXPECT().Capabilities().Return(ledger.CapabilitiesFor(ledger.InterfaceLegacy))

	_, err := NewPipeline(l, Config{}, nil).Recover(context.Background(), account)

	if !types.IsGameError(err, types.ErrUnsupported) {
		t.Fatalf("expected UNSUPPORTED, got %v", err)
	}
}

func TestWithMargin(t *testing.T) {
	q := WithMargin(ledger.GasQuote{Limit: 21_000, Price: big.NewInt(1_000)}, 20)

	if q.Limit != 25_200 || q.Price.Int64() != 1_200 {
		t.Fatalf("unexpected quote %d @ %s", q.Limit, q.Price)
	}
}
