package statistics

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/repositories/history"
	"github.com/fadedpez/tucoroulette/pkg/repositories/wallet"
)

// Service builds per-account summaries and the table leaderboard from stored history
type Service struct {
	history  history.Repository
	accounts wallet.Repository
	now      func() time.Time
}

// NewService creates a new statistics service
func NewService(historyRepo history.Repository, accounts wallet.Repository) *Service {
	return &Service{
		history:  historyRepo,
		accounts: accounts,
		now:      time.Now,
	}
}

// PlayerRank represents a player's statistics with ranking information
type PlayerRank struct {
	*entities.AccountStatistics
	Rank        int
	WinRate     float64
	IsTopWinner bool
	IsTopPlayer bool
}

// Leaderboard represents a paginated leaderboard of player statistics
type Leaderboard struct {
	Players        []*PlayerRank
	TotalPlayers   int
	CurrentPage    int
	TotalPages     int
	PlayersPerPage int
	LastUpdated    time.Time
}

// Summarize aggregates reconciled rounds. Pending rounds are counted but their stake is not,
// since it is neither won nor lost yet.
func Summarize(userID, account string, records []entities.HistoryRecord) *entities.AccountStatistics {
	stats := &entities.AccountStatistics{
		UserID:       userID,
		Account:      account,
		TotalStaked:  new(big.Int),
		TotalPaidOut: new(big.Int),
	}

	for _, rec := range records {
		stats.Rounds++
		switch rec.ResultType {
		case entities.ResultTypeWin:
			stats.Wins++
		case entities.ResultTypeLoss:
			stats.Losses++
		case entities.ResultTypeEven:
			stats.Evens++
		case entities.ResultTypePending:
			stats.Pending++
			continue
		case entities.ResultTypeRecovered:
			stats.Recovered++
		case entities.ResultTypeForceStopped:
			stats.ForceStopped++
		}
		if rec.TotalAmount != nil {
			stats.TotalStaked.Add(stats.TotalStaked, rec.TotalAmount)
		}
		if rec.TotalPayout != nil {
			stats.TotalPaidOut.Add(stats.TotalPaidOut, rec.TotalPayout)
		}
		if rec.Timestamp.After(stats.LastUpdated) {
			stats.LastUpdated = rec.Timestamp
		}
	}
	return stats
}

// AccountSummary returns the statistics of one linked account
func (s *Service) AccountSummary(ctx context.Context, userID, account string) (*entities.AccountStatistics, error) {
	records, err := s.history.GetRounds(ctx, account, 0)
	if err != nil {
		return nil, err
	}
	return Summarize(userID, account, records), nil
}

// GetLeaderboard ranks every linked account that has played by net profit
func (s *Service) GetLeaderboard(ctx context.Context, page, playersPerPage int) (*Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if playersPerPage < 1 {
		playersPerPage = 10
	}

	linked, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	playerRanks := make([]*PlayerRank, 0, len(linked))
	for _, acct := range linked {
		stats, err := s.AccountSummary(ctx, acct.UserID, acct.Address)
		if err != nil {
			return nil, err
		}
		// Skip players with no rounds
		if stats.Rounds == 0 {
			continue
		}
		playerRanks = append(playerRanks, &PlayerRank{
			AccountStatistics: stats,
			WinRate:           stats.WinRate(),
		})
	}

	sort.SliceStable(playerRanks, func(i, j int) bool {
		if c := playerRanks[i].NetProfit().Cmp(playerRanks[j].NetProfit()); c != 0 {
			return c > 0
		}
		return strings.Compare(playerRanks[i].UserID, playerRanks[j].UserID) < 0
	})

	if len(playerRanks) > 0 {
		playerRanks[0].IsTopWinner = true

		mostRoundsIdx := 0
		for i := 1; i < len(playerRanks); i++ {
			if playerRanks[i].Rounds > playerRanks[mostRoundsIdx].Rounds {
				mostRoundsIdx = i
			}
		}
		playerRanks[mostRoundsIdx].IsTopPlayer = true
	}

	for i := range playerRanks {
		playerRanks[i].Rank = i + 1
	}

	totalPlayers := len(playerRanks)
	totalPages := (totalPlayers + playersPerPage - 1) / playersPerPage
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	start := (page - 1) * playersPerPage
	end := start + playersPerPage
	if end > totalPlayers {
		end = totalPlayers
	}

	currentPagePlayers := []*PlayerRank{}
	if start < totalPlayers {
		currentPagePlayers = playerRanks[start:end]
	}

	return &Leaderboard{
		Players:        currentPagePlayers,
		TotalPlayers:   totalPlayers,
		CurrentPage:    page,
		TotalPages:     totalPages,
		PlayersPerPage: playersPerPage,
		LastUpdated:    s.now(),
	}, nil
}
