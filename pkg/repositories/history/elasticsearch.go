package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/entities"
	"github.com/fadedpez/tucoroulette/pkg/roulette"
)

const indexDateLayout = "2006-01"

// ElasticsearchConfig holds configuration options for the Elasticsearch history index
type ElasticsearchConfig struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long monthly indices are kept
	RotationPeriod  time.Duration // How often the maintenance task checks for a new month
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:             "http://localhost:9200",
		IndexPrefix:     "tucoroulette",
		RetentionPeriod: 180 * 24 * time.Hour,
		RotationPeriod:  24 * time.Hour,
	}
}

// ElasticsearchRepository writes every round to a monthly index as well as to the base repository.
// Reads are served by the base repository; the index exists for search and dashboards.
type ElasticsearchRepository struct {
	baseRepo    Repository
	client      *elasticsearch.Client
	config      *ElasticsearchConfig
	indexPrefix string
	logger      *logging.Logger
	now         func() time.Time

	mu           sync.Mutex
	currentIndex string
}

// esRound is a round document in Elasticsearch
type esRound struct {
	Key           string    `json:"round_key"`
	Account       string    `json:"account"`
	Timestamp     time.Time `json:"timestamp"`
	ResultType    string    `json:"result_type"`
	WinningResult string    `json:"winning_result"`
	WinningNumber *int      `json:"winning_number,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
	TotalPayout   float64   `json:"total_payout"`
	Net           float64   `json:"net"`
	Wagers        []esWager `json:"wagers"`
}

type esWager struct {
	BetType string  `json:"bet_type"`
	Number  int     `json:"number"`
	Amount  float64 `json:"amount"`
}

// NewElasticsearchRepository creates the repository and makes sure this month's index exists
func NewElasticsearchRepository(ctx context.Context, baseRepo Repository, config *ElasticsearchConfig, logger *logging.Logger) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "tucoroulette"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 180 * 24 * time.Hour
	}
	if config.RotationPeriod == 0 {
		config.RotationPeriod = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default
	}

	repo := &ElasticsearchRepository{
		baseRepo:    baseRepo,
		client:      client,
		config:      config,
		indexPrefix: config.IndexPrefix,
		logger:      logger.WithField("component", "es_history"),
		now:         time.Now,
	}

	if err := repo.RotateIndices(ctx); err != nil {
		return nil, fmt.Errorf("error initializing indices: %w", err)
	}
	return repo, nil
}

const roundMapping = `{
	"mappings": {
		"properties": {
			"round_key": { "type": "keyword" },
			"account": { "type": "keyword" },
			"timestamp": { "type": "date" },
			"result_type": { "type": "keyword" },
			"winning_result": { "type": "keyword" },
			"winning_number": { "type": "integer" },
			"total_amount": { "type": "double" },
			"total_payout": { "type": "double" },
			"net": { "type": "double" },
			"wagers": {
				"type": "nested",
				"properties": {
					"bet_type": { "type": "keyword" },
					"number": { "type": "integer" },
					"amount": { "type": "double" }
				}
			}
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 1,
		"refresh_interval": "1s"
	}
}`

func (r *ElasticsearchRepository) aliasName() string {
	return r.indexPrefix + "_rounds"
}

func (r *ElasticsearchRepository) indexFor(t time.Time) string {
	return r.aliasName() + "_" + t.UTC().Format(indexDateLayout)
}

// RotateIndices creates the index for the current month and points the alias at it
func (r *ElasticsearchRepository) RotateIndices(ctx context.Context) error {
	target := r.indexFor(r.now())

	r.mu.Lock()
	current := r.currentIndex
	r.mu.Unlock()
	if current == target {
		return nil
	}

	res, err := r.client.Indices.Exists([]string{target}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 404 {
		req := esapi.IndicesCreateRequest{
			Index: target,
			Body:  strings.NewReader(roundMapping),
		}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", target, err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("error creating index %s: %s", target, res.String())
		}
		r.logger.Info("Created history index %s", target)
	}

	aliasActions := map[string]interface{}{
		"actions": []map[string]interface{}{
			{
				"add": map[string]interface{}{
					"index":          target,
					"alias":          r.aliasName(),
					"is_write_index": true,
				},
			},
		},
	}
	aliasJSON, err := json.Marshal(aliasActions)
	if err != nil {
		return fmt.Errorf("error marshaling alias actions: %w", err)
	}

	req := esapi.IndicesUpdateAliasesRequest{Body: bytes.NewReader(aliasJSON)}
	aliasRes, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error updating alias: %w", err)
	}
	defer aliasRes.Body.Close()
	if aliasRes.IsError() {
		return fmt.Errorf("error updating alias: %s", aliasRes.String())
	}

	r.mu.Lock()
	r.currentIndex = target
	r.mu.Unlock()
	return nil
}

// PruneOldIndices deletes monthly indices older than the retention period
func (r *ElasticsearchRepository) PruneOldIndices(ctx context.Context) error {
	indices, err := r.GetIndices(ctx, r.aliasName()+"_*")
	if err != nil {
		return err
	}

	cutoff := r.now().Add(-r.config.RetentionPeriod)
	var expired []string
	for _, name := range indices {
		month, err := time.Parse(indexDateLayout, strings.TrimPrefix(name, r.aliasName()+"_"))
		if err != nil {
			r.logger.Warn("Skipping index with unexpected name %s", name)
			continue
		}
		// an index holds a whole month; keep it until the month after it has ended
		if month.AddDate(0, 1, 0).Before(cutoff) {
			expired = append(expired, name)
		}
	}
	if len(expired) == 0 {
		return nil
	}

	sort.Strings(expired)
	res, err := r.client.Indices.Delete(expired, r.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error deleting indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error deleting indices: %s", res.String())
	}

	r.logger.Info("Pruned history indices %v", expired)
	return nil
}

// GetIndices returns a list of indices that match the given pattern
func (r *ElasticsearchRepository) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	res, err := r.client.Indices.Get(
		[]string{pattern},
		r.client.Indices.Get.WithContext(ctx),
		r.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error getting indices: %s", res.String())
	}

	var indices map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("error parsing indices response: %w", err)
	}

	indexNames := make([]string, 0, len(indices))
	for name := range indices {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)
	return indexNames, nil
}

// SaveRounds implements Repository. Index failures are logged; the base write decides the result.
func (r *ElasticsearchRepository) SaveRounds(ctx context.Context, account string, records []entities.HistoryRecord) error {
	if err := r.baseRepo.SaveRounds(ctx, account, records); err != nil {
		return err
	}
	for _, rec := range records {
		if err := r.IndexRound(ctx, rec); err != nil {
			r.logger.Warn("Failed to index round %s: %v", rec.Key, err)
		}
	}
	return nil
}

// IndexRound upserts one round document, using the round key as document id
func (r *ElasticsearchRepository) IndexRound(ctx context.Context, rec entities.HistoryRecord) error {
	index := r.indexFor(rec.Timestamp)

	body, err := json.Marshal(toESRound(rec))
	if err != nil {
		return fmt.Errorf("error marshaling round: %w", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(rec.Key),
	)
	if err != nil {
		return fmt.Errorf("error indexing round: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing round: %s", res.String())
	}
	return nil
}

// GetRounds implements Repository
func (r *ElasticsearchRepository) GetRounds(ctx context.Context, account string, limit int) ([]entities.HistoryRecord, error) {
	return r.baseRepo.GetRounds(ctx, account, limit)
}

// Close implements Repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}

// GetConfig returns the repository configuration
func (r *ElasticsearchRepository) GetConfig() ElasticsearchConfig {
	return *r.config
}

// GetIndexPrefix returns the index prefix used by the repository
func (r *ElasticsearchRepository) GetIndexPrefix() string {
	return r.indexPrefix
}

func toESRound(rec entities.HistoryRecord) esRound {
	doc := esRound{
		Key:           rec.Key,
		Account:       strings.ToLower(rec.Account),
		Timestamp:     rec.Timestamp.UTC(),
		ResultType:    string(rec.ResultType),
		WinningResult: rec.WinningResult.String(),
		TotalAmount:   tokenFloat(rec.TotalAmount),
		TotalPayout:   tokenFloat(rec.TotalPayout),
		Net:           tokenFloat(rec.Net()),
		Wagers:        make([]esWager, len(rec.Wagers)),
	}
	if n, ok := rec.WinningResult.Number(); ok {
		doc.WinningNumber = &n
	}
	for i, w := range rec.Wagers {
		doc.Wagers[i] = esWager{
			BetType: betTypeName(w.BetTypeID),
			Number:  w.Number,
			Amount:  tokenFloat(w.Amount),
		}
	}
	return doc
}

// tokenFloat converts minor units to whole tokens for aggregations; precision loss is acceptable here
func tokenFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromBigInt(v, -entities.TokenDecimals).InexactFloat64()
}

func betTypeName(id entities.BetTypeID) string {
	return roulette.Name(id)
}
