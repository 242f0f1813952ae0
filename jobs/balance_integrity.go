package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/moneta-app/moneta/internal/jobs"
	"github.com/moneta-app/moneta/internal/ledger"
)

// BalanceIntegrityJob recomputes every account balance from its entries and
// reports accounts whose stored balance has drifted. Administrative balance
// overrides show up here until the next override or correcting entry.
type BalanceIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBalanceIntegrityJob initialises the integrity scan handler.
func NewBalanceIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalanceIntegrityJob {
	return &BalanceIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

type accountRow struct {
	ID      uuid.UUID
	Name    string
	Balance decimal.Decimal
}

// Handle executes the integrity scan.
func (j *BalanceIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("balance integrity: handler not configured")
	}
	var payload BalanceIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Parallelism <= 0 {
		payload.Parallelism = 4
	}

	tracker := j.metrics().Track(TaskBalanceIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting balance integrity scan", slog.Int("parallelism", payload.Parallelism))

	accounts, err := j.loadAccounts(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load accounts", slog.Any("error", err))
		return resultErr
	}

	var drifted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payload.Parallelism)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			sum, err := j.signedSum(gctx, account.ID)
			if err != nil {
				return err
			}
			if !sum.Equal(account.Balance) {
				drifted.Add(1)
				j.metrics().AddDrift(account.ID.String(), 1)
				logger.Warn("account balance drift",
					slog.String("account_id", account.ID.String()),
					slog.String("account", account.Name),
					slog.String("stored", account.Balance.String()),
					slog.String("recomputed", sum.String()),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		logger.Error("integrity scan failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("balance integrity scan finished",
		slog.Int("accounts", len(accounts)),
		slog.Int64("drifted", drifted.Load()),
	)
	return nil
}

func (j *BalanceIntegrityJob) loadAccounts(ctx context.Context) ([]accountRow, error) {
	rows, err := j.Pool.Query(ctx, `SELECT id, name, balance FROM account ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []accountRow
	for rows.Next() {
		var a accountRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (j *BalanceIntegrityJob) signedSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(CASE WHEN type_id = ANY($2) THEN amount ELSE -amount END), 0)
FROM transaction WHERE account_id = $1`
	var sum decimal.Decimal
	if err := j.Pool.QueryRow(ctx, query, accountID, ledger.PlusTypeIDs()).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (j *BalanceIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *BalanceIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return nil
}
