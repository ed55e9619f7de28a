package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StaleFailer 由 postgres.ContractRepo 实现
type StaleFailer interface {
	FailStale(ctx context.Context, before time.Time) (int64, error)
}

// FailStale 把超过 staleAfter 仍处于 analyzing 的合同标记为失败
func FailStale(ctx context.Context, repo StaleFailer, staleAfter time.Duration, now time.Time) (int64, error) {
	rows, err := repo.FailStale(ctx, now.Add(-staleAfter))
	if err != nil {
		return 0, fmt.Errorf("fail stale contracts: %w", err)
	}
	return rows, nil
}

// StartCronJob 按 5 段 cron 表达式定期清理卡住的分析记录, 返回的 cron 由调用方 Stop
func StartCronJob(repo StaleFailer, spec string, staleAfter time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		rows, err := FailStale(ctx, repo, staleAfter, time.Now())
		if err != nil {
			slog.Error("cron: stale sweep failed", "err", err)
			return
		}
		if rows > 0 {
			slog.Info("cron: marked stale contracts as failed", "count", rows)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
