package wallet

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)              {}
func (n *NoopMetricsCollector) RecordError(string, string)                                 {}
func (n *NoopMetricsCollector) RecordTransaction(string, decimal.Decimal)                  {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal, decimal.Decimal) {}

// LogMetricsCollector writes every measurement as a debug log record.
type LogMetricsCollector struct {
	Logger *slog.Logger
}

func (c *LogMetricsCollector) RecordOperationDuration(op string, d time.Duration) {
	c.Logger.Debug("wallet operation", "operation", op, "duration", d)
}

func (c *LogMetricsCollector) RecordError(op, code string) {
	c.Logger.Debug("wallet operation failed", "operation", op, "code", code)
}

func (c *LogMetricsCollector) RecordTransaction(txType string, amount decimal.Decimal) {
	c.Logger.Debug("wallet transaction", "type", txType, "amount", amount.String())
}

func (c *LogMetricsCollector) RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal) {
	c.Logger.Debug("wallet balance changed",
		"wallet_id", walletID, "old", oldBalance.String(), "new", newBalance.String())
}
