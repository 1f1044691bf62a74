// Package journal persists admission decisions to Postgres off the hot path.
// The admission loop only ever touches a bounded queue; the database write
// happens in batches on the journal's own goroutine.
package journal

import (
	"context"
	"time"

	"main/internal/bus"
	"main/internal/schema"
	"main/pkg/conn"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	defaultBuffer = 4096
	batchSize     = 128
	flushInterval = 500 * time.Millisecond
)

// Record is one persisted admission decision.
type Record struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	IntentID   uint64 `gorm:"index:idx_risk_decisions_intent"`
	StrategyID uint32
	AccountID  uint32
	SymbolID   uint32
	Action     uint16
	Reason     uint16
	ReasonText string `gorm:"size:32"`
	Price      int64
	Qty        int64
	Notional   int64
	TsDecided  int64 `gorm:"index:idx_risk_decisions_ts"`
	TraceID    uint64
}

// TableName implements the gorm table naming convention.
func (Record) TableName() string { return "risk_decisions" }

// Journal buffers decisions and writes them in batches.
type Journal struct {
	client *conn.Client
	queue  *bus.Queue[Record]
}

// Open connects to Postgres, migrates the decision table and returns a
// ready journal. Run must be started for records to reach the database.
func Open(dsn string, buffer int) (*Journal, error) {
	client, err := conn.New(conn.Option{DSN: dsn})
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}
	if err := client.DB().AutoMigrate(&Record{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate journal")
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Journal{client: client, queue: bus.NewQueue[Record](buffer)}, nil
}

// Offer enqueues a decision without blocking. When the buffer is full the
// record is dropped; losing journal rows must never stall admission.
func (j *Journal) Offer(decision schema.RiskDecision) {
	if j == nil {
		return
	}
	_ = j.queue.TryPublish(Record{
		IntentID:   decision.IntentID,
		StrategyID: decision.StrategyID,
		AccountID:  decision.AccountID,
		SymbolID:   decision.SymbolID,
		Action:     uint16(decision.Action),
		Reason:     uint16(decision.Reason),
		ReasonText: decision.Reason.String(),
		Price:      int64(decision.Price),
		Qty:        int64(decision.Qty),
		Notional:   int64(decision.Notional),
		TsDecided:  decision.TsDecided,
		TraceID:    decision.TraceID,
	})
}

// Run drains the buffer until the context is done, flushing on batch size
// or the flush interval, whichever comes first. Remaining records are
// flushed before returning.
func (j *Journal) Run(ctx context.Context) {
	if j == nil {
		return
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.client.DB().CreateInBatches(batch, batchSize).Error; err != nil {
			logs.Errorf("journal: flush %d records: %+v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case rec, ok := <-j.queue.C():
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops intake and releases the database pool.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.queue.Close()
	return j.client.Close()
}
