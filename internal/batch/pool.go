// Package batch runs contact enrichment in fixed-size concurrent batches.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/person-enricher/internal/model"
)

// DefaultSize is the number of contacts enriched concurrently per batch.
const DefaultSize = 5

// Func enriches a single contact and returns its updated copy. A returned
// error marks the contact as failed; if the returned contact is already in
// error status it is kept as is so that accrued cost survives.
type Func func(ctx context.Context, c model.Contact) (model.Contact, error)

// Progress is the aggregate state after a completed batch.
type Progress struct {
	Batch     int
	Batches   int
	Processed int
	Total     int
	Enriched  int
	Failed    int
	Cost      float64
	Percent   float64
	Elapsed   time.Duration
}

// Summary describes a finished run.
type Summary struct {
	Total      int     `json:"total"`
	Processed  int     `json:"processed"`
	Enriched   int     `json:"enriched"`
	InProgress int     `json:"in_progress"`
	Failed     int     `json:"failed"`
	Pending    int     `json:"pending"`
	Cost       float64 `json:"cost"`
}

// SuccessRate is the share of all contacts that ended enriched, in percent.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Enriched) / float64(s.Total) * 100
}

// Pool bounds how many contacts are enriched at once.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// NewPool creates a pool with the given batch size. Sizes below 1 use DefaultSize.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Size returns the batch size.
func (p *Pool) Size() int {
	return p.size
}

// Run enriches contacts in consecutive batches. Every contact of a batch is
// marked in-progress and the batch is awaited in full before the next one
// starts. onBatch, if set, is called once per completed batch.
//
// When ctx is cancelled, contacts of the current batch that never started
// are marked error and later batches are left pending. Run returns the
// updated contacts in input order, the summary, and ctx's error if the run
// was cut short.
func (p *Pool) Run(ctx context.Context, contacts []model.Contact, fn Func, onBatch func(Progress)) ([]model.Contact, Summary, error) {
	results := make([]model.Contact, len(contacts))
	for i, c := range contacts {
		results[i] = c.Clone()
	}

	total := len(results)
	batches := (total + p.size - 1) / p.size
	prog := Progress{Batches: batches, Total: total}
	start := time.Now()

	var runErr error
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		lo := b * p.size
		hi := min(lo+p.size, total)
		batchStart := time.Now()

		for i := lo; i < hi; i++ {
			if err := results[i].Transition(model.StatusInProgress); err != nil {
				zap.L().Warn("batch: contact cannot start",
					zap.String("contact", results[i].ID),
					zap.Error(err),
				)
			}
		}

		started := make([]bool, hi-lo)
		var g errgroup.Group
		for i := lo; i < hi; i++ {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				runErr = err
				break
			}
			started[i-lo] = true
			i := i
			g.Go(func() error {
				defer p.sem.Release(1)
				results[i] = runOne(ctx, results[i], fn)
				return nil
			})
		}
		_ = g.Wait()

		for i := lo; i < hi; i++ {
			if !started[i-lo] {
				markFailed(&results[i], fmt.Sprintf("batch aborted: %v", runErr))
			}
		}

		prog.Batch = b + 1
		for i := lo; i < hi; i++ {
			prog.Processed++
			prog.Cost += results[i].Cost
			switch results[i].Status {
			case model.StatusEnriched:
				prog.Enriched++
			case model.StatusError:
				prog.Failed++
			}
		}
		prog.Percent = float64(prog.Processed) / float64(total) * 100
		prog.Elapsed = time.Since(start)

		zap.L().Debug("batch: complete",
			zap.Int("batch", prog.Batch),
			zap.Int("of", batches),
			zap.Duration("duration", time.Since(batchStart)),
		)
		if onBatch != nil {
			onBatch(prog)
		}
		if runErr != nil {
			break
		}
	}

	return results, Summarize(results), runErr
}

// Summarize counts contacts by status and totals their cost.
func Summarize(contacts []model.Contact) Summary {
	s := Summary{Total: len(contacts)}
	for _, c := range contacts {
		s.Cost += c.Cost
		switch c.Status {
		case model.StatusEnriched:
			s.Enriched++
		case model.StatusError:
			s.Failed++
		case model.StatusInProgress:
			s.InProgress++
		default:
			s.Pending++
		}
	}
	s.Processed = s.Enriched + s.Failed + s.InProgress
	return s
}

func runOne(ctx context.Context, c model.Contact, fn Func) (out model.Contact) {
	log := zap.L().With(zap.String("contact", c.ID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("batch: enrichment panicked", zap.Any("panic", r))
			out = c
			markFailed(&out, fmt.Sprintf("panic: %v", r))
		}
	}()

	res, err := fn(ctx, c)
	if err == nil {
		return res
	}

	log.Error("batch: enrichment failed", zap.Error(err))
	if res.ID == c.ID && res.Status == model.StatusError {
		return res
	}
	out = c
	markFailed(&out, err.Error())
	return out
}

func markFailed(c *model.Contact, reason string) {
	if c.Status == model.StatusError {
		return
	}
	if err := c.Fail(reason); err != nil {
		zap.L().Warn("batch: cannot mark contact failed",
			zap.String("contact", c.ID),
			zap.Error(err),
		)
	}
}
