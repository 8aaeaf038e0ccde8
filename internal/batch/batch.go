// Package batch runs a translation or proofreading job: TM pre-fill,
// chunking, one provider call per chunk and the final in-order merge.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/assembler"
	"github.com/oukeidos/vertaal/internal/chunker"
	"github.com/oukeidos/vertaal/internal/figures"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/oukeidos/vertaal/internal/response"
	"github.com/oukeidos/vertaal/internal/tm"
	"github.com/oukeidos/vertaal/internal/trackchanges"
)

const DefaultChunkSize = 100

var defaultQPS = 3
var defaultRampUp = 2 * time.Second

// Job describes one run. Segments, TM, Changes and Figures are read-only
// for the duration of Run.
type Job struct {
	Mode     ingest.Mode
	Segments []ingest.Segment

	ChunkSize int
	// Concurrency above 1 dispatches chunks from a bounded worker pool.
	Concurrency int

	TM            *tm.Memory
	Changes       *trackchanges.Matcher
	MaxChanges    int
	ChangesBudget int
	Figures       figures.Set

	SourceLang     string
	TargetLang     string
	Instructions   string
	SystemTemplate string

	OnProgress func(Progress)
}

// Orchestrator dispatches a Job's chunks to a single provider.
type Orchestrator struct {
	provider provider.Provider
}

func New(p provider.Provider) *Orchestrator {
	return &Orchestrator{provider: p}
}

// chunkResult is written exactly once per chunk.
type chunkResult struct {
	done      bool
	failed    bool
	err       error
	translate map[int]string
	proofread map[int]response.Revision
}

// Run processes every segment of job. It only returns an error for an
// invalid job; provider failures and cancellation end up as placeholders in
// the outcome.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Outcome, error) {
	if o.provider == nil {
		return nil, apperrors.Configf("no provider configured")
	}
	if job.ChunkSize <= 0 {
		return nil, apperrors.Configf("chunk size must be greater than 0, got %d", job.ChunkSize)
	}
	if job.Mode != ingest.ModeTranslate && job.Mode != ingest.ModeProofread {
		return nil, apperrors.Configf("unknown mode %q", job.Mode)
	}

	runID := uuid.NewString()
	log := logger.With("batch").With("run_id", runID, "mode", string(job.Mode))

	tmHits := make(map[int]string)
	pending := make([]int, 0, len(job.Segments))
	for i, seg := range job.Segments {
		if job.Mode == ingest.ModeTranslate && job.TM.Len() > 0 {
			if hit, ok := job.TM.Lookup(seg.Source); ok {
				tmHits[i] = hit
				continue
			}
		}
		pending = append(pending, i)
	}
	if job.Mode == ingest.ModeTranslate && job.TM.Len() > 0 {
		log.Info("Applied translation memory", "hits", len(tmHits), "entries", job.TM.Len())
	}

	chunks := chunker.Partition(pending, job.ChunkSize)
	log.Info("Dispatching chunks", "segments", len(pending), "chunks", len(chunks), "chunk_size", job.ChunkSize, "provider", o.provider.Name(), "model", o.provider.Model())

	results := o.dispatch(ctx, job, chunks)
	outcome := merge(job, chunks, results, tmHits)
	outcome.RunID = runID
	outcome.Canceled = ctx.Err() != nil

	log.Info("Batch finished",
		"tm_hits", outcome.TMHits,
		"model_lines", outcome.ModelLines,
		"failed_chunks", outcome.FailedChunks,
		"placeholders", outcome.PlaceholderLines,
		"canceled", outcome.Canceled)
	return outcome, nil
}

func (o *Orchestrator) request(job Job, sources, targets []string, c chunker.Chunk) assembler.Request {
	req := assembler.Request{
		SourceLang:     job.SourceLang,
		TargetLang:     job.TargetLang,
		SourceDoc:      sources,
		Instructions:   job.Instructions,
		SystemTemplate: job.SystemTemplate,
		ChangesBudget:  job.ChangesBudget,
		Figures:        job.Figures,
	}
	if job.Mode == ingest.ModeProofread {
		req.TargetDoc = targets
	}

	chunkSources := make([]string, len(c.Indices))
	req.Lines = make([]assembler.Line, len(c.Indices))
	for i, idx := range c.Indices {
		seg := job.Segments[idx]
		chunkSources[i] = seg.Source
		req.Lines[i] = assembler.Line{Number: seg.Line, Source: seg.Source, Target: seg.Target}
	}
	if job.Changes != nil && job.Changes.Len() > 0 {
		limit := job.MaxChanges
		if limit <= 0 {
			limit = trackchanges.DefaultMaxPairs
		}
		req.Changes = job.Changes.FindRelevant(chunkSources, limit)
	}
	return req
}

func (o *Orchestrator) dispatch(ctx context.Context, job Job, chunks []chunker.Chunk) []chunkResult {
	results := make([]chunkResult, len(chunks))
	if len(chunks) == 0 {
		return results
	}

	sources := ingest.Sources(job.Segments)
	var targets []string
	if job.Mode == ingest.ModeProofread {
		targets = ingest.Targets(job.Segments)
	}

	report := func(i int, state State, err error) {
		if job.OnProgress == nil {
			return
		}
		job.OnProgress(Progress{
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Lines:       chunks[i].Lines(),
			State:       state,
			Error:       err,
		})
	}
	for i := range chunks {
		report(i, StatePending, nil)
	}

	workers := job.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	var rateCh <-chan time.Time
	if workers > 1 {
		ch, stop := newRateLimiter(defaultQPS)
		defer stop()
		rateCh = ch
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	jobs := make(chan int, len(chunks))
	for i := range chunks {
		jobs <- i
	}
	close(jobs)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			if delay := rampDelay(worker, workers, defaultRampUp); delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				if rateCh != nil {
					select {
					case <-ctx.Done():
						return
					case <-rateCh:
					}
				}

				req := o.request(job, sources, targets, chunks[i])
				logger.Info("Sending chunk", "chunk", i+1, "chunks", len(chunks), "lines", len(req.Lines), "changes", len(req.Changes))
				report(i, StateSent, nil)

				var res chunkResult
				res.done = true
				if job.Mode == ingest.ModeTranslate {
					tr := o.provider.SendTranslationRequest(ctx, req)
					res.translate, res.failed, res.err = tr.Lines, tr.Failed, tr.Err
				} else {
					pr := o.provider.SendProofreadRequest(ctx, req)
					res.proofread, res.failed, res.err = pr.Lines, pr.Failed, pr.Err
				}

				mu.Lock()
				results[i] = res
				mu.Unlock()

				if res.failed {
					logger.Error("Chunk failed", "chunk", i+1, "error", res.err)
					report(i, StateFailed, res.err)
				} else {
					report(i, StateParsed, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	for i := range chunks {
		if results[i].done {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = apperrors.New(apperrors.KindTransient, "Chunk was not dispatched.", nil)
		}
		logger.Warn("Chunk not dispatched", "chunk", i+1, "error", err)
		results[i] = undispatched(job, chunks[i], err)
		report(i, StateFailed, err)
	}
	return results
}

// undispatched fills a chunk that never reached the provider with the same
// placeholders a failed call would produce.
func undispatched(job Job, c chunker.Chunk, err error) chunkResult {
	res := chunkResult{done: true, failed: true, err: err}
	msg := "Run canceled."
	if !isCanceled(err) {
		msg = apperrors.PublicMessage(err)
	}
	if job.Mode == ingest.ModeTranslate {
		res.translate = make(map[int]string, len(c.Indices))
		for _, idx := range c.Indices {
			n := job.Segments[idx].Line
			res.translate[n] = fmt.Sprintf("[TL Err line %d: %s]", n, msg)
		}
		return res
	}
	res.proofread = make(map[int]response.Revision, len(c.Indices))
	for _, idx := range c.Indices {
		seg := job.Segments[idx]
		res.proofread[seg.Line] = response.Revision{
			Revised:  seg.Target,
			Summary:  fmt.Sprintf("[Proofread Err line %d: %s]", seg.Line, msg),
			Original: seg.Target,
			Failed:   true,
		}
	}
	return res
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func newRateLimiter(qps int) (<-chan time.Time, func()) {
	if qps <= 0 {
		return nil, func() {}
	}
	ticker := time.NewTicker(time.Second / time.Duration(qps))
	return ticker.C, ticker.Stop
}

func rampDelay(worker, concurrency int, ramp time.Duration) time.Duration {
	if ramp <= 0 || concurrency <= 1 {
		return 0
	}
	return time.Duration(int64(ramp) * int64(worker) / int64(concurrency-1))
}
