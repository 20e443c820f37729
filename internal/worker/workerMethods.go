package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/docchat-ai/docchat/internal/config"
	jobmodel "github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/metrics"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobExecutionTimeout)
	defer cancel()
	logger.With("traceId", job.TraceId)
	logger.Debug("Processing job", "jobId", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeIngest {
		job.CurrentStep = jobmodel.IngestProcessing
		job = _ragService.IngestDocument(ctx, job)
	} else {
		job = processQuery(job, ctx, logger)
	}

	job.EndTime = time.Now()
	if job.Status == jobmodel.JobStatusError {
		saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}
	saveJobState(ctx, job, jobmodel.JobStatusComplete)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func processQuery(job jobmodel.Job, ctx context.Context, logger *logger_i.Logger) jobmodel.Job {
	job.CurrentStep = jobmodel.HistoryCall
	messageHistory, err := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId, historyWindow)
	if err != nil {
		// The pipeline still works without memory; run with an empty window.
		logger.Error("Failed to get message history", "err", err)
	}

	job = _ragService.ProcessRequest(ctx, job, messageHistory)

	if job.Status != jobmodel.JobStatusError {
		saveTurns(ctx, job, logger)
	}
	return job
}

func saveTurns(ctx context.Context, job jobmodel.Job, logger *logger_i.Logger) {
	if err := _jobService.MessageStore.SaveTurn(ctx, job.ChatId, "human", job.JobPayload.Question); err != nil {
		logger.Error("Failed to save user turn", "err", err)
		return
	}
	if err := _jobService.MessageStore.SaveTurn(ctx, job.ChatId, "ai", job.JobPayload.Answer); err != nil {
		logger.Error("Failed to save assistant turn", "err", err)
	}
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
