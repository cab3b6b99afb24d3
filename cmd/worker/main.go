package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/Wayne-Yuw/toolscout-ai/internal/bootstrap"
	"github.com/Wayne-Yuw/toolscout-ai/internal/queue"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/workerproc"
)

const defaultVisibilitySeconds = 1200

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.Env, cfg.LogFormat)
	defer telemetry.Sync()

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("RA_SQS_QUEUE_URL is required")
	}
	if cfg.JobStore != "redis" {
		log.Fatal("JOB_STORE=redis is required so the API can read worker results")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("RA_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := max(1, cfg.WorkerCount)

	awsCfg, err := queue.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	// Jobs outlive the poll context so a SIGTERM lets in-flight LLM calls finish.
	app, err := bootstrap.BuildWorker(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.start", map[string]any{"queue_url": queueURL, "concurrency": concurrency, "visibility_seconds": visibilitySeconds})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(runCtx, sqsClient, queueURL, app.Runner, m)
			}(msg)
		}
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Error("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
		cancelRuns()
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage runs one task. The message is deleted once the job reached a
// terminal state or the payload can never be processed; store failures leave
// it on the queue for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, runner workerproc.TaskRunner, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", "")
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		event := "worker.job.decode_failed"
		var empty workerproc.ErrEmptyBody
		var missing workerproc.ErrMissingJobID
		switch {
		case errors.As(err, &empty):
			event = "worker.job.empty_body"
		case errors.As(err, &missing):
			event = "worker.job.missing_id"
			if missing.RequestID != "" {
				fields["request_id"] = missing.RequestID
			}
		default:
			fields["error"] = err.Error()
		}
		telemetry.Error(event, fields)
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.IncJobFailed("unrecoverable_message")
		}
		return
	}

	telemetry.Info("worker.job.received", baseFields(msg, decoded.JobID, decoded.RequestID))

	if err := workerproc.HandleMessage(ctx, runner, decoded); err != nil {
		fields := baseFields(msg, decoded.JobID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.job.failed", fields)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.JobID, decoded.RequestID) {
		telemetry.Info("worker.job.done", baseFields(msg, decoded.JobID, decoded.RequestID))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, jobID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, jobID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, jobID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, jobID, requestID string) map[string]any {
	fields := map[string]any{
		"job_id":         jobID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	parsed, err := strconv.Atoi(msg.Attributes["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
