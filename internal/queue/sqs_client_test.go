package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSendsEncodedBody(t *testing.T) {
	fake := &fakeSender{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.local/q"}

	if err := client.Send(context.Background(), Message{JobID: "job_1", Version: MessageVersion}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.local/q" {
		t.Fatalf("unexpected queue url %q", aws.ToString(fake.input.QueueUrl))
	}
	got, err := DecodeMessage([]byte(aws.ToString(fake.input.MessageBody)))
	if err != nil || got.JobID != "job_1" {
		t.Fatalf("unexpected body %q err=%v", aws.ToString(fake.input.MessageBody), err)
	}
}

func TestSQSClientWrapsSendError(t *testing.T) {
	boom := errors.New("throttled")
	client := &SQSClient{client: &fakeSender{err: boom}, queueURL: "q"}
	if err := client.Send(context.Background(), Message{JobID: "job_1"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewSQSClientRequiresQueueURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
}
