// Package transcription drives audio transcription jobs through AWS
// Transcribe: start a job against an S3 media URI, then poll with a bounded
// retry loop until it finishes or times out.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// ErrPollTimeout is returned when a job does not reach a terminal state
// within the polling budget.
var ErrPollTimeout = errors.New("timeout when polling the transcription job")

// ErrJobFailed is returned when AWS reports the job as FAILED.
var ErrJobFailed = errors.New("transcription job failed")

const (
	defaultPollInterval = 5 * time.Second
	maxPollTries        = 60
)

// Client is the slice of the Transcribe API the service uses. Satisfied by
// *transcribe.Client; tests supply a fake.
type Client interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Service runs transcription jobs.
type Service struct {
	client       Client
	pollInterval time.Duration
}

func NewService(client Client) *Service {
	return &Service{client: client, pollInterval: defaultPollInterval}
}

// NewServiceWithInterval is used by tests to shrink the polling interval.
func NewServiceWithInterval(client Client, interval time.Duration) *Service {
	return &Service{client: client, pollInterval: interval}
}

// MediaURI builds the s3:// URI for an uploaded media object.
func MediaURI(bucket, filename, extension string) string {
	return fmt.Sprintf("s3://%s/%s.%s", bucket, filename, extension)
}

// Result holds the outcome of a finished transcription job.
type Result struct {
	JobName       string `json:"job_name"`
	TranscriptURI string `json:"transcript_uri"`
}

// Transcribe starts a job and polls it to completion. languageCode defaults
// to Indonesian, matching the app's primary audience.
func (s *Service) Transcribe(ctx context.Context, jobName, fileURI, fileFormat, languageCode string) (Result, error) {
	if languageCode == "" {
		languageCode = "id-ID"
	}
	_, err := s.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &types.Media{MediaFileUri: aws.String(fileURI)},
		MediaFormat:          types.MediaFormat(fileFormat),
		LanguageCode:         types.LanguageCode(languageCode),
	})
	if err != nil {
		return Result{}, fmt.Errorf("start transcription job: %w", err)
	}
	return s.poll(ctx, jobName)
}

// poll checks job status up to maxPollTries times, sleeping pollInterval
// between checks. COMPLETED and FAILED are terminal; anything else keeps
// waiting until the budget runs out.
func (s *Service) poll(ctx context.Context, jobName string) (Result, error) {
	for tries := maxPollTries; tries > 0; tries-- {
		out, err := s.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return Result{}, fmt.Errorf("get transcription job: %w", err)
		}

		job := out.TranscriptionJob
		switch job.TranscriptionJobStatus {
		case types.TranscriptionJobStatusCompleted:
			res := Result{JobName: jobName}
			if job.Transcript != nil && job.Transcript.TranscriptFileUri != nil {
				res.TranscriptURI = *job.Transcript.TranscriptFileUri
			}
			return res, nil
		case types.TranscriptionJobStatusFailed:
			return Result{}, ErrJobFailed
		default:
			log.Printf("transcription: job %s status %s, waiting", jobName, job.TranscriptionJobStatus)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return Result{}, ErrPollTimeout
}
