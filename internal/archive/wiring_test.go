package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/SebastienMelki/linededup/internal/archive"
)

func TestNewArchiver_AcceptsS3Client(t *testing.T) {
	client, err := archive.NewS3Client(context.Background(), archive.S3Config{
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "us-east-1",
		Bucket:          "linededup-cleaned",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UsePathStyle:    true,
		Prefix:          "cleaned",
	}, nil)
	if err != nil {
		t.Fatalf("NewS3Client() error = %v", err)
	}

	var store archive.ObjectWriter = client
	if a := archive.NewArchiver(store, time.Second, nil, nil); a == nil {
		t.Fatal("NewArchiver() returned nil")
	}
}
