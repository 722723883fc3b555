package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"spendwatch/internal/gcs"
	"spendwatch/internal/logger"
)

// Drops a local .eml file into a bucket, which triggers ingestion when the
// bucket's change notifications are wired to the event queue.
func main() {
	log := logger.New()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", "", "Bucket name (required)")
	flag.StringVar(&objectName, "object", "", "Object name (optional; defaults to file name)")
	flag.StringVar(&filePath, "file", "", "Path to local .eml file (required)")
	flag.Parse()

	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload-email -bucket BUCKET_NAME -file /path/to/email.eml [-object OBJECT_NAME]")
	}

	if objectName == "" {
		objectName = filepath.Base(filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}
	defer client.Close()

	log.Info().Str("bucket", bucketName).Str("object", objectName).Str("file", filePath).
		Msg("Uploading email")

	if err := client.UploadFile(ctx, bucketName, objectName, filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", filePath, gcs.URI(bucketName, objectName))
}
