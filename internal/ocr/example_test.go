package ocr_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"irsaliye/internal/ocr"
	"irsaliye/internal/quota"
	"irsaliye/internal/waybill"
)

// Example demonstrates reading a waybill photo with the Vision recognizer.
func Example() {
	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Track monthly usage against the free tier
	counter := quota.NewFileCounter("./vision-usage.json", quota.DefaultMonthlyLimit)

	// Create recognizer - credentials handled internally from environment
	recognizer, err := ocr.NewGoogleVisionRecognizer(ctx, counter)
	if err != nil {
		log.Fatal(err)
	}
	defer recognizer.Close()

	// Read the waybill photo
	image, err := os.ReadFile("waybill.jpg")
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	recognition, err := recognizer.Recognize(ctx, image)
	if err != nil {
		log.Fatalf("Recognition failed: %v", err)
	}

	// Extract structured fields from the recognized text
	result := waybill.Extract(recognition.FullText, recognition.Tokens)

	fmt.Printf("Plate: %s\n", result.Data.PlateNumber)
	fmt.Printf("Quantity: %s %s\n", result.Data.Quantity, result.Data.Unit)
	fmt.Printf("Confidence: %d%%\n", result.Confidence)
}
