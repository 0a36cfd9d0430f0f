package Payments

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"FuelDoor/Models"
)

const (
	UTRMinLength = 12
	UTRMaxLength = 22

	// 5 MiB; a file of exactly this size is still accepted.
	MaxScreenshotBytes = 5 * 1024 * 1024
)

var utrPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ValidateUTR checks the bank transaction reference: required, 12-22
// characters inclusive, letters and digits only.
func ValidateUTR(utr string) error {
	trimmed := strings.TrimSpace(utr)
	if trimmed == "" {
		return Models.NewValidationError("UTR number is required")
	}
	if len(trimmed) < UTRMinLength || len(trimmed) > UTRMaxLength {
		return Models.NewValidationError("UTR number must be between 12 and 22 characters")
	}
	if !utrPattern.MatchString(trimmed) {
		return Models.NewValidationError("UTR number must contain only letters and numbers")
	}
	return nil
}

// ValidateScreenshot checks the payment screenshot before anything touches
// storage: JPG or PNG, at most 5MB.
func ValidateScreenshot(filename, contentType string, size int64) error {
	if filename == "" {
		return Models.NewValidationError("Payment screenshot is required")
	}

	ext := FileExtension(filename)
	if !allowedExtensions[ext] || (contentType != "" && !allowedContentTypes[contentType]) {
		return Models.NewValidationError("Only JPG and PNG image files are allowed")
	}

	if size > MaxScreenshotBytes {
		sizeMB := float64(size) / (1024 * 1024)
		return Models.NewValidationError(
			fmt.Sprintf("File size (%.2fMB) exceeds maximum allowed size of 5MB", sizeMB))
	}
	return nil
}

// ScreenshotKey builds the deterministic storage key for an uploaded proof.
func ScreenshotKey(orderCode, filename string, now time.Time) string {
	return fmt.Sprintf("%s_%d.%s", orderCode, now.UnixMilli(), FileExtension(filename))
}

func FileExtension(filename string) string {
	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[len(parts)-1])
}
