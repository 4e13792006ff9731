// Package validation provides centralized input validation logic.
// This includes share name validation, resource path validation, and byte
// range checks.
//
// All user inputs are validated before being sent to the service so that
// malformed requests fail fast, locally, and never hit the network.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// shareNameRe matches DNS-compliant share and container names.
var shareNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// tableNameRe matches valid table names.
var tableNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{2,62}$`)

// ValidateShareName validates that a share or container name is DNS-compliant.
// Names are 3-63 characters of lowercase letters, digits, and single dashes.
func ValidateShareName(share string) error {
	if len(share) < 3 || len(share) > 63 {
		return errors.NewShareError("validateShareName", share, errors.ErrInvalidShareName).
			WithMessage("share name must be between 3 and 63 characters")
	}
	if !shareNameRe.MatchString(share) {
		return errors.NewShareError("validateShareName", share, errors.ErrInvalidShareName).
			WithMessage("share name must contain only lowercase letters, digits, and dashes")
	}
	if strings.Contains(share, "--") {
		return errors.NewShareError("validateShareName", share, errors.ErrInvalidShareName).
			WithMessage("share name cannot contain consecutive dashes")
	}
	return nil
}

// ValidateResourcePath validates a file, directory, or blob path.
// This includes preventing path traversal and control characters.
func ValidateResourcePath(path string) error {
	if path == "" {
		return errors.NewError("validateResourcePath", errors.ErrInvalidResourcePath).
			WithMessage("resource path cannot be empty")
	}
	if hasPathTraversal(path) {
		return errors.NewError("validateResourcePath", errors.ErrInvalidResourcePath).
			WithPath(path).
			WithMessage("resource path cannot contain path traversal sequences")
	}
	if len(path) > 1024 {
		return errors.NewError("validateResourcePath", errors.ErrInvalidResourcePath).
			WithPath(path).
			WithMessage("resource path cannot exceed 1024 characters")
	}
	if hasControlCharacters(path) {
		return errors.NewError("validateResourcePath", errors.ErrInvalidResourcePath).
			WithPath(path).
			WithMessage("resource path cannot contain control characters")
	}
	return nil
}

// ValidateTableName validates a table name: 3-63 alphanumeric characters
// starting with a letter.
func ValidateTableName(table string) error {
	if !tableNameRe.MatchString(table) {
		return errors.NewError("validateTableName", errors.ErrInvalidInput).
			WithPath(table).
			WithMessage("table name must be 3-63 alphanumeric characters starting with a letter")
	}
	return nil
}

// ValidateRange validates an inclusive byte range against a resource size.
// A nil bound means "unbounded" on that side.
func ValidateRange(rangeStart, rangeEnd *int64, size int64) error {
	start := int64(0)
	if rangeStart != nil {
		start = *rangeStart
	}
	end := size - 1
	if rangeEnd != nil {
		end = *rangeEnd
	}

	if start < 0 {
		return errors.NewError("validateRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("range start %d cannot be negative", start))
	}
	if rangeEnd != nil && end < start {
		return errors.NewError("validateRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("range end %d precedes range start %d", end, start))
	}
	if size >= 0 && start > size {
		return errors.NewError("validateRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("range start %d exceeds resource size %d", start, size))
	}
	return nil
}

// ValidateWriteRange validates one range-write call. The span must be
// non-empty and no larger than the service's maximum range size; oversized
// calls fail here, before any network traffic.
func ValidateWriteRange(offset int64, length int64) error {
	if offset < 0 {
		return errors.NewError("validateWriteRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("offset %d cannot be negative", offset))
	}
	if length <= 0 {
		return errors.NewError("validateWriteRange", errors.ErrInvalidRange).
			WithMessage("range length must be positive")
	}
	if length > storagetypes.MaxRangeSize {
		return errors.NewError("validateWriteRange", errors.ErrRangeTooLarge).
			WithMessage(fmt.Sprintf("range length %d exceeds maximum range size %d",
				length, storagetypes.MaxRangeSize))
	}
	return nil
}

// ValidateDeclaredSize validates the declared size of a new file or blob.
func ValidateDeclaredSize(size int64) error {
	if size < 0 {
		return errors.NewError("validateDeclaredSize", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("declared size %d cannot be negative", size))
	}
	if size > storagetypes.MaxFileSize {
		return errors.NewError("validateDeclaredSize", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("declared size %d exceeds maximum file size %d",
				size, storagetypes.MaxFileSize))
	}
	return nil
}

// hasPathTraversal checks for ".." path segments.
func hasPathTraversal(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// hasControlCharacters checks for ASCII and Unicode control characters.
func hasControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
