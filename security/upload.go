package security

import "strings"

// UploadResult is the outcome of ValidateFileUpload.
type UploadResult string

const (
	UploadValid                UploadResult = "valid"
	UploadFileTooLarge         UploadResult = "file_too_large"
	UploadInvalidFileType      UploadResult = "invalid_file_type"
	UploadInvalidFileExtension UploadResult = "invalid_file_extension"
	UploadSuspiciousFileName   UploadResult = "suspicious_file_name"
)

const suspiciousFileNameChars = `<>:"/\|?*`

// UploadPolicy constrains accepted uploads.
type UploadPolicy struct {
	MaxSizeBytes      int64    `mapstructure:"max_size_bytes" env:"MAX_SIZE_BYTES" envDefault:"10485760"`
	AllowedMimeTypes  []string `mapstructure:"allowed_mime_types" env:"ALLOWED_MIME_TYPES" envSeparator:","`
	AllowedExtensions []string `mapstructure:"allowed_extensions" env:"ALLOWED_EXTENSIONS" envSeparator:","`
}

// DefaultUploadPolicy accepts common images and PDFs up to 10MB.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxSizeBytes:      10 * 1024 * 1024,
		AllowedMimeTypes:  []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"},
		AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp", "pdf"},
	}
}

// FileUpload describes a candidate upload.
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
}

// ValidateFileUpload checks size, MIME type, extension and file name, in
// that order, and returns the first failure.
func ValidateFileUpload(file FileUpload, policy UploadPolicy) UploadResult {
	if file.Size > policy.MaxSizeBytes {
		return UploadFileTooLarge
	}

	if !containsFold(policy.AllowedMimeTypes, file.MimeType) {
		return UploadInvalidFileType
	}

	if !containsFold(policy.AllowedExtensions, FileExtension(file.Name)) {
		return UploadInvalidFileExtension
	}

	if strings.ContainsAny(file.Name, suspiciousFileNameChars) {
		return UploadSuspiciousFileName
	}

	return UploadValid
}

// FileExtension returns the lower-cased text after the last ".", or "".
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}
