package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 so names fit a single display line and a VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// MaxPathDepth is the deepest folder nesting accepted, root included.
	// Station document sets are shallow; anything deeper is a client bug.
	MaxPathDepth = 32

	// MaxUploadSize caps a whole multipart upload request.
	MaxUploadSize = 32 << 20

	// MaxFileSize caps one uploaded file; larger files are skipped and reported.
	MaxFileSize = 10 << 20

	// ScanHistoryKey is the fixed blob key for saved scan results.
	ScanHistoryKey = "fcc_scanned_documents"
)
