package image

// ValidationResult captures the outcome of payload validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// Output contains the sanitised artefacts handed to the inference layer.
type Output struct {
	Base64     string
	Bytes      []byte
	Format     string
	Validation ValidationResult
}
