package hl7v2

// Config controls how tolerant the parser is toward vendor deviations.
//
// StrictMode enables required-segment and unknown-segment errors. In lenient
// mode (the default) unknown segments are dropped and structural validation
// is skipped, which is how a live clinical pipeline survives vendor quirks.
//
// ValidateChecksum is an advisory hook reserved for interfaces that carry a
// batch checksum; the parser records it but performs no enforcement.
//
// SupportedVersions is advisory metadata about which HL7 versions the caller
// expects; the parser does not reject other versions.
//
// AllowCustomSegments permits syntactically valid 3-letter segment ids that
// are absent from the registry, even in strict mode (Z-segments and other
// site-defined extensions).
type Config struct {
	StrictMode          bool
	ValidateChecksum    bool
	SupportedVersions   []string
	AllowCustomSegments bool
}

// DefaultConfig returns the lenient configuration used by the live pipeline.
func DefaultConfig() Config {
	return Config{
		StrictMode:          false,
		ValidateChecksum:    false,
		SupportedVersions:   []string{"2.3", "2.3.1", "2.4", "2.5", "2.5.1", "2.6"},
		AllowCustomSegments: true,
	}
}
