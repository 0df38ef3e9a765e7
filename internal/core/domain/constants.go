package domain

import "errors"

var (
	ErrEmptyInput         = errors.New("empty query and no image")
	ErrMissingCredential  = errors.New("upstream credential not configured")
	ErrModelsExhausted    = errors.New("all upstream models failed")
	ErrEmptyCompletion    = errors.New("upstream returned no completion")
	ErrNoModelsConfigured = errors.New("no upstream models configured")
)

const (
	DefaultLanguage    = "English"
	ImagePlaceholder   = "Sent an image"
	MissingKeyReply    = "API Key missing"
	OverloadedReply    = "Server overloaded. Try again."
	DefaultImageQuery  = "Analyze this image and identify any crop, pest, disease or nutrient problem you can see."
	ImageInstruction   = "\n\nAn image is attached. Examine it carefully and base your diagnosis on what it shows."
	LanguageDirective  = "\n\nIMPORTANT: Respond entirely in %s."
	StatsCostFormat    = "$%.6f"
	DefaultHistoryCap  = 20
	DefaultReplayDepth = 5
)
