package generation

import "errors"

// DefaultTitle captions an image whenever no title could be obtained.
const DefaultTitle = "your dream villa"

var (
	ErrEnhancerDisabled = errors.New("prompt enhancer is not configured")
	ErrMissingPromptTag = errors.New("response has no stable_diffusion_prompt section")
	ErrMissingTitleTag  = errors.New("response has no title section")
	ErrEmptyImage       = errors.New("image backend returned an empty body")
)

// Enhancement is the outcome of Enhance. Prompt and Title are always usable;
// Err says why one or both of them are fallbacks.
type Enhancement struct {
	Prompt string
	Title  string
	Err    error
}

func (e Enhancement) Fallback() bool {
	return e.Err != nil
}

// Image is the outcome of Synthesize. Data is set only on success.
type Image struct {
	Data []byte
	Err  error
}

func (i Image) OK() bool {
	return i.Err == nil && len(i.Data) > 0
}
