package sampler

import "github.com/menta2k/image-sampler/pkg/types"

// Error kinds returned by the sampler. Both are terminal for the call that
// produced them; match them with errors.Is.
var (
	ErrInvalidArgument     = types.ErrInvalidArgument
	ErrInsufficientSamples = types.ErrInsufficientSamples
)
