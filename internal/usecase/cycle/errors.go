package cycle

import "errors"

var (
	// ErrAllDuplicates means every candidate the generation loop produced
	// matched a previously published post. Expected when trending topics
	// genuinely recycle; the cycle skips posting rather than repeating itself.
	ErrAllDuplicates = errors.New("all candidates duplicated previous posts")

	// ErrPublish means a candidate was accepted but delivery to the platform
	// failed. Nothing is recorded in the dedup cache, so the next cycle is
	// free to retry the same content.
	ErrPublish = errors.New("publish failed")
)
