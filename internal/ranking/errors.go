package ranking

import "errors"

var errNoEmbedder = errors.New("record has no vector and no embedder is configured")
