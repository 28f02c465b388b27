package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pooling modes for ONNX model output.
const (
	// PoolingMean averages a [1, seq, dim] token output over the attention mask.
	PoolingMean = "mean"
	// PoolingNone reads a [1, dim] sentence output directly.
	PoolingNone = "none"
)

// ONNXConfig configures an ONNXEmbedder.
type ONNXConfig struct {
	ModelPath         string
	ModelID           string // defaults to the model file name plus a fingerprint, see defaultModelID
	TokenizerPath     string // HuggingFace tokenizer.json; empty uses SimpleTokenizer
	SharedLibraryPath string // onnxruntime shared library; empty uses the runtime default
	OutputName        string
	Pooling           string
	Dimensions        int
	MaxTokens         int
}

func (c *ONNXConfig) applyDefaults() {
	if c.ModelID == "" && c.ModelPath != "" {
		c.ModelID = defaultModelID(c.ModelPath)
	}
	if c.OutputName == "" {
		c.OutputName = "last_hidden_state"
	}
	if c.Pooling == "" {
		if c.OutputName == "last_hidden_state" {
			c.Pooling = PoolingMean
		} else {
			c.Pooling = PoolingNone
		}
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 384
	}
	if c.MaxTokens <= 2 {
		c.MaxTokens = 256
	}
}

// defaultModelID names a model by its file name and a short fingerprint of
// its absolute path, size and modification time, so two different files
// called model.onnx never share cached vectors. A missing file is
// fingerprinted by path alone.
func defaultModelID(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	h := sha256.New()
	fmt.Fprint(h, path)
	if info, err := os.Stat(path); err == nil {
		fmt.Fprintf(h, "|%d|%d", info.Size(), info.ModTime().UnixNano())
	}
	return name + "-" + hex.EncodeToString(h.Sum(nil))[:8]
}
