package pii

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

// maxSeqLen matches the model's max_position_embeddings. Longer inputs are
// truncated; e-SIC requests are short and rarely get near this.
const maxSeqLen = 512

// minTokenConfidence gates per-token predictions; below it a token is
// treated as outside any entity.
const minTokenConfidence = 0.5

// ONNXEntityTagger implements EntityTagger with a quantized
// token-classification model run through ONNX Runtime.
type ONNXEntityTagger struct {
	mu           sync.Mutex
	tokenizer    *tokenizers.Tokenizer
	session      *onnxruntime.AdvancedSession
	inputTensor  *onnxruntime.Tensor[int64]
	maskTensor   *onnxruntime.Tensor[int64]
	outputTensor *onnxruntime.Tensor[float32]
	id2label     map[string]string
	numLabels    int
	modelPath    string
}

// safeUintToInt safely converts a uint to int with bounds checking
// Returns maxInt if the value would overflow
func safeUintToInt(val uint) int {
	const maxInt = int(^uint(0) >> 1)
	if val <= uint(maxInt) {
		// #nosec G115 - Safe conversion with bounds checking
		return int(val)
	}
	return maxInt
}

// NewONNXEntityTagger creates a tagger from a model file, a tokenizer file
// and a label-mapping file. The ONNX Runtime shared library path comes from
// ONNXRUNTIME_SHARED_LIBRARY_PATH, falling back to a couple of conventional
// locations.
func NewONNXEntityTagger(modelPath, tokenizerPath, labelMapPath string) (*ONNXEntityTagger, error) {
	onnxLibPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	if onnxLibPath == "" {
		for _, path := range []string{
			"./libonnxruntime.so",
			"./build/libonnxruntime.so",
			"./libonnxruntime.1.23.1.dylib",
			"./build/libonnxruntime.1.23.1.dylib",
		} {
			if _, err := os.Stat(path); err == nil {
				onnxLibPath = path
				break
			}
		}
	}
	if onnxLibPath != "" {
		onnxruntime.SetSharedLibraryPath(onnxLibPath)
	}

	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX Runtime environment: %w", err)
		}
	}

	tk, err := tokenizers.FromFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	labelData, err := os.ReadFile(labelMapPath) // #nosec G304 - path comes from validated model directory
	if err != nil {
		if closeErr := tk.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close tokenizer during cleanup: %v\n", closeErr)
		}
		return nil, fmt.Errorf("failed to read label mappings: %w", err)
	}

	var labelConfig struct {
		ID2Label map[string]string `json:"id2label"`
		Label2ID map[string]int    `json:"label2id"`
	}
	if err := json.Unmarshal(labelData, &labelConfig); err != nil {
		if closeErr := tk.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close tokenizer during cleanup: %v\n", closeErr)
		}
		return nil, fmt.Errorf("failed to parse label mappings: %w", err)
	}

	// Label count is max ID + 1; the -100 IGNORE label does not count.
	numLabels := 0
	for idStr := range labelConfig.ID2Label {
		if idStr == "-100" {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(idStr, "%d", &id); err == nil {
			if id >= numLabels {
				numLabels = id + 1
			}
		}
	}
	if numLabels == 0 {
		numLabels = len(labelConfig.Label2ID)
	}
	if numLabels == 0 {
		if closeErr := tk.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close tokenizer during cleanup: %v\n", closeErr)
		}
		return nil, fmt.Errorf("label mappings at %s define no labels", labelMapPath)
	}

	return &ONNXEntityTagger{
		tokenizer: tk,
		id2label:  labelConfig.ID2Label,
		numLabels: numLabels,
		modelPath: modelPath,
	}, nil
}

// GetName returns the name of this tagger
func (t *ONNXEntityTagger) GetName() string {
	return DetectorNameONNX
}

// Tag runs token classification over the text and returns merged entity
// spans. The session reuses pre-allocated tensors, so inference is serialized
// internally; callers may still share one tagger across goroutines.
func (t *ONNXEntityTagger) Tag(ctx context.Context, text string) ([]TaggedSpan, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.session == nil {
		if err := t.initializeSession(); err != nil {
			return nil, fmt.Errorf("failed to initialize session: %w", err)
		}
	}

	encoding := t.tokenizer.EncodeWithOptions(text, true, tokenizers.WithReturnOffsets())
	tokenIDs := encoding.IDs
	offsets := encoding.Offsets
	if len(tokenIDs) > maxSeqLen {
		tokenIDs = tokenIDs[:maxSeqLen]
		offsets = offsets[:maxSeqLen]
	}

	inputIDs := make([]int64, len(tokenIDs))
	attentionMask := make([]int64, len(tokenIDs))
	for i := range tokenIDs {
		inputIDs[i] = int64(tokenIDs[i])
		attentionMask[i] = 1
	}

	t.updateInputTensors(inputIDs, attentionMask)

	if err := t.session.Run(); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	labels := t.decodeTokenLabels(len(tokenIDs))
	return mergeBIOSpans(text, labels, offsets), nil
}

// tokenLabel is one token's predicted label with its softmax confidence.
type tokenLabel struct {
	label      string
	confidence float64
}

// decodeTokenLabels converts raw logits into per-token labels, applying the
// confidence gate.
func (t *ONNXEntityTagger) decodeTokenLabels(numTokens int) []tokenLabel {
	outputData := t.outputTensor.GetData()
	labels := make([]tokenLabel, 0, numTokens)

	for i := 0; i < numTokens; i++ {
		startIdx := i * t.numLabels
		endIdx := (i + 1) * t.numLabels
		if endIdx > len(outputData) {
			break
		}
		logits := outputData[startIdx:endIdx]

		maxLogit := float64(-math.MaxFloat64)
		bestClass := 0
		for j, logit := range logits {
			if float64(logit) > maxLogit {
				maxLogit = float64(logit)
				bestClass = j
			}
		}

		label, exists := t.id2label[fmt.Sprintf("%d", bestClass)]
		if !exists {
			label = "O"
		}

		// softmax over the token's logits
		var sum float64
		for _, logit := range logits {
			sum += math.Exp(float64(logit))
		}
		confidence := math.Exp(maxLogit) / sum
		if confidence < minTokenConfidence {
			label = "O"
		}

		labels = append(labels, tokenLabel{label: label, confidence: confidence})
	}

	return labels
}

// mergeBIOSpans groups consecutive B-/I- tokens of the same base label into
// spans anchored to the original text via token offsets.
func mergeBIOSpans(text string, labels []tokenLabel, offsets []tokenizers.Offset) []TaggedSpan {
	numTokens := len(labels)
	if len(offsets) < numTokens {
		numTokens = len(offsets)
	}

	var spans []TaggedSpan
	var current *TaggedSpan
	var lastTokenIdx int

	finalize := func() {
		if current == nil {
			return
		}
		endOffset := offsets[lastTokenIdx]
		current.EndPos = safeUintToInt(endOffset[1])
		current.Text = text[current.StartPos:current.EndPos]
		spans = append(spans, *current)
		current = nil
	}

	for i := 0; i < numTokens; i++ {
		label := labels[i].label
		isBeginning := strings.HasPrefix(label, "B-")
		isInside := strings.HasPrefix(label, "I-")
		baseLabel := strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-")

		switch {
		case label != "O" && (isBeginning || current == nil):
			finalize()
			current = &TaggedSpan{
				Label:      baseLabel,
				StartPos:   safeUintToInt(offsets[i][0]),
				Confidence: labels[i].confidence,
			}
			lastTokenIdx = i
		case label != "O" && isInside && current != nil && current.Label == baseLabel:
			lastTokenIdx = i
			current.Confidence = (current.Confidence + labels[i].confidence) / 2
		default:
			finalize()
		}
	}
	finalize()

	return spans
}

// initializeSession initializes the ONNX session and tensors
func (t *ONNXEntityTagger) initializeSession() error {
	batchSize := int64(1)
	inputShape := onnxruntime.NewShape(batchSize, int64(maxSeqLen))

	inputTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSeqLen))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}

	maskTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSeqLen))
	if err != nil {
		if destroyErr := inputTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy input tensor during cleanup: %v\n", destroyErr)
		}
		return fmt.Errorf("failed to create mask tensor: %w", err)
	}

	outputShape := onnxruntime.NewShape(batchSize, int64(maxSeqLen), int64(t.numLabels))
	outputTensor, err := onnxruntime.NewEmptyTensor[float32](outputShape)
	if err != nil {
		if destroyErr := inputTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy input tensor during cleanup: %v\n", destroyErr)
		}
		if destroyErr := maskTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy mask tensor during cleanup: %v\n", destroyErr)
		}
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := onnxruntime.NewAdvancedSession(t.modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]onnxruntime.Value{inputTensor, maskTensor},
		[]onnxruntime.Value{outputTensor},
		nil)
	if err != nil {
		if destroyErr := inputTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy input tensor during cleanup: %v\n", destroyErr)
		}
		if destroyErr := maskTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy mask tensor during cleanup: %v\n", destroyErr)
		}
		if destroyErr := outputTensor.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy output tensor during cleanup: %v\n", destroyErr)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	t.session = session
	t.inputTensor = inputTensor
	t.maskTensor = maskTensor
	t.outputTensor = outputTensor

	return nil
}

// updateInputTensors updates the input tensors with new data
func (t *ONNXEntityTagger) updateInputTensors(inputIDs, attentionMask []int64) {
	inputData := t.inputTensor.GetData()
	maskData := t.maskTensor.GetData()

	for i := range inputData {
		inputData[i] = 0
		maskData[i] = 0
	}

	copy(inputData, inputIDs)
	copy(maskData, attentionMask)
}

// Close implements the EntityTagger interface
func (t *ONNXEntityTagger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error

	if t.session != nil {
		if err := t.session.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy session: %w", err))
		}
		t.session = nil
	}
	if t.inputTensor != nil {
		if err := t.inputTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy input tensor: %w", err))
		}
		t.inputTensor = nil
	}
	if t.maskTensor != nil {
		if err := t.maskTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy mask tensor: %w", err))
		}
		t.maskTensor = nil
	}
	if t.outputTensor != nil {
		if err := t.outputTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy output tensor: %w", err))
		}
		t.outputTensor = nil
	}
	if t.tokenizer != nil {
		if err := t.tokenizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close tokenizer: %w", err))
		}
		t.tokenizer = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
