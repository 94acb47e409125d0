// Package emb runs sentence-embedding models exported to ONNX.
//
// The encoder tokenizes with a HuggingFace tokenizer.json, feeds the ids to
// the model through ONNX Runtime and mean-pools the last hidden state over the
// attention mask. Vectors are L2 normalized so cosine similarity reduces to a
// dot product.
package emb

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// Config describes where the runtime, model and tokenizer live.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
}

// Encoder turns text into a pooled embedding vector.
type Encoder struct {
	mu          sync.Mutex
	tk          *tokenizer.Tokenizer
	session     *ort.DynamicAdvancedSession
	inputs      []string
	output      string
	maxSeqLen   int
	ownsRuntime bool
}

// Init loads the runtime library, the tokenizer and the model.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	if !ort.IsInitialized() {
		if cfg.OrtDLL != "" {
			ort.SetSharedLibraryPath(cfg.OrtDLL)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("init onnxruntime: %w", err)
		}
		e.ownsRuntime = true
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		e.release()
		return fmt.Errorf("load tokenizer: %w", err)
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		e.release()
		return fmt.Errorf("inspect model: %w", err)
	}
	inputs, err := pickInputs(inInfo)
	if err != nil {
		e.release()
		return err
	}
	if len(outInfo) == 0 {
		e.release()
		return errors.New("model declares no outputs")
	}
	output := outInfo[0].Name

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputs, []string{output}, nil)
	if err != nil {
		e.release()
		return fmt.Errorf("create session: %w", err)
	}

	e.tk = tk
	e.session = session
	e.inputs = inputs
	e.output = output
	e.maxSeqLen = cfg.MaxSeqLen
	return nil
}

// pickInputs keeps the model's declared order for the inputs we know how to feed.
func pickInputs(info []ort.InputOutputInfo) ([]string, error) {
	var names []string
	var hasIDs, hasMask bool
	for _, in := range info {
		switch in.Name {
		case inputIDs:
			hasIDs = true
		case attentionMask:
			hasMask = true
		case tokenTypeIDs:
		default:
			return nil, fmt.Errorf("unsupported model input %q", in.Name)
		}
		names = append(names, in.Name)
	}
	if !hasIDs || !hasMask {
		return nil, fmt.Errorf("model must accept %s and %s", inputIDs, attentionMask)
	}
	return names, nil
}

// Close releases the session and, when this encoder started it, the runtime.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
}

func (e *Encoder) release() {
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	if e.ownsRuntime && ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
		e.ownsRuntime = false
	}
	e.tk = nil
}

// Encode embeds a single text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.tk == nil {
		return nil, errors.New("encoder is not initialized")
	}

	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids := truncateInts(enc.GetIds(), e.maxSeqLen)
	mask := truncateInts(enc.GetAttentionMask(), e.maxSeqLen)
	types := truncateInts(enc.GetTypeIds(), e.maxSeqLen)
	if len(ids) == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}
	if len(types) != len(ids) {
		types = make([]int, len(ids))
	}

	shape := ort.NewShape(1, int64(len(ids)))
	feeds := map[string][]int64{
		inputIDs:      toInt64(ids),
		attentionMask: toInt64(mask),
		tokenTypeIDs:  toInt64(types),
	}
	inputs := make([]ort.Value, 0, len(e.inputs))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range e.inputs {
		t, err := ort.NewTensor(shape, feeds[name])
		if err != nil {
			return nil, fmt.Errorf("build %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	defer outputs[0].Destroy()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type for %s", e.output)
	}
	outShape := hidden.GetShape()
	if len(outShape) == 2 {
		// Model already pools, e.g. sentence_embedding outputs.
		return l2Normalize(append([]float32(nil), hidden.GetData()...)), nil
	}
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", outShape)
	}
	return meanPool(hidden.GetData(), mask, int(outShape[1]), int(outShape[2])), nil
}

func meanPool(data []float32, mask []int, seqLen, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := data[t*dim : (t+1)*dim]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	return l2Normalize(out)
}

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func truncateInts(in []int, max int) []int {
	if max > 0 && len(in) > max {
		return in[:max]
	}
	return in
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
