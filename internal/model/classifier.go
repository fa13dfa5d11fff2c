package model

import (
	"fmt"

	"github.com/Brownie44l1/tl-eval/internal/common"
	ort "github.com/yalue/onnxruntime_go"
)

type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// Options configure the ONNX runtime behind a Classifier.
type Options struct {
	Device Device
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default search.
	LibraryPath string
}

// Classifier runs one exported model on single images (batch size 1). It is
// not safe for concurrent use: the input and output tensors are shared
// between calls.
type Classifier struct {
	session      *ort.AdvancedSession
	arch         Architecture
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	numClasses   int
}

// NewClassifier loads the ONNX model at weightsPath for arch. The model must
// take one [1, 3, S, S] float input, S being the architecture's input size, and
// produce one [1, numClasses] output; anything else fails with ErrModelLoad.
func NewClassifier(arch Architecture, weightsPath string, numClasses int, opts Options) (*Classifier, error) {
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(weightsPath)
	if err != nil {
		return nil, common.Wrap(common.ErrModelLoad, "read model "+weightsPath, err)
	}
	if err := validateIO(arch, numClasses, inputs, outputs); err != nil {
		return nil, err
	}

	inputShape := ort.NewShape(1, 3, int64(arch.InputSize), int64(arch.InputSize))
	outputShape := ort.NewShape(1, int64(numClasses))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessionOpts, err := newSessionOptions(opts.Device)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer sessionOpts.Destroy()

	session, err := ort.NewAdvancedSession(weightsPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		sessionOpts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, common.Wrap(common.ErrModelLoad, "create ONNX session", err)
	}

	return &Classifier{
		session:      session,
		arch:         arch,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		numClasses:   numClasses,
	}, nil
}

func initEnvironment(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return common.Wrap(common.ErrModelLoad, "initialize ONNX environment", err)
	}
	return nil
}

func newSessionOptions(device Device) (*ort.SessionOptions, error) {
	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	switch device {
	case DeviceCPU, "":
	case DeviceCUDA:
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			sessionOpts.Destroy()
			return nil, common.Wrap(common.ErrModelLoad, "create CUDA provider options", err)
		}
		defer cudaOpts.Destroy()
		if err := sessionOpts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			sessionOpts.Destroy()
			return nil, common.Wrap(common.ErrModelLoad, "enable CUDA execution provider", err)
		}
	default:
		sessionOpts.Destroy()
		return nil, common.Errorf(common.ErrModelLoad, "unsupported device %q", device)
	}
	return sessionOpts, nil
}

// validateIO checks the model signature against what the evaluator feeds it.
// Dynamic dimensions (-1) are accepted anywhere.
func validateIO(arch Architecture, numClasses int, inputs, outputs []ort.InputOutputInfo) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return common.Errorf(common.ErrModelLoad, "expected 1 input and 1 output, model has %d and %d", len(inputs), len(outputs))
	}

	size := int64(arch.InputSize)
	if err := matchShape("input", inputs[0].Dimensions, []int64{1, 3, size, size}); err != nil {
		return err
	}
	if err := matchShape("output", outputs[0].Dimensions, []int64{1, int64(numClasses)}); err != nil {
		return fmt.Errorf("%s was not trained for %d classes: %w", arch.Name, numClasses, err)
	}
	return nil
}

func matchShape(what string, got ort.Shape, want []int64) error {
	if len(got) != len(want) {
		return common.Errorf(common.ErrModelLoad, "%s shape %v, want %v", what, got, want)
	}
	for i := range want {
		if got[i] != -1 && got[i] != want[i] {
			return common.Errorf(common.ErrModelLoad, "%s shape %v, want %v", what, got, want)
		}
	}
	return nil
}

func (c *Classifier) Architecture() Architecture {
	return c.arch
}

// InputLen is the number of float32 values Scores expects.
func (c *Classifier) InputLen() int {
	return 3 * c.arch.InputSize * c.arch.InputSize
}

func (c *Classifier) NumClasses() int {
	return c.numClasses
}

// Scores runs the model on one preprocessed image and returns a copy of the
// raw output, one score per class.
func (c *Classifier) Scores(input []float32) ([]float32, error) {
	if len(input) != c.InputLen() {
		return nil, fmt.Errorf("expected %d input values, got %d", c.InputLen(), len(input))
	}
	copy(c.inputTensor.GetData(), input)

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return append([]float32(nil), c.outputTensor.GetData()...), nil
}

func (c *Classifier) Close() {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
}

// Shutdown releases the ONNX environment once every classifier is closed.
func Shutdown() {
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}
