package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// InitializeEngine loads the onnxruntime shared library and initializes its
// environment. The first call wins; later calls return the same result. An
// empty libraryPath falls back to ONNXRUNTIME_LIB_PATH and then to the usual
// install locations.
func InitializeEngine(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath == "" {
			libraryPath = defaultLibraryPath()
		}
		ort.SetSharedLibraryPath(libraryPath)
		if err := ort.InitializeEnvironment(); err != nil {
			ortInitErr = fmt.Errorf("initialize onnxruntime (set ONNXRUNTIME_LIB_PATH if the library is elsewhere): %w", err)
		}
	})
	return ortInitErr
}

func defaultLibraryPath() string {
	if path := os.Getenv("ONNXRUNTIME_LIB_PATH"); path != "" {
		return path
	}
	candidates := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.dylib",
		"/usr/lib/libonnxruntime.so",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// OptimizationsSupported reports whether onnxruntime graph optimizations are
// usable on this platform. Optimized graphs crash the runtime on 32-bit ARM,
// so the toggle is forced off there.
func OptimizationsSupported() bool {
	return runtime.GOARCH != "arm"
}

func newSessionOptions(noOptimizations bool) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if noOptimizations || !OptimizationsSupported() {
		if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelDisableAll); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("disable graph optimizations: %w", err)
		}
	}
	return options, nil
}

func newSession(modelFile string, inputs, outputs []string, noOptimizations bool) (*ort.DynamicAdvancedSession, error) {
	options, err := newSessionOptions(noOptimizations)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelFile, inputs, outputs, options)
	if err != nil {
		return nil, fmt.Errorf("load onnx model %s: %w", modelFile, err)
	}
	return session, nil
}

// resolveModelFile accepts either an .onnx file or a model directory holding
// one with the given default name.
func resolveModelFile(path, defaultName string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("model path %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, defaultName)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("model file %s: %w", path, err)
		}
	}
	return path, nil
}
