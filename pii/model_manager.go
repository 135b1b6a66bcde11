package pii

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	detectors "github.com/hannes/esic-screener/pii/detectors"
)

// ModelManager owns the entity-tagging model lifecycle: one expensive load
// at startup, a read-only reentrant tagger shared by every worker, and
// thread-safe hot reload.
type ModelManager struct {
	mu             sync.RWMutex
	currentTagger  detectors.EntityTagger
	modelDirectory string
	isHealthy      bool
	lastError      error
}

// ModelConfig holds paths to required model files
type ModelConfig struct {
	ModelPath     string
	TokenizerPath string
	LabelMapPath  string
}

// NewModelManager creates a manager and loads the model from the given
// directory. A load failure is fatal by policy: the pipeline cannot silently
// degrade by skipping name detection, so the error is returned instead of a
// manager in an unhealthy state.
func NewModelManager(directory string) (*ModelManager, error) {
	mm := &ModelManager{
		modelDirectory: directory,
		isHealthy:      false,
	}

	if err := mm.ReloadModel(directory); err != nil {
		return nil, fmt.Errorf("initial model load failed: %w", err)
	}

	return mm, nil
}

// GetTagger returns the current tagger in a thread-safe manner. Implements
// TaggerProvider.
func (mm *ModelManager) GetTagger() (detectors.EntityTagger, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.isHealthy {
		return nil, fmt.Errorf("model is unhealthy: %w", mm.lastError)
	}

	if mm.currentTagger == nil {
		return nil, fmt.Errorf("no tagger available")
	}

	return mm.currentTagger, nil
}

// ReloadModel reloads the model from the specified directory with validation
func (mm *ModelManager) ReloadModel(newDirectory string) error {
	log.Printf("[ModelManager] Loading model from directory: %s", newDirectory)

	// Step 1: Validate directory structure
	config, err := mm.validateDirectory(newDirectory)
	if err != nil {
		mm.setUnhealthy(err)
		return fmt.Errorf("validation failed: %w", err)
	}

	// Step 2: Load the new tagger outside the lock to minimize blocking
	newTagger, err := detectors.NewONNXEntityTagger(
		config.ModelPath,
		config.TokenizerPath,
		config.LabelMapPath,
	)
	if err != nil {
		mm.setUnhealthy(err)
		return fmt.Errorf("failed to load model: %w", err)
	}

	// Step 3: Run a validation inference to ensure the model works
	if _, err := newTagger.Tag(context.Background(), "Teste com Maria da Silva"); err != nil {
		if closeErr := newTagger.Close(); closeErr != nil {
			log.Printf("[ModelManager] Warning: failed to close failed tagger: %v", closeErr)
		}
		mm.setUnhealthy(err)
		return fmt.Errorf("model validation failed: %w", err)
	}

	// Step 4: Swap taggers atomically
	mm.mu.Lock()
	oldTagger := mm.currentTagger
	mm.currentTagger = newTagger
	mm.modelDirectory = newDirectory
	mm.isHealthy = true
	mm.lastError = nil
	mm.mu.Unlock()

	// Step 5: Close the old tagger outside the lock
	if oldTagger != nil {
		if err := oldTagger.Close(); err != nil {
			log.Printf("[ModelManager] Warning: failed to close old tagger: %v", err)
		}
	}

	log.Printf("[ModelManager] Model reload complete for directory: %s", newDirectory)
	return nil
}

func (mm *ModelManager) setUnhealthy(err error) {
	mm.mu.Lock()
	mm.isHealthy = false
	mm.lastError = err
	mm.mu.Unlock()
}

// IsHealthy returns whether the current model is healthy
func (mm *ModelManager) IsHealthy() bool {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.isHealthy
}

// GetLastError returns the last error encountered (if any)
func (mm *ModelManager) GetLastError() error {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.lastError
}

// validateDirectory checks that the directory exists and contains all required files
func (mm *ModelManager) validateDirectory(dir string) (*ModelConfig, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", dir)
		}
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	requiredFiles := []string{
		"model_quantized.onnx",
		"tokenizer.json",
		"label_mappings.json",
	}

	var missingFiles []string
	for _, filename := range requiredFiles {
		fullPath := filepath.Join(dir, filename)
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			missingFiles = append(missingFiles, filename)
		}
	}

	if len(missingFiles) > 0 {
		return nil, fmt.Errorf("missing required files in directory: %v", missingFiles)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	return &ModelConfig{
		ModelPath:     filepath.Join(absDir, "model_quantized.onnx"),
		TokenizerPath: filepath.Join(absDir, "tokenizer.json"),
		LabelMapPath:  filepath.Join(absDir, "label_mappings.json"),
	}, nil
}

// Close closes the current tagger and cleans up resources
func (mm *ModelManager) Close() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.currentTagger != nil {
		if err := mm.currentTagger.Close(); err != nil {
			return fmt.Errorf("failed to close tagger: %w", err)
		}
		mm.currentTagger = nil
	}

	mm.isHealthy = false
	return nil
}
