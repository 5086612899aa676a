package models

import "sync"

// Session is the state the shell collects between runs: the chosen image, output folder
// and the raw text of the optional inputs.
type Session struct {
	mu             sync.RWMutex
	imagePath      string
	outputFolder   string
	diameterText   string
	variantName    string
	pixelScaleText string
	maskFormat     string
	lastResult     *JobResult
}

func NewSession(outputFolder string, variant Variant, maskFormat string) *Session {
	return &Session{
		outputFolder: outputFolder,
		variantName:  variant.String(),
		maskFormat:   maskFormat,
	}
}

func (s *Session) SetImagePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imagePath = path
	s.lastResult = nil
}

func (s *Session) ImagePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imagePath
}

func (s *Session) SetOutputFolder(folder string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputFolder = folder
}

func (s *Session) OutputFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputFolder
}

func (s *Session) SetDiameterText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diameterText = text
}

func (s *Session) SetVariantName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variantName = name
}

func (s *Session) SetPixelScaleText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixelScaleText = text
}

func (s *Session) PixelScaleText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pixelScaleText
}

func (s *Session) SetLastResult(result *JobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = result
}

func (s *Session) LastResult() *JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// Snapshot returns the raw inputs of a start request. pixelScale is resolved by the caller
// because an invalid value is ignored rather than rejected.
func (s *Session) Snapshot() (imagePath, outputFolder, diameterText, variantName, pixelScaleText, maskFormat string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imagePath, s.outputFolder, s.diameterText, s.variantName, s.pixelScaleText, s.maskFormat
}
