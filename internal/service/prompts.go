package service

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

//go:embed prompts/*.tmpl
var embeddedPrompts embed.FS

const (
	promptItineraryDay    = "itinerary_day_v1.tmpl"
	promptItineraryModify = "itinerary_modify_v1.tmpl"
	promptGeneralTasks    = "general_tasks_v1.tmpl"
	promptVaccines        = "vaccines_v1.tmpl"
	promptAccommodation   = "accommodation_v1.tmpl"
	promptTripName        = "trip_name_v1.tmpl"
)

// Prompts renders prompt templates. Files in dir override the embedded ones.
type Prompts struct {
	dir string

	mu        sync.RWMutex
	templates map[string]*template.Template
}

func NewPrompts(dir string) *Prompts {
	return &Prompts{
		dir:       strings.TrimSpace(dir),
		templates: make(map[string]*template.Template),
	}
}

func (p *Prompts) Render(fileName string, data any) (string, error) {
	tmpl, err := p.load(fileName)
	if err != nil {
		return "", err
	}

	buffer := bytes.NewBuffer(nil)
	if err := tmpl.Execute(buffer, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", fileName, err)
	}
	return strings.TrimSpace(buffer.String()), nil
}

func (p *Prompts) load(fileName string) (*template.Template, error) {
	p.mu.RLock()
	if tmpl, ok := p.templates[fileName]; ok {
		p.mu.RUnlock()
		return tmpl, nil
	}
	p.mu.RUnlock()

	content, err := p.read(fileName)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(fileName).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", fileName, err)
	}

	p.mu.Lock()
	p.templates[fileName] = tmpl
	p.mu.Unlock()
	return tmpl, nil
}

func (p *Prompts) read(fileName string) ([]byte, error) {
	if p.dir != "" {
		content, err := os.ReadFile(filepath.Join(p.dir, fileName))
		if err == nil {
			return content, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read prompt template %s: %w", fileName, err)
		}
	}
	content, err := fs.ReadFile(embeddedPrompts, "prompts/"+fileName)
	if err != nil {
		return nil, fmt.Errorf("read embedded prompt %s: %w", fileName, err)
	}
	return content, nil
}
