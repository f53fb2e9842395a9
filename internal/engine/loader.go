package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conveyor/internal/domain"
)

// templateRefPrefix — префикс ссылки на template в script-списках.
// Запись "@name" разворачивается в команды template'а при загрузке.
const templateRefPrefix = "@"

// document — сырой YAML-документ определения pipeline.
//
// Jobs декодируются через yaml.Node, чтобы сохранить порядок
// объявления: map в Go порядок не гарантирует, а порядок jobs
// должен переживать round-trip загрузки и сериализации.
type document struct {
	Name      string              `yaml:"name"`
	Variables map[string]string   `yaml:"variables"`
	Stages    []string            `yaml:"stages"`
	Templates map[string][]string `yaml:"templates"`
	Jobs      yaml.Node           `yaml:"jobs"`
}

// jobSpec — сырое определение job в документе.
type jobSpec struct {
	Stage        string            `yaml:"stage"`
	Tags         []string          `yaml:"tags,omitempty"`
	BeforeScript []string          `yaml:"before_script,omitempty"`
	Script       []string          `yaml:"script"`
	AfterScript  []string          `yaml:"after_script,omitempty"`
	Artifacts    []string          `yaml:"artifacts,omitempty"`
	Variables    map[string]string `yaml:"variables,omitempty"`
	Enabled      *bool             `yaml:"enabled,omitempty"`
	RequiresEnv  []string          `yaml:"requires_env,omitempty"`
}

// Load читает файл определения и строит Pipeline.
//
// Имя pipeline — из поля name документа, иначе имя файла
// без расширения.
func Load(path string) (*domain.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	pipeline, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if pipeline.Name == "" {
		base := filepath.Base(path)
		pipeline.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return pipeline, nil
}

// Parse разбирает YAML-документ в Pipeline.
//
// Выполняет:
// - Декодирование документа с сохранением порядка jobs
// - Разворачивание "@template" ссылок в script-списках
// - Полную валидацию (см. Validate)
//
// Побочных эффектов не имеет: возвращает граф в памяти или ошибку
// класса ErrMalformedDefinition.
func Parse(data []byte) (*domain.Pipeline, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}

	pipeline := &domain.Pipeline{
		Name:      doc.Name,
		Variables: doc.Variables,
		Stages:    doc.Stages,
	}

	jobs, err := decodeJobs(&doc.Jobs)
	if err != nil {
		return nil, err
	}

	// Разворачиваем template-ссылки до валидации: результат
	// валидируется уже в развёрнутом виде.
	for i := range jobs {
		if err := expandTemplates(&jobs[i], doc.Templates); err != nil {
			return nil, err
		}
	}
	pipeline.Jobs = jobs

	if err := Validate(pipeline); err != nil {
		return nil, err
	}

	return pipeline, nil
}

// decodeJobs декодирует mapping jobs в порядке объявления.
func decodeJobs(node *yaml.Node) ([]domain.Job, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, NewDefinitionError("", "jobs",
			"jobs must be a mapping of job name to definition", ErrBadDocument)
	}

	// Content mapping-узла — плоский список пар ключ/значение.
	jobs := make([]domain.Job, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		var spec jobSpec
		if err := valNode.Decode(&spec); err != nil {
			return nil, NewDefinitionError(keyNode.Value, "",
				fmt.Sprintf("bad job definition: %v", err), ErrBadDocument)
		}

		jobs = append(jobs, domain.Job{
			Name:         keyNode.Value,
			Stage:        spec.Stage,
			Tags:         spec.Tags,
			BeforeScript: spec.BeforeScript,
			Script:       spec.Script,
			AfterScript:  spec.AfterScript,
			Artifacts:    spec.Artifacts,
			Variables:    spec.Variables,
			Enabled:      spec.Enabled,
			RequiresEnv:  spec.RequiresEnv,
		})
	}

	return jobs, nil
}

// expandTemplates разворачивает "@name" ссылки во всех трёх
// script-списках job. Ссылка на необъявленный template —
// ошибка определения.
func expandTemplates(job *domain.Job, templates map[string][]string) error {
	var err error

	if job.BeforeScript, err = expandList(job, "before_script", job.BeforeScript, templates); err != nil {
		return err
	}
	if job.Script, err = expandList(job, "script", job.Script, templates); err != nil {
		return err
	}
	if job.AfterScript, err = expandList(job, "after_script", job.AfterScript, templates); err != nil {
		return err
	}

	return nil
}

// expandList разворачивает template-ссылки в одном списке команд.
func expandList(job *domain.Job, field string, steps []string, templates map[string][]string) ([]string, error) {
	expanded := steps[:0:0]
	for _, step := range steps {
		if !strings.HasPrefix(step, templateRefPrefix) {
			expanded = append(expanded, step)
			continue
		}

		name := strings.TrimPrefix(step, templateRefPrefix)
		commands, ok := templates[name]
		if !ok {
			return nil, NewDefinitionError(job.Name, field,
				fmt.Sprintf("reference to unknown template %q", name), ErrUnknownTemplate)
		}
		expanded = append(expanded, commands...)
	}
	return expanded, nil
}
