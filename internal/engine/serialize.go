package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Serialize сериализует Pipeline обратно в YAML.
//
// Гарантии round-trip: порядок stages, принадлежность jobs stages
// и порядок шагов внутри script-списков сохраняются в точности.
// Template-ссылки сериализуются в развёрнутом виде — разворачивание
// происходит при загрузке и необратимо.
func Serialize(p *domain.Pipeline) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	if p.Name != "" {
		appendScalar(root, "name", p.Name)
	}

	if len(p.Variables) > 0 {
		varsNode := &yaml.Node{Kind: yaml.MappingNode}
		if err := varsNode.Encode(p.Variables); err != nil {
			return nil, fmt.Errorf("encode variables: %w", err)
		}
		appendKey(root, "variables", varsNode)
	}

	stagesNode := &yaml.Node{Kind: yaml.SequenceNode}
	if err := stagesNode.Encode(p.Stages); err != nil {
		return nil, fmt.Errorf("encode stages: %w", err)
	}
	appendKey(root, "stages", stagesNode)

	// Jobs — mapping-узел, собранный вручную в порядке объявления.
	jobsNode := &yaml.Node{Kind: yaml.MappingNode}
	for i := range p.Jobs {
		job := &p.Jobs[i]

		specNode, err := encodeJob(job)
		if err != nil {
			return nil, fmt.Errorf("encode job %s: %w", job.Name, err)
		}
		appendKey(jobsNode, job.Name, specNode)
	}
	appendKey(root, "jobs", jobsNode)

	return yaml.Marshal(root)
}

// encodeJob кодирует один job без поля name (имя — ключ mapping'а).
func encodeJob(job *domain.Job) (*yaml.Node, error) {
	spec := jobSpec{
		Stage:        job.Stage,
		Tags:         job.Tags,
		BeforeScript: job.BeforeScript,
		Script:       job.Script,
		AfterScript:  job.AfterScript,
		Artifacts:    job.Artifacts,
		Variables:    job.Variables,
		Enabled:      job.Enabled,
		RequiresEnv:  job.RequiresEnv,
	}

	node := &yaml.Node{}
	if err := node.Encode(spec); err != nil {
		return nil, err
	}
	return node, nil
}

// appendScalar добавляет пару ключ/скалярное значение в mapping-узел.
func appendScalar(m *yaml.Node, key, value string) {
	appendKey(m, key, &yaml.Node{Kind: yaml.ScalarNode, Value: value})
}

// appendKey добавляет пару ключ/узел в mapping-узел.
func appendKey(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		value,
	)
}
