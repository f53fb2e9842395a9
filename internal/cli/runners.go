package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/shaiso/Conveyor/internal/domain"
)

// parseRunners разбирает флаги --runner вида "name" или
// "name=tag1,tag2". Без флагов возвращает один runner "local"
// с тегами из --runner-tags (если заданы).
func parseRunners(specs []string, localTags string) ([]domain.Runner, error) {
	if len(specs) == 0 {
		return []domain.Runner{{Name: "local", Tags: domain.ParseRunnerTags(localTags)}}, nil
	}
	if localTags != "" {
		return nil, fmt.Errorf("%w: --runner-tags cannot be combined with --runner", ErrBadRunnerSpec)
	}

	seen := make(map[string]bool, len(specs))
	runners := make([]domain.Runner, 0, len(specs))
	for _, spec := range specs {
		name, tags, _ := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: %q, expected NAME or NAME=tag1,tag2", ErrBadRunnerSpec, spec)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate runner %q", ErrBadRunnerSpec, name)
		}
		seen[name] = true

		runners = append(runners, domain.Runner{
			Name: name,
			Tags: domain.ParseRunnerTags(tags),
		})
	}
	return runners, nil
}

// environMap возвращает процессное окружение как map.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}

// parseVariables разбирает флаги --var вида KEY=VALUE.
func parseVariables(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected KEY=VALUE", kv)
		}
		vars[key] = value
	}
	return vars, nil
}
