package domain

import "strings"

// Runner — агент выполнения с набором тегов-возможностей.
//
// Runner — эксклюзивный ресурс: в каждый момент времени на нём
// выполняется не более одного job. Захват и освобождение runner'ов
// обеспечивает scheduler.Pool.
type Runner struct {
	// Name — имя runner'а (для логов и отчётов).
	Name string `json:"name"`

	// Tags — возможности runner'а ("nix", "docker", "gpu", ...).
	Tags []string `json:"tags"`
}

// Satisfies проверяет, покрывает ли runner требуемые теги:
// его набор тегов должен быть надмножеством required.
// Пустой required означает, что подходит любой runner.
func (r *Runner) Satisfies(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]bool, len(r.Tags))
	for _, t := range r.Tags {
		have[t] = true
	}
	for _, t := range required {
		if !have[t] {
			return false
		}
	}
	return true
}

// String возвращает представление вида "name[tag1,tag2]".
func (r *Runner) String() string {
	return r.Name + "[" + strings.Join(r.Tags, ",") + "]"
}

// ParseRunnerTags разбирает строку "tag1,tag2,..." в список тегов.
// Пустые элементы отбрасываются.
func ParseRunnerTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
