package domain

// Pipeline — полное описание pipeline: упорядоченные stages и их jobs.
//
// Pipeline строится Loader'ом из декларативного YAML-документа
// и после загрузки не изменяется. Все ссылки jobs на stages
// проверены на этапе загрузки.
type Pipeline struct {
	// Name — имя pipeline (имя файла определения без расширения,
	// если в документе не задано явно).
	Name string `yaml:"name,omitempty"`

	// Variables — переменные уровня pipeline.
	// Доступны всем jobs как переменные окружения.
	Variables map[string]string `yaml:"variables,omitempty"`

	// Stages — упорядоченный список имён stages.
	// Stages выполняются строго последовательно, в объявленном порядке.
	Stages []string `yaml:"stages"`

	// Jobs — jobs в порядке объявления в документе.
	Jobs []Job `yaml:"jobs"`
}

// HasStage проверяет, объявлен ли stage с данным именем.
func (p *Pipeline) HasStage(name string) bool {
	for _, s := range p.Stages {
		if s == name {
			return true
		}
	}
	return false
}

// StageJobs возвращает jobs, принадлежащие stage, в порядке объявления.
func (p *Pipeline) StageJobs(stage string) []*Job {
	var jobs []*Job
	for i := range p.Jobs {
		if p.Jobs[i].Stage == stage {
			jobs = append(jobs, &p.Jobs[i])
		}
	}
	return jobs
}

// Job возвращает job по имени или nil, если job не найден.
func (p *Pipeline) Job(name string) *Job {
	for i := range p.Jobs {
		if p.Jobs[i].Name == name {
			return &p.Jobs[i]
		}
	}
	return nil
}

// Job — единица работы внутри одного stage.
//
// Job состоит из упорядоченных shell-команд, разбитых на три фазы:
// before_script → script → after_script. Содержимое команд для
// оркестратора непрозрачно — они передаются внешнему процессу как есть.
type Job struct {
	// Name — уникальное имя job в рамках pipeline.
	Name string `yaml:"name"`

	// Stage — имя stage, которому принадлежит job.
	// Обязан ссылаться на объявленный stage.
	Stage string `yaml:"stage"`

	// Tags — требуемые возможности runner'а.
	// Job назначается только на runner, чей набор тегов
	// является надмножеством Tags. Пустой список — любой runner.
	Tags []string `yaml:"tags,omitempty"`

	// BeforeScript — команды подготовки. Ненулевой код выхода
	// любой из них роняет job до выполнения основного script.
	BeforeScript []string `yaml:"before_script,omitempty"`

	// Script — основные команды job. Обязательное, непустое поле.
	Script []string `yaml:"script"`

	// AfterScript — команды cleanup/publish. Выполняются всегда,
	// их ошибки записываются как диагностики и статус job не меняют.
	AfterScript []string `yaml:"after_script,omitempty"`

	// Artifacts — пути артефактов, собираемых после успешного job.
	Artifacts []string `yaml:"artifacts,omitempty"`

	// Variables — переменные уровня job.
	// Перекрывают одноимённые переменные pipeline.
	Variables map[string]string `yaml:"variables,omitempty"`

	// Enabled — флаг включённости job. По умолчанию true.
	// Выключенный job остаётся в графе, но план помечает его SKIPPED.
	Enabled *bool `yaml:"enabled,omitempty"`

	// RequiresEnv — precondition: имена переменных окружения,
	// которые должны быть непустыми в объединённом окружении job.
	// Иначе job пропускается на этапе построения плана.
	RequiresEnv []string `yaml:"requires_env,omitempty"`
}

// IsEnabled возвращает true, если job включён.
// Отсутствие флага означает включённый job.
func (j *Job) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// Env возвращает объединённое окружение job:
// переменные pipeline, перекрытые переменными job.
func (j *Job) Env(pipelineVars map[string]string) map[string]string {
	env := make(map[string]string, len(pipelineVars)+len(j.Variables))
	for k, v := range pipelineVars {
		env[k] = v
	}
	for k, v := range j.Variables {
		env[k] = v
	}
	return env
}
