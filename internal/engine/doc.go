// Package engine загружает декларативные определения pipeline.
//
// # Обзор
//
// Engine — это Loader системы Conveyor. Он превращает YAML-документ
// в неизменяемый граф в памяти (domain.Pipeline): упорядоченные stages,
// jobs с их script-списками, тегами и артефактами. Никаких побочных
// эффектов у загрузки нет.
//
// # Формат определения
//
//	name: my-pipeline
//	variables:
//	  CACHE_DIR: /tmp/cache
//	stages:
//	  - build
//	  - test
//	  - distribute
//	templates:
//	  setup:
//	    - command --version
//	jobs:
//	  build:package:
//	    stage: build
//	    tags: [nix]
//	    before_script: ["@setup"]
//	    script:
//	      - make build
//	    after_script:
//	      - make clean
//	    artifacts:
//	      - result/
//
// # Templates
//
// Повторяющиеся фрагменты команд выносятся в таблицу templates.
// Запись "@name" в любом script-списке разворачивается в команды
// template'а на этапе загрузки. Нативные YAML-якоря тоже работают —
// их разрешает сам yaml-парсер.
//
// # Ошибки
//
// Все ошибки загрузки входят в класс ErrMalformedDefinition:
//
//	p, err := engine.Load(path)
//	if errors.Is(err, engine.ErrMalformedDefinition) {
//	    os.Exit(2)
//	}
//
// DefinitionError добавляет контекст (job, поле) и доступна
// через errors.As.
package engine
