// Package scheduler строит план выполнения pipeline.
//
// Scheduler решает, какие jobs могут выполняться и когда:
//
//   - Stages идут строго в объявленном порядке, без переупорядочивания.
//   - Внутри stage jobs не упорядочены и выполняются параллельно.
//   - Job подлежит выполнению, если он включён, его requires_env
//     precondition выполнено и хотя бы один runner покрывает его теги
//     (надмножество). Иначе job пропускается с диагностикой —
//     это нефатальное состояние, pipeline продолжается.
//
// Пул runner'ов (Pool) обеспечивает эксклюзивность: runner
// захватывается перед выполнением job и освобождается после.
package scheduler
