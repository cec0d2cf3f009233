// Package engine содержит движок выполнения графа пайплайна.
//
// Включает:
//   - graph.go   — построение графа и порядок выполнения (алгоритм Кана)
//   - context.go — таблицы и артефакты узлов одного run
//   - result.go  — сводки узлов для UI
//   - engine.go  — Execute: обход графа и вызов операций из реестра
//
// # Обзор
//
// Execute получает узлы и рёбра в том виде, в каком их прислал клиент,
// и выполняет узлы по одному. Вход узла — выход его первого
// предшественника. Ошибка в узле не прерывает run: узел помечается
// failed, а дальше передаётся его вход. Узел без входных данных
// пропускается, если его операции нужна таблица.
//
// При цикле в рёбрах узлы выполняются в порядке объявления.
package engine
