// Package wordcloud рисует облако слов в PNG.
//
// Используется операцией word_cloud. Шрифт — встроенный растровый
// basicfont или TrueType/OpenType файл, заданный в конфигурации.
package wordcloud
