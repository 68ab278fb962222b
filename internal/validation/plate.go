// Package validation содержит функции валидации входных данных.
package validation

import "strings"

// NormalizePlate приводит номерной знак к каноническому виду:
// верхний регистр без окружающих пробелов.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// IsValidPlate проверяет формат номерного знака: от одной до трёх групп
// латинских букв и цифр, разделённых дефисом, например "ABC-1234".
// Проверка выполняется до обращения к сети: невалидный ввод не должен
// порождать запрос.
func IsValidPlate(plate string) bool {
	plate = NormalizePlate(plate)
	if plate == "" {
		return false
	}

	groups := strings.Split(plate, "-")
	if len(groups) > 3 {
		return false
	}

	total := 0
	for _, g := range groups {
		if g == "" || len(g) > 7 {
			return false
		}
		for _, ch := range g {
			if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
				return false
			}
		}
		total += len(g)
	}

	return total >= 4 && total <= 10
}
