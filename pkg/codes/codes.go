// Package codes генерирует человекочитаемые коды сущностей.
//
// Формат: {PREFIX}-{2 hex}{timestamp base36}-{6 hex},
// например ORD-a3kx9m2p1-f0b2c7. Временная метка даёт
// монотонный рост, случайные суффиксы защищают от коллизий
// при одновременной генерации.
package codes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind определяет тип сущности, для которой генерируется код.
type Kind string

const (
	KindUser    Kind = "USR"
	KindOrder   Kind = "ORD"
	KindProduct Kind = "PRD"
)

// Generator выдаёт уникальные коды сущностей.
// Поле now вынесено для детерминированных тестов.
type Generator struct {
	now func() time.Time
}

// NewGenerator создаёт генератор кодов с системными часами.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate возвращает новый код для указанного типа сущности.
func (g *Generator) Generate(kind Kind) (string, error) {
	head, err := randomHex(1) // 2 hex-символа
	if err != nil {
		return "", fmt.Errorf("ошибка генерации префикса кода: %w", err)
	}

	tail, err := randomHex(3) // 6 hex-символов
	if err != nil {
		return "", fmt.Errorf("ошибка генерации суффикса кода: %w", err)
	}

	ts := strconv.FormatInt(g.now().UnixMilli(), 36)

	return fmt.Sprintf("%s-%s%s-%s", kind, head, ts, tail), nil
}

// randomHex возвращает n случайных байт в hex-кодировке (2n символов).
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HasKind проверяет, что код принадлежит указанному типу сущности.
func HasKind(code string, kind Kind) bool {
	return strings.HasPrefix(code, string(kind)+"-")
}
