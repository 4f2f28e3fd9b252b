package nickname

import (
	"fmt"
	"math/rand"
	"strings"
)

// Словари для генерации абстрактных никнеймов
var (
	prefixes = []string{"Cyber", "Neo", "Quantum", "Hyper", "Meta", "Nano", "Echo", "Zen", "Void", "Xeno"}
	middles  = []string{"flux", "sphere", "grid", "node", "synth", "core", "wave", "phase", "loop", "echo"}
	suffixes = []string{"01", "X", "Pi", "Omega", "Inf", "Delta", "Z", "Alpha", "Beta", "Gamma"}
)

// Generator генерирует абстрактные никнеймы для пользователей,
// не указавших собственный при регистрации
type Generator struct {
	rand *rand.Rand
}

// NewGenerator создает новый генератор с заданным источником случайности
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rand: rand.New(src)}
}

// Generate возвращает случайный никнейм в одном из трех режимов
func (g *Generator) Generate() string {
	switch g.rand.Intn(3) {
	case 0:
		return g.prefixPattern()
	case 1:
		return g.compoundPattern()
	default:
		return g.hybridPattern()
	}
}

// Режим 1: префикс + средняя часть, иногда с суффиксом
func (g *Generator) prefixPattern() string {
	name := g.pick(prefixes) + strings.ToLower(g.pick(middles))
	if g.rand.Intn(2) == 0 {
		name += g.pick(suffixes)
	}
	return name
}

// Режим 2: комбинация срезов слов
func (g *Generator) compoundPattern() string {
	return g.pick(prefixes)[:2] + g.pick(middles)[:3] + "-" + g.pick(suffixes)
}

// Режим 3: смешанный режим с числовым хвостом
func (g *Generator) hybridPattern() string {
	letter := string(rune('A' + g.rand.Intn(26)))
	return fmt.Sprintf("%s%s%s%d",
		g.pick(prefixes),
		letter,
		g.pick(middles)[1:],
		g.rand.Intn(1000)+10)
}

func (g *Generator) pick(words []string) string {
	return words[g.rand.Intn(len(words))]
}
