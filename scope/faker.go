package scope

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var fakeWords = []string{
	"amber", "brook", "cedar", "delta", "ember", "fjord", "grove", "harbor",
	"iris", "juniper", "kestrel", "lagoon", "meadow", "nectar", "orchid", "pine",
	"quartz", "raven", "sierra", "tundra", "umber", "violet", "willow", "zephyr",
}

// fakeEpoch anchors generated dates so they do not depend on the clock.
var fakeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Faker produces reproducible fake values from a seed.
type Faker struct {
	seed int64
	rng  *rand.Rand
}

// NewFaker creates a faker seeded with seed.
func NewFaker(seed int64) *Faker {
	return &Faker{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the faker was last reset to.
func (f *Faker) Seed() int64 {
	return f.seed
}

// Reseed restarts the value sequence from seed.
func (f *Faker) Reseed(seed int64) {
	f.seed = seed
	f.rng = rand.New(rand.NewSource(seed))
}

// Int returns a value in [min, max].
func (f *Faker) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + f.rng.Intn(max-min+1)
}

// Bool returns a fake boolean.
func (f *Faker) Bool() bool {
	return f.rng.Intn(2) == 1
}

// Word returns one fake word.
func (f *Faker) Word() string {
	return fakeWords[f.rng.Intn(len(fakeWords))]
}

// Sentence returns n fake words, capitalized and terminated.
func (f *Faker) Sentence(n int) string {
	if n <= 0 {
		n = 1
	}
	words := make([]string, n)
	for i := range words {
		words[i] = f.Word()
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// UUID returns a version 4 UUID drawn from the seeded sequence.
func (f *Faker) UUID() string {
	id, err := uuid.NewRandomFromReader(f.rng)
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

// Date returns a fake day within three years of the fixed epoch.
func (f *Faker) Date() string {
	return fakeEpoch.AddDate(0, 0, f.rng.Intn(3*365)).Format("2006-01-02")
}

// Value returns a fake value suited to fieldType.
func (f *Faker) Value(fieldType string) any {
	switch strings.ToLower(fieldType) {
	case "int", "integer", "long", "int64":
		return f.Int(1, 100000)
	case "float", "double", "float64", "decimal", "bigdecimal":
		return float64(f.Int(1, 1000000)) / 100
	case "bool", "boolean":
		return f.Bool()
	case "uuid":
		return f.UUID()
	case "date", "localdate", "instant", "timestamp":
		return f.Date()
	case "text", "textblob":
		return f.Sentence(8)
	default:
		return f.Word()
	}
}
