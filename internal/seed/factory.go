// ABOUTME: Static sample factory used when OpenAI is unavailable.
// ABOUTME: Produces fuzzy values per field kind from fixed lists and ranges.

package seed

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/2389/reco/plugins/core"
)

var (
	petNames   = []string{"Rex", "Fido", "Kitty", "Max", "Bella", "Luna", "Charlie", "Daisy", "Milo", "Coco"}
	categories = []string{"dog", "cat", "bird", "fish", "rabbit", "hamster"}
	words      = []string{"alpha", "bravo", "delta", "echo", "foxtrot", "kilo", "lima", "tango"}
)

const (
	defaultIntMin = 1
	defaultIntMax = 99
)

// Factory generates records from a seeded source; it is safe for concurrent use
type Factory struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewFactory(seed uint64) *Factory {
	return &Factory{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Record fills every editable, non-identifier field of schema
func (f *Factory) Record(schema core.ResourceSchema) core.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	record := core.Record{}
	for _, field := range schema.Fields {
		if field.Identifier || !field.Editable {
			continue
		}
		record[field.Name] = f.value(field)
	}
	return record
}

func (f *Factory) value(field core.FieldSchema) any {
	switch field.Kind {
	case core.KindInteger:
		lo, hi := intRange(field)
		return int64(lo + f.rnd.IntN(hi-lo+1))
	case core.KindBoolean:
		return f.rnd.IntN(2) == 1
	case core.KindEnum:
		if len(field.Options) == 0 {
			return ""
		}
		return field.Options[f.rnd.IntN(len(field.Options))]
	}

	switch field.Name {
	case "name":
		return f.pick(petNames)
	case "category":
		return f.pick(categories)
	case "birthday", "date":
		days := f.rnd.IntN(15 * 365)
		return time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Format("2006-01-02")
	}
	return fmt.Sprintf("%s-%d", f.pick(words), f.rnd.IntN(1000))
}

func (f *Factory) pick(list []string) string {
	return list[f.rnd.IntN(len(list))]
}

// intRange returns the field's inclusive integer range, defaulting when unset
func intRange(field core.FieldSchema) (int, int) {
	lo, hi := field.Min, field.Max
	if hi == 0 && lo == 0 {
		return defaultIntMin, defaultIntMax
	}
	if hi < lo {
		return lo, lo
	}
	return lo, hi
}
