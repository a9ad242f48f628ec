package mockengine

import (
	"fmt"

	"github.com/jaswdr/faker"

	"github.com/periplon/metis/engine/config"
)

var fakerInstance = faker.New()

// random dispatches cfg.FakerKind to an enumerated faker generator
// (spec.md §4.1's Random strategy). An unknown kind returns a diagnostic
// string rather than failing, matching the spec's explicit instruction.
func (e *Engine) random(cfg *config.MockConfig) (any, error) {
	switch cfg.FakerKind {
	case "name":
		return fakerInstance.Person().Name(), nil
	case "title":
		return fakerInstance.Person().Title(), nil
	case "email":
		return fakerInstance.Internet().Email(), nil
	case "username":
		return fakerInstance.Internet().User(), nil
	case "word":
		return fakerInstance.Lorem().Word(), nil
	case "sentence":
		return fakerInstance.Lorem().Sentence(fakerInstance.IntBetween(1, 10)), nil
	case "paragraph":
		return fakerInstance.Lorem().Paragraph(fakerInstance.IntBetween(1, 3)), nil
	default:
		return fmt.Sprintf("unknown faker kind %q", cfg.FakerKind), nil
	}
}
