package types

import (
	"github.com/go-playground/validator/v10"
)

// habitValidate is shared across calls; validator caches struct metadata.
var habitValidate *validator.Validate

func init() {
	habitValidate = validator.New(validator.WithRequiredStructEnabled())
	habitValidate.RegisterStructValidation(validateHabitVariant, Habit{})
}

// validateHabitVariant enforces that exactly one payload is present and that
// it matches the discriminant.
func validateHabitVariant(sl validator.StructLevel) {
	h := sl.Current().Interface().(Habit)

	switch h.Kind {
	case HabitKindBuild:
		if h.Build == nil {
			sl.ReportError(h.Build, "Build", "Build", "required_for_kind", string(h.Kind))
		}
		if h.Quit != nil {
			sl.ReportError(h.Quit, "Quit", "Quit", "excluded_for_kind", string(h.Kind))
		}
	case HabitKindQuit:
		if h.Quit == nil {
			sl.ReportError(h.Quit, "Quit", "Quit", "required_for_kind", string(h.Kind))
		}
		if h.Build != nil {
			sl.ReportError(h.Build, "Build", "Build", "excluded_for_kind", string(h.Kind))
		}
		if h.Quit != nil && h.Quit.OriginalQuitDate != nil && h.Quit.QuitDate.Before(*h.Quit.OriginalQuitDate) {
			sl.ReportError(h.Quit.QuitDate, "QuitDate", "QuitDate", "gtefield_original", "")
		}
	}
}

// Validate checks field ranges and the variant invariant. Variant payloads
// are nested structs and are validated by the same pass.
func (h Habit) Validate() error {
	return habitValidate.Struct(h)
}
