package validator

// Validator validates request and domain structs.
type Validator interface {
	// Validate returns nil when data passes all struct validation rules.
	Validate(data any) error
}
