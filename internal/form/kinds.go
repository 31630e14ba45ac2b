package form

// Kind enumerates every supported question type. The set is closed: the codec
// and the scoring engine branch only on entries of the Kinds table below, so
// adding a type means one table row plus one codec and one scorer branch.
type Kind string

const (
	KindShortText  Kind = "short_text"
	KindLongText   Kind = "long_text"
	KindMCQ        Kind = "mcq"
	KindCheckbox   Kind = "checkbox"
	KindDropdown   Kind = "dropdown"
	KindRating     Kind = "rating"
	KindBoolean    Kind = "boolean" // legacy alias of yes_no, same shape
	KindEmail      Kind = "email"
	KindPhone      Kind = "phone"
	KindURL        Kind = "url"
	KindNumber     Kind = "number"
	KindDate       Kind = "date"
	KindTime       Kind = "time"
	KindLinearScale Kind = "linear_scale"
	KindGrid       Kind = "multiple_choice_grid"
	KindFileUpload Kind = "file_upload"
	KindYesNo      Kind = "yes_no"
)

// Shape names the canonical in-memory representation of an answer.
type Shape string

const (
	ShapeText      Shape = "text"       // free text, kind-validated by format
	ShapeNumber    Shape = "number"     // single number
	ShapeChoice    Shape = "choice"     // single string from the option value set
	ShapeChoiceSet Shape = "choice_set" // order-independent set of option values
	ShapeScale     Shape = "scale"      // integer in [1, Range]
	ShapeGrid      Shape = "grid"       // row value -> exactly one column value
	ShapeFileRef   Shape = "file_ref"   // non-empty reference string, never bytes
	ShapeYesNo     Shape = "yes_no"     // "yes" or "no"
)

// KindSpec describes what a kind requires of its Question and what a valid
// canonical answer looks like. This table is the single source of truth
// consulted by the codec and the scorer.
type KindSpec struct {
	Shape        Shape
	NeedsOptions bool // Options must be non-empty
	NeedsGrid    bool // Rows and Cols must be non-empty
	NeedsRange   bool // Range must be >= 2
	Multi        bool // canonical answer is multi-valued
	AutoScorable bool // eligible for automatic grading when a key is declared
}

var Kinds = map[Kind]KindSpec{
	KindShortText:   {Shape: ShapeText, AutoScorable: true},
	KindLongText:    {Shape: ShapeText},
	KindMCQ:         {Shape: ShapeChoice, NeedsOptions: true, AutoScorable: true},
	KindCheckbox:    {Shape: ShapeChoiceSet, NeedsOptions: true, Multi: true, AutoScorable: true},
	KindDropdown:    {Shape: ShapeChoice, NeedsOptions: true, AutoScorable: true},
	KindRating:      {Shape: ShapeScale, NeedsRange: true, AutoScorable: true},
	KindBoolean:     {Shape: ShapeYesNo, AutoScorable: true},
	KindEmail:       {Shape: ShapeText, AutoScorable: true},
	KindPhone:       {Shape: ShapeText, AutoScorable: true},
	KindURL:         {Shape: ShapeText, AutoScorable: true},
	KindNumber:      {Shape: ShapeNumber, AutoScorable: true},
	KindDate:        {Shape: ShapeText, AutoScorable: true},
	KindTime:        {Shape: ShapeText, AutoScorable: true},
	KindLinearScale: {Shape: ShapeScale, NeedsRange: true, AutoScorable: true},
	KindGrid:        {Shape: ShapeGrid, NeedsGrid: true, Multi: true, AutoScorable: true},
	KindFileUpload:  {Shape: ShapeFileRef},
	KindYesNo:       {Shape: ShapeYesNo, AutoScorable: true},
}

// ValidKind reports whether k is a member of the closed kind set.
func ValidKind(k Kind) bool {
	_, ok := Kinds[k]
	return ok
}

// ValidateDefinition checks that a question carries the extra fields its kind
// demands. Used by the question CRUD surface before persisting.
func ValidateDefinition(q Question) error {
	spec, ok := Kinds[q.Kind]
	if !ok {
		return &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "unknown question kind " + string(q.Kind)}
	}
	if spec.NeedsOptions && len(q.Options) == 0 {
		return &ValidationError{QuestionID: q.ID, Code: CodeBadDefinition, Msg: string(q.Kind) + " requires options"}
	}
	if spec.NeedsGrid && (len(q.Rows) == 0 || len(q.Cols) == 0) {
		return &ValidationError{QuestionID: q.ID, Code: CodeBadDefinition, Msg: "grid requires rows and columns"}
	}
	if spec.NeedsRange && q.Range < 2 {
		return &ValidationError{QuestionID: q.ID, Code: CodeBadDefinition, Msg: string(q.Kind) + " requires a range of at least 2"}
	}
	return nil
}
