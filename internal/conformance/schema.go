package conformance

// Suite is one YAML case file.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// Case is a single program run and what it must produce.
type Case struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        string      `yaml:"skip,omitempty"` // reason
	Source      string      `yaml:"source"`         // IL listing
	Entry       string      `yaml:"entry,omitempty"`
	Stdin       string      `yaml:"stdin,omitempty"`
	MaxSteps    int         `yaml:"max_steps,omitempty"`
	MaxDepth    int         `yaml:"max_depth,omitempty"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation lists the checks made after a run. Unset fields are not
// checked.
type Expectation struct {
	Result *string `yaml:"result,omitempty"` // value left for the caller
	Empty  bool    `yaml:"empty,omitempty"`  // nothing left for the caller
	Stdout *string `yaml:"stdout,omitempty"`
	Error  string  `yaml:"error,omitempty"` // one of the error classes
}

// Error classes a case may expect.
const (
	ClassSyntax       = "syntax"
	ClassNoEntry      = "no-entry"
	ClassMalformed    = "malformed"
	ClassUnderflow    = "underflow"
	ClassUnsetLocal   = "unset-local"
	ClassLocalIndex   = "local-index"
	ClassArgIndex     = "arg-index"
	ClassUnsupported  = "unsupported"
	ClassTypeMismatch = "type-mismatch"
	ClassInvocation   = "invocation"
	ClassMaxSteps     = "max-steps"
	ClassMaxDepth     = "max-depth"
)

var classes = map[string]bool{
	ClassSyntax:       true,
	ClassNoEntry:      true,
	ClassMalformed:    true,
	ClassUnderflow:    true,
	ClassUnsetLocal:   true,
	ClassLocalIndex:   true,
	ClassArgIndex:     true,
	ClassUnsupported:  true,
	ClassTypeMismatch: true,
	ClassInvocation:   true,
	ClassMaxSteps:     true,
	ClassMaxDepth:     true,
}
