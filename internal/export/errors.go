package export

import "fmt"

// Export stages reported by ExportError.
const (
	StageRender = "render"
	StagePrint  = "print"
	StageVerify = "verify"
	StageWrite  = "write"
)

// ExportError represents a failed export. No file is produced when it is returned.
type ExportError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *ExportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("export failed at %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("export failed at %s: %s", e.Stage, e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}
