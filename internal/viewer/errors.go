package viewer

type Stage string

const (
	StageTransport Stage = "transport"
	StageDecode    Stage = "decode"
	StageComposite Stage = "composite"
	StagePresent   Stage = "present"
)

// StageError records which step of an iteration failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
