package model

// Envelope is the response wrapper every endpoint uses:
// {success, data?, error?}. Result turns it into typed data or an error.
type Envelope[T any] struct {
	Success  bool      `json:"success"`
	Data     *T        `json:"data,omitempty"`
	Error    string    `json:"error,omitempty"`
	Details  string    `json:"details,omitempty"`
	Message  string    `json:"message,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Failure is the business-failure side of an envelope.
type Failure struct {
	Message string
	Details string
}

func (f *Failure) Error() string {
	if f.Details != "" {
		return f.Message + ": " + f.Details
	}
	return f.Message
}

const unknownFailure = "request was not successful"

// Failed reports whether the envelope describes a business failure. An
// envelope with an error string is a failure even if success is missing.
func (e Envelope[T]) Failed() bool {
	return !e.Success || e.Error != ""
}

// Failure returns the failure description; nil when the envelope succeeded.
func (e Envelope[T]) Failure() *Failure {
	if !e.Failed() {
		return nil
	}
	msg := e.Error
	if msg == "" {
		msg = unknownFailure
	}
	return &Failure{Message: msg, Details: e.Details}
}

// Result returns the typed data on success. A failed envelope yields a
// *Failure; a successful one without data yields ErrEmptyEnvelope.
func (e Envelope[T]) Result() (T, error) {
	var zero T
	if f := e.Failure(); f != nil {
		return zero, f
	}
	if e.Data == nil {
		return zero, ErrEmptyEnvelope
	}
	return *e.Data, nil
}

// Metadata is the optional response metadata block.
type Metadata struct {
	ResponseTimeMS   float64  `json:"response_time_ms,omitempty"`
	TrainingTimeMS   float64  `json:"training_time_ms,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
	Timeframe        string   `json:"timeframe,omitempty"`
	Geo              string   `json:"geo,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	KeywordsAnalyzed int      `json:"keywords_analyzed,omitempty"`
	Cached           bool     `json:"cached,omitempty"`
	Count            int      `json:"count,omitempty"`
	Offset           int      `json:"offset,omitempty"`
	Limit            int      `json:"limit,omitempty"`
}
