package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorDump is the log-friendly view of a failure: one chain entry per link,
// with joined errors (multierr, errors.Join) walked depth first.
type ErrorDump struct {
	Message   string   `json:"message"`
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	Chain     []string `json:"chain,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	dump := ErrorDump{Message: err.Error()}
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
		dump.Retryable = MetadataFor(dump.Code).Retryable
	}
	dump.Chain = appendLinks(nil, err)
	return dump
}

func appendLinks(chain []string, err error) []string {
	for err != nil {
		if typed, ok := err.(*Error); ok {
			chain = append(chain, fmt.Sprintf("%s: %s", typed.code, typed.message))
		} else {
			chain = append(chain, fmt.Sprintf("%T: %v", err, err))
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, branch := range joined.Unwrap() {
				chain = appendLinks(chain, branch)
			}
			return chain
		}
		err = stdErrors.Unwrap(err)
	}
	return chain
}
