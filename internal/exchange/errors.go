package exchange

import (
	"errors"
	"fmt"

	"bhavcli/pkg/contracts/domain"
)

// ErrReportNotFound matches any ReportNotFoundError through errors.Is
var ErrReportNotFound = errors.New("report not found")

// ReportNotFoundError is returned when the resolved report URL could not be downloaded
type ReportNotFoundError struct {
	Exchange  domain.Exchange
	ReportURL string
	Err       error
}

func (e *ReportNotFoundError) Error() string {
	return fmt.Sprintf("report not found - %s", e.ReportURL)
}

// Unwrap returns the transport error that caused the failure
func (e *ReportNotFoundError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrReportNotFound) match
func (e *ReportNotFoundError) Is(target error) bool {
	return target == ErrReportNotFound
}
