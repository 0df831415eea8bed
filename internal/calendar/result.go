package calendar

import (
	"errors"
	"fmt"

	"github.com/mmynk/calendar/internal/models"
)

// Failure kinds. Every error carried by a Result wraps exactly one of these,
// and its text is the user-facing message for that kind.
var (
	ErrLoad         = errors.New("이벤트 로딩 실패")
	ErrSingleSave   = errors.New("일정 저장 실패")
	ErrSingleDelete = errors.New("일정 삭제 실패")
	ErrSeriesCreate = errors.New("일정 생성 실패")
	ErrSeriesUpdate = errors.New("일정 수정 실패")
	ErrSeriesDelete = errors.New("반복 일정 삭제 실패")
)

var (
	// ErrClosed is returned by operations started or completed after Close.
	ErrClosed = errors.New("coordinator closed")

	// ErrNoSeries marks a series operation without a group identifier.
	ErrNoSeries = errors.New("event does not belong to a series")

	// ErrEmptyPatch marks a series update that changes no patchable field.
	ErrEmptyPatch = errors.New("series edit changes no patchable field")

	// ErrBadResponse marks a gateway response that violates the gateway contract.
	ErrBadResponse = errors.New("malformed gateway response")
)

// Op identifies a coordinator operation.
type Op int

const (
	OpLoad Op = iota
	OpCreate
	OpUpdate
	OpDelete
	OpCreateSeries
	OpUpdateSeries
	OpDeleteSeries
)

var opNames = [...]string{
	OpLoad:         "load",
	OpCreate:       "create",
	OpUpdate:       "update",
	OpDelete:       "delete",
	OpCreateSeries: "create-series",
	OpUpdateSeries: "update-series",
	OpDeleteSeries: "delete-series",
}

func (o Op) String() string {
	if o < OpLoad || o > OpDeleteSeries {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// failure returns the failure kind reported for o.
func (o Op) failure() error {
	switch o {
	case OpLoad:
		return ErrLoad
	case OpCreate, OpUpdate:
		return ErrSingleSave
	case OpDelete:
		return ErrSingleDelete
	case OpCreateSeries:
		return ErrSeriesCreate
	case OpUpdateSeries:
		return ErrSeriesUpdate
	case OpDeleteSeries:
		return ErrSeriesDelete
	default:
		return ErrSingleSave
	}
}

// success returns the message reported when o commits.
func (o Op) success() string {
	switch o {
	case OpLoad:
		return ""
	case OpCreate:
		return "일정이 추가되었습니다."
	case OpUpdate:
		return "일정이 수정되었습니다."
	case OpDelete, OpDeleteSeries:
		return "일정이 삭제되었습니다."
	case OpCreateSeries:
		return "반복 일정이 추가되었습니다."
	case OpUpdateSeries:
		return "반복 일정이 수정되었습니다."
	default:
		return ""
	}
}

// Result is the outcome of one coordinator operation.
type Result struct {
	Op  Op
	Err error

	// Events holds the committed events for create and update operations.
	Events []models.Event
}

// OK reports whether the operation committed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message returns the user-facing text for the outcome. A successful load
// has no message.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Op.failure().Error()
	}
	return r.Op.success()
}

// Severity returns the notification severity for the outcome.
func (r Result) Severity() Severity {
	if r.Err != nil {
		return SeverityError
	}
	return SeveritySuccess
}

func failed(op Op, cause error) Result {
	return Result{Op: op, Err: fmt.Errorf("%w: %w", op.failure(), cause)}
}
